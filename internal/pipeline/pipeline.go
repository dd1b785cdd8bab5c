package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/paulmach/orb/geojson"

	"skyhaul/internal/catalog"
	"skyhaul/internal/config"
	"skyhaul/internal/daterange"
	"skyhaul/internal/logging"
	"skyhaul/internal/orders"
)

// Searcher finds catalog scenes inside an acquisition window.
type Searcher interface {
	SearchScenes(ctx context.Context, geom *geojson.Geometry, window daterange.Range, bundle string) ([]catalog.Scene, error)
}

// Submitter places fulfillment orders with the imagery service.
type Submitter interface {
	SubmitOrder(ctx context.Context, name string, itemIDs []string, orderBundle string, clipGeom *geojson.Geometry) (string, error)
	SubmitMosaicOrder(ctx context.Context, mosaicName string, geom *geojson.Geometry) (string, error)
}

// StatusFetcher reads the remote state of submitted orders.
type StatusFetcher interface {
	OrderStatus(ctx context.Context, id string) (*catalog.OrderStatus, error)
}

// Catalog is the remote surface the pipeline depends on. *catalog.Client
// satisfies it.
type Catalog interface {
	Searcher
	Submitter
	StatusFetcher
}

// Pipeline drives orders from search through submission, polling, and
// delivery. All durable state lives in the order store; the pipeline itself
// is stateless and safe to rebuild per command.
type Pipeline struct {
	cfg     *config.Config
	catalog Catalog
	store   *orders.Store
	logger  *slog.Logger
}

// New wires a pipeline. A nil logger disables logging.
func New(cfg *config.Config, cat Catalog, store *orders.Store, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config is required")
	}
	if cat == nil {
		return nil, errors.New("pipeline: catalog is required")
	}
	if store == nil {
		return nil, errors.New("pipeline: order store is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{cfg: cfg, catalog: cat, store: store, logger: logger}, nil
}

// DedupState classifies how an acquisition window relates to order history.
type DedupState string

const (
	// DedupNone means no prior order covers the window.
	DedupNone DedupState = "none"
	// DedupPending means an order for the window is queued or running.
	DedupPending DedupState = "pending"
	// DedupCompleted means the window already has a successful order.
	DedupCompleted DedupState = "completed"
)

// DedupResult pairs the classification with the order that caused it.
type DedupResult struct {
	State DedupState
	Order *orders.Order
}

// Dedup reports whether a scene order for this AOI and window would repeat
// existing work. A completed window wins over a pending one.
func (p *Pipeline) Dedup(ctx context.Context, aoiLabel string, window daterange.Range) (DedupResult, error) {
	completed, err := p.store.HasCompleted(ctx, aoiLabel, window)
	if err != nil {
		return DedupResult{}, fmt.Errorf("dedup: %w", err)
	}
	existing, err := p.store.FindByWindow(ctx, aoiLabel, window, orders.KindScene)
	if err != nil {
		return DedupResult{}, fmt.Errorf("dedup: %w", err)
	}
	if completed {
		return DedupResult{State: DedupCompleted, Order: existing}, nil
	}
	if existing != nil && existing.Status.NeedsPoll() {
		return DedupResult{State: DedupPending, Order: existing}, nil
	}
	return DedupResult{State: DedupNone}, nil
}
