package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"skyhaul/internal/aoi"
	"skyhaul/internal/catalog"
	"skyhaul/internal/daterange"
	"skyhaul/internal/logging"
	"skyhaul/internal/orders"
	"skyhaul/internal/selection"
)

// Plan is a priced scene selection ready for submission.
type Plan struct {
	// Label keys the order and its storage paths. Defaults to the AOI
	// label; batch submissions may override it.
	Label         string
	AOI           *aoi.AOI
	Window        daterange.Range
	Bands         catalog.Bands
	Cadence       daterange.Cadence
	SearchBundle  string
	OrderBundle   string
	ScenesFound   int
	Selected      []selection.Selected
	QuotaHectares float64
}

// HasScenes reports whether anything survived selection.
func (pl *Plan) HasScenes() bool {
	return pl != nil && len(pl.Selected) > 0
}

// PrepareScenes searches the window, thins the result to the cadence, and
// prices the quota the order would consume. The plan may come back empty;
// submission requires at least one selected scene.
func (p *Pipeline) PrepareScenes(ctx context.Context, area *aoi.AOI, window daterange.Range, bands catalog.Bands, bundleOverride string, cadence daterange.Cadence) (*Plan, error) {
	if area == nil || area.Geometry == nil {
		return nil, errors.New("prepare: aoi with geometry is required")
	}
	if window.IsZero() {
		return nil, errors.New("prepare: acquisition window is required")
	}
	if bands == "" {
		bands = catalog.BandsFour
	}
	if cadence == "" {
		cadence = daterange.Cadence(p.cfg.Search.Cadence)
	}

	searchBundle := catalog.SearchBundle(bands, window.Start.Year(), bundleOverride)
	orderBundle := catalog.OrderBundle(searchBundle)

	scenes, err := p.catalog.SearchScenes(ctx, area.Geometry, window, searchBundle)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}

	selected, err := selection.Select(scenes, area.Geometry, cadence, p.cfg.Search.MinCoveragePct)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}

	plan := &Plan{
		Label:         area.Label,
		AOI:           area,
		Window:        window,
		Bands:         bands,
		Cadence:       cadence,
		SearchBundle:  searchBundle,
		OrderBundle:   orderBundle,
		ScenesFound:   len(scenes),
		Selected:      selected,
		QuotaHectares: area.AreaSqKm * float64(len(selected)) * 100,
	}
	p.logger.Info("scene plan prepared",
		logging.String("aoi", plan.Label),
		logging.String("window", window.String()),
		logging.String("bundle", searchBundle),
		logging.Int("found", plan.ScenesFound),
		logging.Int("selected", len(selected)),
		logging.Float64("quota_hectares", plan.QuotaHectares))
	return plan, nil
}

// SubmitOptions adjusts scene submission.
type SubmitOptions struct {
	// SkipExisting refuses to resubmit a window that already has a
	// completed or pending order.
	SkipExisting bool
	// BatchID groups the order under a batch submission.
	BatchID string
}

// DuplicateError reports a submission stopped because the window is already
// covered by an existing order.
type DuplicateError struct {
	State DedupState
	Order *orders.Order
}

func (e *DuplicateError) Error() string {
	if e.Order != nil {
		return fmt.Sprintf("order %s already covers this window (%s)", e.Order.ID, e.State)
	}
	return "an existing order already covers this window"
}

// SubmitScenes places the planned order and records it as queued. With
// SkipExisting set, a window that already has a completed or pending order
// returns a DuplicateError carrying the existing record.
func (p *Pipeline) SubmitScenes(ctx context.Context, plan *Plan, opts SubmitOptions) (*orders.Order, error) {
	if !plan.HasScenes() {
		return nil, errors.New("submit: plan has no scenes")
	}

	if opts.SkipExisting {
		dedup, err := p.Dedup(ctx, plan.Label, plan.Window)
		if err != nil {
			return nil, fmt.Errorf("submit: %w", err)
		}
		if dedup.State != DedupNone {
			return nil, &DuplicateError{State: dedup.State, Order: dedup.Order}
		}
	}

	name := fmt.Sprintf("Scene Order %s %s", plan.Label, plan.Window)
	id, err := p.catalog.SubmitOrder(ctx, name, selection.ItemIDs(plan.Selected), plan.OrderBundle, plan.AOI.Geometry)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	order := &orders.Order{
		ID:             id,
		AOILabel:       plan.Label,
		Kind:           orders.KindScene,
		Window:         plan.Window,
		Status:         orders.StatusQueued,
		Bands:          string(plan.Bands),
		SearchBundle:   plan.SearchBundle,
		OrderBundle:    plan.OrderBundle,
		BatchID:        opts.BatchID,
		AOIAreaSqKm:    plan.AOI.AreaSqKm,
		ScenesFound:    plan.ScenesFound,
		ScenesSelected: len(plan.Selected),
		QuotaHectares:  plan.QuotaHectares,
	}
	if err := p.store.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("submit: order %s accepted but not recorded: %w", id, err)
	}

	p.logger.Info("scene order submitted",
		logging.String("order_id", id),
		logging.String("aoi", plan.Label),
		logging.String("window", plan.Window.String()),
		logging.Int("scenes", len(plan.Selected)),
		logging.Float64("quota_hectares", plan.QuotaHectares))
	return order, nil
}

// SubmitMosaic orders a basemap mosaic clipped to the AOI. Mosaic orders
// carry no acquisition window.
func (p *Pipeline) SubmitMosaic(ctx context.Context, area *aoi.AOI, mosaicName string) (*orders.Order, error) {
	if area == nil || area.Geometry == nil {
		return nil, errors.New("submit: aoi with geometry is required")
	}
	mosaicName = strings.TrimSpace(mosaicName)
	if mosaicName == "" {
		return nil, errors.New("submit: mosaic name is required")
	}

	id, err := p.catalog.SubmitMosaicOrder(ctx, mosaicName, area.Geometry)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	order := &orders.Order{
		ID:          id,
		AOILabel:    area.Label,
		Kind:        orders.KindMosaic,
		Status:      orders.StatusQueued,
		MosaicName:  mosaicName,
		AOIAreaSqKm: area.AreaSqKm,
	}
	if err := p.store.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("submit: order %s accepted but not recorded: %w", id, err)
	}

	p.logger.Info("mosaic order submitted",
		logging.String("order_id", id),
		logging.String("aoi", area.Label),
		logging.String("mosaic", mosaicName))
	return order, nil
}
