package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"skyhaul/internal/artifacts"
	"skyhaul/internal/catalog"
	"skyhaul/internal/logging"
	"skyhaul/internal/orders"
	"skyhaul/internal/transfer"
)

// Poll fetches the remote state of a stored order and persists it. Remote
// states the lifecycle table rejects are logged and skipped so a stale poll
// can never roll an order backwards. Unknown state vocabulary leaves the
// record untouched.
func (p *Pipeline) Poll(ctx context.Context, order *orders.Order) (*orders.Order, *catalog.OrderStatus, error) {
	if order == nil {
		return nil, nil, errors.New("poll: order is required")
	}
	status, err := p.catalog.OrderStatus(ctx, order.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("poll %s: %w", order.ID, err)
	}

	next, ok := orders.ParseStatus(status.State)
	if !ok {
		p.logger.Warn("unknown remote order state",
			logging.String("order_id", order.ID),
			logging.String("state", status.State))
		return order, status, nil
	}

	hint := ""
	if next == orders.StatusFailed {
		hint = strings.Join(status.ErrorHints, ", ")
	}

	updated, err := p.store.UpdateStatus(ctx, order.ID, next, hint)
	if err != nil {
		if errors.Is(err, orders.ErrInvalidTransition) {
			p.logger.Warn("remote state behind stored order, keeping local status",
				logging.String("order_id", order.ID),
				logging.String("stored", string(order.Status)),
				logging.String("remote", string(next)))
			return order, status, nil
		}
		return nil, nil, fmt.Errorf("poll %s: %w", order.ID, err)
	}

	p.logger.Debug("order polled",
		logging.String("order_id", order.ID),
		logging.String("status", string(updated.Status)))
	return updated, status, nil
}

// DownloadOptions directs where delivered artifacts land.
type DownloadOptions struct {
	// Dest receives the files. Required for downloads.
	Dest transfer.Destination
	// Overwrite re-fetches keys that already exist at the destination.
	Overwrite bool
	// OnResult observes each file result as it completes. Only the
	// parallel pool reports per-file progress.
	OnResult func(transfer.Result)
}

// DownloadReport summarizes one order's delivery.
type DownloadReport struct {
	Plan    artifacts.Plan
	Results []transfer.Result
	Summary transfer.Summary
}

// Download plans the order's artifacts and moves them to the destination.
// Scene orders are thinned to one image per week and renamed; mosaic orders
// keep their quad names. The bulk fast path runs first when it is enabled
// and the destination has an S3 address, with the parallel pool as
// fallback. An order with nothing to deliver reports an empty summary.
func (p *Pipeline) Download(ctx context.Context, order *orders.Order, status *catalog.OrderStatus, opts DownloadOptions) (*DownloadReport, error) {
	if order == nil || status == nil {
		return nil, errors.New("download: order and status are required")
	}
	if opts.Dest == nil {
		return nil, errors.New("download: destination is required")
	}

	var plan artifacts.Plan
	if order.Kind == orders.KindMosaic {
		plan = artifacts.PlanMosaic(status.Links.Results, order.AOILabel, order.MosaicName)
	} else {
		plan = artifacts.PlanScenes(status.Links.Results, order.AOILabel, order.Bands)
	}
	for _, name := range plan.Unparsed {
		p.logger.Warn("could not extract acquisition date",
			logging.String("order_id", order.ID),
			logging.String("file", name))
	}

	if len(plan.Items) == 0 {
		p.logger.Info("order has no files to deliver", logging.String("order_id", order.ID))
		return &DownloadReport{Plan: plan}, nil
	}

	tasks := make([]transfer.Task, len(plan.Items))
	for i, item := range plan.Items {
		tasks[i] = transfer.Task{URL: item.URL, Key: item.Key}
	}

	p.logger.Info("downloading order artifacts",
		logging.String("order_id", order.ID),
		logging.Int("files", len(tasks)),
		logging.String("destination", opts.Dest.Describe("")))

	results := transfer.FirstAvailable(ctx, p.logger, tasks, opts.Dest, p.transfers(opts)...)
	return &DownloadReport{
		Plan:    plan,
		Results: results,
		Summary: transfer.Summarize(results),
	}, nil
}

// transfers builds the delivery chain. The fast path only joins it when the
// destination can be addressed by the bulk tool.
func (p *Pipeline) transfers(opts DownloadOptions) []transfer.BulkTransfer {
	var chain []transfer.BulkTransfer
	if p.cfg.FastPath.Enabled {
		if _, ok := opts.Dest.(transfer.S3Addressable); ok {
			chain = append(chain, &transfer.S5cmd{
				Binary:  p.cfg.FastPath.Binary,
				Workers: p.cfg.FastPath.Workers,
				Timeout: time.Duration(p.cfg.FastPath.TimeoutSeconds) * time.Second,
				Logger:  p.logger,
			})
		}
	}
	chain = append(chain, &transfer.PoolTransfer{
		Pool: &transfer.Pool{
			Concurrency: p.cfg.Downloads.Concurrency,
			Timeout:     time.Duration(p.cfg.Downloads.TimeoutSeconds) * time.Second,
			Logger:      p.logger,
			OnResult:    opts.OnResult,
		},
		Overwrite: opts.Overwrite,
	})
	return chain
}

// CheckOptions adjusts a status check. Leaving the download destination
// unset turns the check into a status-only poll.
type CheckOptions struct {
	Download DownloadOptions
}

// CheckReport is the outcome of one order status check.
type CheckReport struct {
	// Order is the stored record, updated by the poll. Nil when the order
	// is unknown to the local database.
	Order  *orders.Order
	Status *catalog.OrderStatus
	// State is the remote state mapped onto the lifecycle, empty when the
	// service reported vocabulary this version does not know.
	State orders.Status
	// Hints carries the remote failure explanations for failed orders.
	Hints []string
	// Download is set when artifacts were fetched.
	Download *DownloadReport
}

// CheckOrder polls one order and, when it is downloadable and a destination
// is configured, delivers its artifacts. Orders missing from the local
// database are still checked against the service; their files are filed
// under the UnknownAOI label.
func (p *Pipeline) CheckOrder(ctx context.Context, id string, opts CheckOptions) (*CheckReport, error) {
	order, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", id, err)
	}

	var status *catalog.OrderStatus
	if order != nil {
		order, status, err = p.Poll(ctx, order)
		if err != nil {
			return nil, err
		}
	} else {
		p.logger.Warn("order not in local database, checking the service directly",
			logging.String("order_id", id))
		status, err = p.catalog.OrderStatus(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", id, err)
		}
	}

	report := &CheckReport{Order: order, Status: status}
	state, ok := orders.ParseStatus(status.State)
	if !ok {
		return report, nil
	}
	report.State = state
	if state == orders.StatusFailed {
		report.Hints = status.ErrorHints
	}

	if !state.IsDownloadable() || opts.Download.Dest == nil {
		return report, nil
	}
	if len(status.Links.Results) == 0 {
		return report, nil
	}

	target := order
	if target == nil {
		target = placeholderOrder(id, status)
	}
	download, err := p.Download(ctx, target, status, opts.Download)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", id, err)
	}
	report.Download = download
	return report, nil
}

// placeholderOrder stands in for records the database never saw so their
// files still land somewhere predictable.
func placeholderOrder(id string, status *catalog.OrderStatus) *orders.Order {
	order := &orders.Order{ID: id, AOILabel: "UnknownAOI", Kind: orders.KindScene}
	if status.SourceType == "basemaps" {
		order.Kind = orders.KindMosaic
		order.MosaicName = "unknown_mosaic"
	}
	return order
}
