package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"skyhaul/internal/config"
	"skyhaul/internal/daterange"
)

// Store persists orders in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the order database at the configured path.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	store := &Store{db: db, path: cfg.Storage.DatabasePath}
	if err := store.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save inserts the order, or updates it if an order with the same ID already
// exists. Updates keep the original created_at.
func (s *Store) Save(ctx context.Context, order *Order) error {
	if order.ID == "" {
		return errors.New("order ID is required")
	}

	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, aoi_label, kind, start_date, end_date, status, bands,
			search_bundle, order_bundle, mosaic_name, batch_id, aoi_area_sqkm,
			scenes_found, scenes_selected, quota_hectares, error_hint,
			created_at, updated_at
		) VALUES (`+makePlaceholders(18)+`)
		ON CONFLICT(id) DO UPDATE SET
			aoi_label = excluded.aoi_label,
			kind = excluded.kind,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status,
			bands = excluded.bands,
			search_bundle = excluded.search_bundle,
			order_bundle = excluded.order_bundle,
			mosaic_name = excluded.mosaic_name,
			batch_id = excluded.batch_id,
			aoi_area_sqkm = excluded.aoi_area_sqkm,
			scenes_found = excluded.scenes_found,
			scenes_selected = excluded.scenes_selected,
			quota_hectares = excluded.quota_hectares,
			error_hint = excluded.error_hint,
			updated_at = excluded.updated_at`,
		order.ID,
		order.AOILabel,
		string(order.Kind),
		nullableDate(order.Window.Start),
		nullableDate(order.Window.End),
		string(order.Status),
		nullableString(order.Bands),
		nullableString(order.SearchBundle),
		nullableString(order.OrderBundle),
		nullableString(order.MosaicName),
		nullableString(order.BatchID),
		order.AOIAreaSqKm,
		order.ScenesFound,
		order.ScenesSelected,
		order.QuotaHectares,
		nullableString(order.ErrorHint),
		order.CreatedAt.Format(time.RFC3339Nano),
		order.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save order %s: %w", order.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Get returns the order with the given ID, or nil if it doesn't exist.
func (s *Store) Get(ctx context.Context, id string) (*Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)

	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

// FindByWindow returns the most recent order for the AOI and acquisition
// window, or nil if none exists. Orders without a window never match, so a
// mosaic submission is never deduplicated against a scene one. Pass an empty
// kind to match any kind.
func (s *Store) FindByWindow(ctx context.Context, aoiLabel string, window daterange.Range, kind Kind) (*Order, error) {
	if window.IsZero() {
		return nil, nil
	}

	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE aoi_label = ? AND start_date = ? AND end_date = ?`
	args := []any{aoiLabel, daterange.FormatDate(window.Start), daterange.FormatDate(window.End)}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, args...)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order for %s %s: %w", aoiLabel, window, err)
	}
	return order, nil
}

// HasCompleted reports whether a successful order already exists for the AOI
// and window.
func (s *Store) HasCompleted(ctx context.Context, aoiLabel string, window daterange.Range) (bool, error) {
	if window.IsZero() {
		return false, nil
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM orders
		WHERE aoi_label = ? AND start_date = ? AND end_date = ? AND status = ?`,
		aoiLabel, daterange.FormatDate(window.Start), daterange.FormatDate(window.End),
		string(StatusSuccess),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check completed for %s %s: %w", aoiLabel, window, err)
	}
	return count > 0, nil
}

// ListPending returns orders still awaiting a terminal state, oldest first.
func (s *Store) ListPending(ctx context.Context) ([]*Order, error) {
	return s.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		WHERE status IN (?, ?) ORDER BY created_at ASC`,
		string(StatusQueued), string(StatusRunning))
}

// ListByBatch returns all orders in a batch, oldest first.
func (s *Store) ListByBatch(ctx context.Context, batchID string) ([]*Order, error) {
	return s.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		WHERE batch_id = ? ORDER BY created_at ASC`, batchID)
}

// ListByAOI returns all orders for an AOI, newest first.
func (s *Store) ListByAOI(ctx context.Context, aoiLabel string) ([]*Order, error) {
	return s.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		WHERE aoi_label = ? ORDER BY created_at DESC`, aoiLabel)
}

// ListByStatus returns all orders in the given status, newest first.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]*Order, error) {
	return s.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		WHERE status = ? ORDER BY created_at DESC`, string(status))
}

// List returns all orders, newest first. When statuses are given, only
// orders in one of those statuses are returned.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Order, error) {
	if len(statuses) == 0 {
		return s.queryOrders(ctx,
			`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	}

	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = string(status)
	}
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE status IN (` + makePlaceholders(len(statuses)) + `) ORDER BY created_at DESC`
	return s.queryOrders(ctx, query, args...)
}

// ListBatches returns a summary per batch, most recently active first.
// Orders submitted outside a batch are not included.
func (s *Store) ListBatches(ctx context.Context) ([]BatchSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT batch_id, COUNT(1), MAX(created_at) FROM orders
		WHERE batch_id IS NOT NULL
		GROUP BY batch_id ORDER BY MAX(created_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var summaries []BatchSummary
	for rows.Next() {
		var (
			summary BatchSummary
			latest  string
		)
		if err := rows.Scan(&summary.BatchID, &summary.Orders, &latest); err != nil {
			return nil, fmt.Errorf("scan batch summary: %w", err)
		}
		if summary.LatestAt, err = parseTimeString(latest); err != nil {
			return nil, fmt.Errorf("parse batch timestamp: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return summaries, nil
}

// UpdateStatus moves an order to a new status, recording an optional error
// hint. Transitions not allowed by the status model are rejected with
// ErrInvalidTransition. Returns the updated order.
func (s *Store) UpdateStatus(ctx context.Context, id string, next Status, hint string) (*Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read status for %s: %w", id, err)
	}

	if !CanTransition(Status(current), next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = ?, error_hint = ?, updated_at = ? WHERE id = ?`,
		string(next), nullableString(hint), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return nil, fmt.Errorf("update status for %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit status update: %w", err)
	}

	return s.Get(ctx, id)
}

// Stats returns aggregate counts across all orders.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(1),
			COUNT(DISTINCT batch_id),
			COUNT(DISTINCT aoi_label),
			COALESCE(SUM(scenes_selected), 0),
			COALESCE(SUM(quota_hectares), 0),
			COALESCE(SUM(CASE WHEN status IN (?, ?) THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status IN (?, ?) THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status IN (?, ?) THEN 1 ELSE 0 END), 0)
		FROM orders`,
		string(StatusSuccess), string(StatusPartial),
		string(StatusQueued), string(StatusRunning),
		string(StatusFailed), string(StatusCancelled),
	).Scan(
		&stats.TotalOrders,
		&stats.TotalBatches,
		&stats.TotalAOIs,
		&stats.ScenesSelected,
		&stats.QuotaHectares,
		&stats.Completed,
		&stats.Pending,
		&stats.Failed,
	)
	if err != nil {
		return nil, fmt.Errorf("compute stats: %w", err)
	}
	return &stats, nil
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]*Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}
