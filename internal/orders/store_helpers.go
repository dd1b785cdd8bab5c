package orders

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"skyhaul/internal/daterange"
)

// orderColumns is the canonical column list for scanning orders. Keep in sync
// with scanOrder.
const orderColumns = `id, aoi_label, kind, start_date, end_date, status, bands,
	search_bundle, order_bundle, mosaic_name, batch_id, aoi_area_sqkm,
	scenes_found, scenes_selected, quota_hectares, error_hint, created_at, updated_at`

// scanOrder scans a database row into an Order. Works with both *sql.Row and
// *sql.Rows via the scanner interface.
func scanOrder(scanner interface{ Scan(dest ...any) error }) (*Order, error) {
	var (
		order              Order
		kind, status       string
		startRaw, endRaw   sql.NullString
		bands              sql.NullString
		searchBundle       sql.NullString
		orderBundle        sql.NullString
		mosaicName         sql.NullString
		batchID            sql.NullString
		errorHint          sql.NullString
		createdAt, updated string
	)

	err := scanner.Scan(
		&order.ID,
		&order.AOILabel,
		&kind,
		&startRaw,
		&endRaw,
		&status,
		&bands,
		&searchBundle,
		&orderBundle,
		&mosaicName,
		&batchID,
		&order.AOIAreaSqKm,
		&order.ScenesFound,
		&order.ScenesSelected,
		&order.QuotaHectares,
		&errorHint,
		&createdAt,
		&updated,
	)
	if err != nil {
		return nil, err
	}

	order.Kind = Kind(kind)
	order.Status = Status(status)
	order.Bands = bands.String
	order.SearchBundle = searchBundle.String
	order.OrderBundle = orderBundle.String
	order.MosaicName = mosaicName.String
	order.BatchID = batchID.String
	order.ErrorHint = errorHint.String

	if startRaw.Valid && endRaw.Valid {
		start, err := daterange.ParseDate(startRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse start_date: %w", err)
		}
		end, err := daterange.ParseDate(endRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse end_date: %w", err)
		}
		order.Window = daterange.Range{Start: start, End: end}
	}

	order.CreatedAt, err = parseTimeString(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	order.UpdatedAt, err = parseTimeString(updated)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &order, nil
}

// nullableString converts an empty string to a NULL-able value for storage.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableDate converts a zero time to NULL, otherwise stores the date
// portion only. Mosaic orders have no acquisition window.
func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return daterange.FormatDate(t)
}

// parseTimeString parses a time stored as text, accepting both RFC 3339 and
// the space-separated form SQLite produces.
func parseTimeString(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// makePlaceholders returns a comma-separated list of n SQL placeholders.
func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
