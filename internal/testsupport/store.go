package testsupport

import (
	"context"
	"testing"
	"time"

	"skyhaul/internal/config"
	"skyhaul/internal/daterange"
	"skyhaul/internal/orders"
)

// MustOpenStore opens an orders.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *orders.Store {
	t.Helper()

	store, err := orders.Open(cfg)
	if err != nil {
		t.Fatalf("orders.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SaveOrder persists an order for tests using the provided store.
func SaveOrder(t testing.TB, store *orders.Store, order *orders.Order) {
	t.Helper()

	if err := store.Save(context.Background(), order); err != nil {
		t.Fatalf("store.Save: %v", err)
	}
}

// SceneOrder builds a queued scene order with a parsed window. The caller
// adjusts fields as needed before saving.
func SceneOrder(t testing.TB, id, aoiLabel, start, end string) *orders.Order {
	t.Helper()

	window, err := daterange.Parse(start, end)
	if err != nil {
		t.Fatalf("parse window %s..%s: %v", start, end, err)
	}
	return &orders.Order{
		ID:       id,
		AOILabel: aoiLabel,
		Kind:     orders.KindScene,
		Window:   window,
		Status:   orders.StatusQueued,
	}
}

// MustParseDate parses a calendar date or fails the test.
func MustParseDate(t testing.TB, value string) time.Time {
	t.Helper()

	parsed, err := daterange.ParseDate(value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return parsed
}
