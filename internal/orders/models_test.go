package orders_test

import (
	"testing"

	"skyhaul/internal/orders"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		name string
		from orders.Status
		to   orders.Status
		want bool
	}{
		{"queued to running", orders.StatusQueued, orders.StatusRunning, true},
		{"queued straight to success", orders.StatusQueued, orders.StatusSuccess, true},
		{"queued straight to partial", orders.StatusQueued, orders.StatusPartial, true},
		{"queued to failed", orders.StatusQueued, orders.StatusFailed, true},
		{"queued to cancelled", orders.StatusQueued, orders.StatusCancelled, true},
		{"running to success", orders.StatusRunning, orders.StatusSuccess, true},
		{"running to partial", orders.StatusRunning, orders.StatusPartial, true},
		{"running back to queued", orders.StatusRunning, orders.StatusQueued, false},
		{"partial completes", orders.StatusPartial, orders.StatusSuccess, true},
		{"partial cannot fail", orders.StatusPartial, orders.StatusFailed, false},
		{"success is absorbing", orders.StatusSuccess, orders.StatusRunning, false},
		{"failed is absorbing", orders.StatusFailed, orders.StatusQueued, false},
		{"cancelled is absorbing", orders.StatusCancelled, orders.StatusSuccess, false},
		{"self transition allowed", orders.StatusRunning, orders.StatusRunning, true},
		{"unknown source", orders.Status("bogus"), orders.StatusSuccess, false},
		{"unknown target", orders.StatusQueued, orders.Status("bogus"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := orders.CanTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	cases := []struct {
		status       orders.Status
		terminal     bool
		downloadable bool
		needsPoll    bool
	}{
		{orders.StatusQueued, false, false, true},
		{orders.StatusRunning, false, false, true},
		{orders.StatusSuccess, true, true, false},
		{orders.StatusPartial, false, true, false},
		{orders.StatusFailed, true, false, false},
		{orders.StatusCancelled, true, false, false},
	}

	for _, tc := range cases {
		if got := tc.status.IsTerminal(); got != tc.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", tc.status, got, tc.terminal)
		}
		if got := tc.status.IsDownloadable(); got != tc.downloadable {
			t.Errorf("%s.IsDownloadable() = %v, want %v", tc.status, got, tc.downloadable)
		}
		if got := tc.status.NeedsPoll(); got != tc.needsPoll {
			t.Errorf("%s.NeedsPoll() = %v, want %v", tc.status, got, tc.needsPoll)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, status := range orders.AllStatuses() {
		parsed, ok := orders.ParseStatus(string(status))
		if !ok || parsed != status {
			t.Fatalf("ParseStatus(%q) = %v, %v", status, parsed, ok)
		}
	}

	if _, ok := orders.ParseStatus("done"); ok {
		t.Fatal("expected ParseStatus to reject unknown status")
	}
	if _, ok := orders.ParseStatus(""); ok {
		t.Fatal("expected ParseStatus to reject empty status")
	}
}

func TestParseKind(t *testing.T) {
	if kind, ok := orders.ParseKind("scene"); !ok || kind != orders.KindScene {
		t.Fatalf("ParseKind(scene) = %v, %v", kind, ok)
	}
	if kind, ok := orders.ParseKind("mosaic"); !ok || kind != orders.KindMosaic {
		t.Fatalf("ParseKind(mosaic) = %v, %v", kind, ok)
	}
	if _, ok := orders.ParseKind("basemap"); ok {
		t.Fatal("expected ParseKind to reject unknown kind")
	}
}
