package orders

import (
	"strings"
	"time"

	"skyhaul/internal/daterange"
)

// Status represents the lifecycle of a fulfillment order. Values are the
// remote service's own state vocabulary, stored verbatim.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSuccess   Status = "success"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusSuccess,
	StatusPartial,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

type statusTransition struct {
	from Status
	to   Status
}

// Orders only move forward: queued may jump straight to any terminal state
// when a poll misses the running phase, partial may still complete, and
// terminal states absorb.
var allowedTransitions = func() map[statusTransition]struct{} {
	transitions := []statusTransition{
		{from: StatusQueued, to: StatusRunning},
		{from: StatusQueued, to: StatusSuccess},
		{from: StatusQueued, to: StatusPartial},
		{from: StatusQueued, to: StatusFailed},
		{from: StatusQueued, to: StatusCancelled},
		{from: StatusRunning, to: StatusSuccess},
		{from: StatusRunning, to: StatusPartial},
		{from: StatusRunning, to: StatusFailed},
		{from: StatusRunning, to: StatusCancelled},
		{from: StatusPartial, to: StatusSuccess},
	}
	set := make(map[statusTransition]struct{}, len(transitions))
	for _, t := range transitions {
		set[t] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// CanTransition reports whether an order may move from one status to
// another. Re-applying the current status is always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	_, ok := allowedTransitions[statusTransition{from: from, to: to}]
	return ok
}

// IsTerminal reports whether the order will never progress further.
// Partial is not terminal: a later poll may still report completion.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsDownloadable reports whether the order has artifacts worth fetching.
func (s Status) IsDownloadable() bool {
	return s == StatusSuccess || s == StatusPartial
}

// NeedsPoll reports whether the order should be polled again.
func (s Status) NeedsPoll() bool {
	return s == StatusQueued || s == StatusRunning
}

// Kind distinguishes scene orders from basemap mosaic orders.
type Kind string

const (
	KindScene  Kind = "scene"
	KindMosaic Kind = "mosaic"
)

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindScene:
		return KindScene, true
	case KindMosaic:
		return KindMosaic, true
	}
	return "", false
}

// Order is the durable record of a submitted fulfillment job. The ID is
// assigned by the remote service. Records are never deleted; the history
// backs dedup checks and quota accounting.
type Order struct {
	ID             string
	AOILabel       string
	Kind           Kind
	Window         daterange.Range // zero for mosaic orders
	Status         Status
	Bands          string
	SearchBundle   string
	OrderBundle    string
	MosaicName     string
	BatchID        string
	AOIAreaSqKm    float64
	ScenesFound    int
	ScenesSelected int
	QuotaHectares  float64
	ErrorHint      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BatchSummary aggregates the orders created by one batch submission.
type BatchSummary struct {
	BatchID  string
	Orders   int
	LatestAt time.Time
}

// Stats aggregates the whole order history.
type Stats struct {
	TotalOrders    int
	TotalBatches   int
	TotalAOIs      int
	ScenesSelected int
	QuotaHectares  float64
	Completed      int
	Pending        int
	Failed         int
}
