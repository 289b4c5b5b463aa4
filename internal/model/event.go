package model

// Event is an upstream instrumentation record: either a VisitEvent or a
// UsageEvent. The set is closed; only this package can add variants.
type Event interface {
	sourceKind() SourceKind
}

// SourceKind names the upstream variant a ViewEvent was built from.
type SourceKind string

const (
	SourceVisit SourceKind = "visit"
	SourceUsage SourceKind = "usage"
)
