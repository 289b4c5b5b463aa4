package model

import "time"

// VisitEvent is a single page view of rendered or static content.
type VisitEvent struct {
	ContentGUID string
	UserGUID    string
	VariantKey  *string // nil for static content
	RenderingID *int64  // nil for static content
	BundleID    *int64
	Time        time.Time
	DataVersion int
	Path        string
}

func (VisitEvent) sourceKind() SourceKind { return SourceVisit }
