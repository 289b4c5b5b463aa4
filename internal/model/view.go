package model

import (
	"errors"
	"fmt"
	"time"
)

// ViewEvent is the normalized form of a VisitEvent or a UsageEvent.
// Fields the source variant does not carry are nil.
type ViewEvent struct {
	Source      SourceKind
	ContentGUID string
	UserGUID    string
	VariantKey  *string
	RenderingID *int64
	BundleID    *int64
	Started     time.Time
	Ended       time.Time // equal to Started for visits
	DataVersion int
	Path        *string
}

// ErrUnsupportedEvent is matched by every *UnsupportedEventError.
var ErrUnsupportedEvent = errors.New("unsupported event type")

// UnsupportedEventError reports a value that is neither a VisitEvent nor a UsageEvent.
type UnsupportedEventError struct {
	Type string
}

func (e *UnsupportedEventError) Error() string {
	return fmt.Sprintf("unsupported event type %s", e.Type)
}

func (e *UnsupportedEventError) Is(target error) bool {
	return target == ErrUnsupportedEvent
}

// FromEvent normalizes a visit or usage record.
func FromEvent(e Event) (ViewEvent, error) {
	switch ev := e.(type) {
	case VisitEvent:
		return FromVisit(ev), nil
	case UsageEvent:
		return FromUsage(ev), nil
	default:
		return ViewEvent{}, &UnsupportedEventError{Type: fmt.Sprintf("%T", e)}
	}
}

// FromVisit collapses the visit timestamp into Started and Ended.
func FromVisit(v VisitEvent) ViewEvent {
	path := v.Path
	return ViewEvent{
		Source:      SourceVisit,
		ContentGUID: v.ContentGUID,
		UserGUID:    v.UserGUID,
		VariantKey:  v.VariantKey,
		RenderingID: v.RenderingID,
		BundleID:    v.BundleID,
		Started:     v.Time,
		Ended:       v.Time,
		DataVersion: v.DataVersion,
		Path:        &path,
	}
}

func FromUsage(u UsageEvent) ViewEvent {
	return ViewEvent{
		Source:      SourceUsage,
		ContentGUID: u.ContentGUID,
		UserGUID:    u.UserGUID,
		Started:     u.Started,
		Ended:       u.Ended,
		DataVersion: u.DataVersion,
	}
}
