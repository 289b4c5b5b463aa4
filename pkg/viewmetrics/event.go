package viewmetrics

import (
	"time"

	"github.com/crimson-sun/viewmetrics/internal/connector"
	"github.com/crimson-sun/viewmetrics/internal/model"
)

// ViewEvent is one view of a piece of content, from either a visit or an
// application session. This is the stable public type; internal
// representations may change without breaking consumers.
//
// Fields the originating record does not carry are nil.
type ViewEvent struct {
	Source      string    `json:"source"` // "visit" or "usage"
	ContentGUID string    `json:"content_guid"`
	UserGUID    string    `json:"user_guid"`
	VariantKey  *string   `json:"variant_key"`  // visits to parameterized reports only
	RenderingID *int64    `json:"rendering_id"` // visits to rendered content only
	BundleID    *int64    `json:"bundle_id"`    // visits only
	Started     time.Time `json:"started"`
	Ended       time.Time `json:"ended"` // equals Started for visits
	DataVersion int       `json:"data_version"`
	Path        *string   `json:"path"` // visits only
}

// Filter narrows a search. The zero Filter matches everything.
type Filter struct {
	ContentGUID    string
	MinDataVersion *int
	Start          time.Time
	End            time.Time
}

func (f Filter) params() connector.QueryParams {
	return connector.QueryParams{
		ContentGUID:    f.ContentGUID,
		MinDataVersion: f.MinDataVersion,
		Start:          f.Start,
		End:            f.End,
	}
}

func viewFromInternal(e model.ViewEvent) ViewEvent {
	return ViewEvent{
		Source:      string(e.Source),
		ContentGUID: e.ContentGUID,
		UserGUID:    e.UserGUID,
		VariantKey:  e.VariantKey,
		RenderingID: e.RenderingID,
		BundleID:    e.BundleID,
		Started:     e.Started,
		Ended:       e.Ended,
		DataVersion: e.DataVersion,
		Path:        e.Path,
	}
}
