package output

import (
	"time"

	"github.com/crimson-sun/viewmetrics/internal/model"
)

// Record is the JSON wire form of a view event. Optional fields have no
// omitempty: an absent value is written as an explicit null.
type Record struct {
	Source      string    `json:"source"`
	ContentGUID string    `json:"content_guid"`
	UserGUID    string    `json:"user_guid"`
	VariantKey  *string   `json:"variant_key"`
	RenderingID *int64    `json:"rendering_id"`
	BundleID    *int64    `json:"bundle_id"`
	Started     time.Time `json:"started"`
	Ended       time.Time `json:"ended"`
	DataVersion int       `json:"data_version"`
	Path        *string   `json:"path"`
}

// NewRecord converts a view event to its wire form. Timestamps are
// normalized to UTC.
func NewRecord(e model.ViewEvent) Record {
	return Record{
		Source:      string(e.Source),
		ContentGUID: e.ContentGUID,
		UserGUID:    e.UserGUID,
		VariantKey:  e.VariantKey,
		RenderingID: e.RenderingID,
		BundleID:    e.BundleID,
		Started:     e.Started.UTC(),
		Ended:       e.Ended.UTC(),
		DataVersion: e.DataVersion,
		Path:        e.Path,
	}
}
