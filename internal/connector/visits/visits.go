package visits

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crimson-sun/viewmetrics/internal/connector"
	"github.com/crimson-sun/viewmetrics/internal/connector/paging"
	"github.com/crimson-sun/viewmetrics/internal/model"
)

const path = "/v1/instrumentation/content/visits"

func init() {
	connector.Register("visits", func() connector.Finder {
		return New()
	})
}

// Connector implements connector.Finder over Connect's content visit log.
type Connector struct{}

// New returns a visits Connector.
func New() *Connector {
	return &Connector{}
}

// Response types (unexported).

type visitRecord struct {
	ContentGUID string    `json:"content_guid"`
	UserGUID    string    `json:"user_guid"`
	VariantKey  *string   `json:"variant_key"`
	RenderingID *int64    `json:"rendering_id"`
	BundleID    *int64    `json:"bundle_id"`
	Time        time.Time `json:"time"`
	DataVersion int       `json:"data_version"`
	Path        string    `json:"path"`
}

func toVisitEvent(r visitRecord) model.VisitEvent {
	return model.VisitEvent{
		ContentGUID: r.ContentGUID,
		UserGUID:    r.UserGUID,
		VariantKey:  r.VariantKey,
		RenderingID: r.RenderingID,
		BundleID:    r.BundleID,
		Time:        r.Time,
		DataVersion: r.DataVersion,
		Path:        r.Path,
	}
}

func (c *Connector) Find(ctx context.Context, cfg connector.Config, params connector.QueryParams) ([]model.Event, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("visits connector: %w", err)
	}
	client, err := connector.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("visits connector: %w", err)
	}

	records, err := paging.All[visitRecord](ctx, client, path, params.Values(), connector.PageSize(cfg))
	if err != nil {
		return nil, fmt.Errorf("visits connector: %w", err)
	}

	events := make([]model.Event, len(records))
	for i, r := range records {
		events[i] = toVisitEvent(r)
	}
	slog.Debug("found visits", "count", len(events))
	return events, nil
}

func (c *Connector) FindOne(ctx context.Context, cfg connector.Config, params connector.QueryParams) (model.Event, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("visits connector: %w", err)
	}
	client, err := connector.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("visits connector: %w", err)
	}

	record, err := paging.First[visitRecord](ctx, client, path, params.Values(), connector.PageSize(cfg))
	if err != nil {
		return nil, fmt.Errorf("visits connector: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	return toVisitEvent(*record), nil
}
