package usage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crimson-sun/viewmetrics/internal/connector"
	"github.com/crimson-sun/viewmetrics/internal/connector/paging"
	"github.com/crimson-sun/viewmetrics/internal/model"
)

const path = "/v1/instrumentation/shiny/usage"

func init() {
	connector.Register("usage", func() connector.Finder {
		return New()
	})
}

// Connector implements connector.Finder over Connect's application usage log.
type Connector struct{}

// New returns a usage Connector.
func New() *Connector {
	return &Connector{}
}

type usageRecord struct {
	ContentGUID string    `json:"content_guid"`
	UserGUID    string    `json:"user_guid"`
	Started     time.Time `json:"started"`
	Ended       time.Time `json:"ended"`
	DataVersion int       `json:"data_version"`
}

func toUsageEvent(r usageRecord) model.UsageEvent {
	return model.UsageEvent{
		ContentGUID: r.ContentGUID,
		UserGUID:    r.UserGUID,
		Started:     r.Started,
		Ended:       r.Ended,
		DataVersion: r.DataVersion,
	}
}

func (c *Connector) Find(ctx context.Context, cfg connector.Config, params connector.QueryParams) ([]model.Event, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("usage connector: %w", err)
	}
	client, err := connector.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("usage connector: %w", err)
	}

	records, err := paging.All[usageRecord](ctx, client, path, params.Values(), connector.PageSize(cfg))
	if err != nil {
		return nil, fmt.Errorf("usage connector: %w", err)
	}

	events := make([]model.Event, len(records))
	for i, r := range records {
		events[i] = toUsageEvent(r)
	}
	slog.Debug("found usage", "count", len(events))
	return events, nil
}

func (c *Connector) FindOne(ctx context.Context, cfg connector.Config, params connector.QueryParams) (model.Event, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("usage connector: %w", err)
	}
	client, err := connector.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("usage connector: %w", err)
	}

	record, err := paging.First[usageRecord](ctx, client, path, params.Values(), connector.PageSize(cfg))
	if err != nil {
		return nil, fmt.Errorf("usage connector: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	return toUsageEvent(*record), nil
}
