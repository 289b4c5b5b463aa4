// Package views combines the visit and usage sources into a single search
// over normalized view events.
package views

import (
	"context"
	"log/slog"

	"github.com/crimson-sun/viewmetrics/internal/connector"
	"github.com/crimson-sun/viewmetrics/internal/connector/usage"
	"github.com/crimson-sun/viewmetrics/internal/connector/visits"
	"github.com/crimson-sun/viewmetrics/internal/model"
)

// Finder queries its sources one after another, in the order given, and
// normalizes every result to a model.ViewEvent.
type Finder struct {
	sources []connector.Finder
}

// New creates a Finder over the given sources. Order is significant.
func New(sources ...connector.Finder) *Finder {
	return &Finder{sources: sources}
}

// Default returns a Finder over visits followed by usage.
func Default() *Finder {
	return New(visits.New(), usage.New())
}

// Find returns the matches of every source, concatenated in source order.
// Results are neither re-sorted nor deduplicated. The first source error
// stops the scan and is returned unchanged.
func (f *Finder) Find(ctx context.Context, cfg connector.Config, params connector.QueryParams) ([]model.ViewEvent, error) {
	var views []model.ViewEvent
	for i, src := range f.sources {
		events, err := src.Find(ctx, cfg, params)
		if err != nil {
			return nil, err
		}
		for _, ev := range events {
			view, err := model.FromEvent(ev)
			if err != nil {
				return nil, err
			}
			views = append(views, view)
		}
		slog.Debug("views source done", "source", i, "events", len(events))
	}
	return views, nil
}

// FindOne returns the first match of the first source that has one; later
// sources are not queried. Returns nil when no source matches.
func (f *Finder) FindOne(ctx context.Context, cfg connector.Config, params connector.QueryParams) (*model.ViewEvent, error) {
	for _, src := range f.sources {
		ev, err := src.FindOne(ctx, cfg, params)
		if err != nil {
			return nil, err
		}
		if ev == nil {
			continue
		}
		view, err := model.FromEvent(ev)
		if err != nil {
			return nil, err
		}
		return &view, nil
	}
	return nil, nil
}
