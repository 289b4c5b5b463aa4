package pipeline

import (
	"context"
	"fmt"

	"github.com/crimson-sun/viewmetrics/internal/connector"
	"github.com/crimson-sun/viewmetrics/internal/model"
	"github.com/crimson-sun/viewmetrics/internal/output"
)

// Finder yields normalized view events. *views.Finder implements it.
type Finder interface {
	Find(ctx context.Context, cfg connector.Config, params connector.QueryParams) ([]model.ViewEvent, error)
	FindOne(ctx context.Context, cfg connector.Config, params connector.QueryParams) (*model.ViewEvent, error)
}

// Pipeline connects a finder to an output.
type Pipeline struct {
	finder Finder
	output output.Output
}

// New creates a Pipeline from the given components.
func New(finder Finder, out output.Output) *Pipeline {
	return &Pipeline{finder: finder, output: out}
}

// Query writes every matching view event, in the order the finder returned
// them, and reports how many were written.
func (p *Pipeline) Query(ctx context.Context, cfg connector.Config, params connector.QueryParams) (int, error) {
	events, err := p.finder.Find(ctx, cfg, params)
	if err != nil {
		return 0, fmt.Errorf("pipeline query: %w", err)
	}
	for i, event := range events {
		if err := p.output.Write(ctx, event); err != nil {
			return i, fmt.Errorf("pipeline output: %w", err)
		}
	}
	return len(events), nil
}

// QueryOne writes the first matching view event, if any.
func (p *Pipeline) QueryOne(ctx context.Context, cfg connector.Config, params connector.QueryParams) (int, error) {
	event, err := p.finder.FindOne(ctx, cfg, params)
	if err != nil {
		return 0, fmt.Errorf("pipeline query one: %w", err)
	}
	if event == nil {
		return 0, nil
	}
	if err := p.output.Write(ctx, *event); err != nil {
		return 0, fmt.Errorf("pipeline output: %w", err)
	}
	return 1, nil
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}
