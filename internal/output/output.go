package output

import (
	"context"

	"github.com/crimson-sun/viewmetrics/internal/model"
)

// Output defines the interface for view event destinations.
type Output interface {
	Write(ctx context.Context, event model.ViewEvent) error
	Close() error
}
