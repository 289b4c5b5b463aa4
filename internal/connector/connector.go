package connector

import (
	"context"
	"strings"

	"github.com/crimson-sun/viewmetrics/internal/model"
)

// Finder defines the interface every instrumentation source must implement.
type Finder interface {
	// Find fetches every record matching the given parameters, in server order.
	Find(ctx context.Context, cfg Config, params QueryParams) ([]model.Event, error)

	// FindOne fetches the first matching record, or nil when nothing matches.
	FindOne(ctx context.Context, cfg Config, params QueryParams) (model.Event, error)
}

// Config holds the connection settings shared by all sources.
type Config struct {
	Endpoint string // Connect server URL, with or without the /__api__ suffix
	APIKey   string
	Extra    map[string]string
}

const apiSuffix = "/__api__"

// APIBaseURL returns the API root for a Connect server URL.
func APIBaseURL(endpoint string) string {
	u := strings.TrimRight(endpoint, "/")
	if strings.HasSuffix(u, apiSuffix) {
		return u
	}
	return u + apiSuffix
}
