package viewmetrics

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/samber/lo"

	"github.com/crimson-sun/viewmetrics/internal/connector"
	"github.com/crimson-sun/viewmetrics/internal/connector/httpclient"
	"github.com/crimson-sun/viewmetrics/internal/connector/paging"
	"github.com/crimson-sun/viewmetrics/internal/connector/usage"
	"github.com/crimson-sun/viewmetrics/internal/connector/views"
	"github.com/crimson-sun/viewmetrics/internal/connector/visits"
	"github.com/crimson-sun/viewmetrics/internal/model"
)

// APIError is returned when Connect answers with a non-2xx status.
// Use errors.As to inspect it.
type APIError = httpclient.APIError

// ErrUnsupportedEvent reports an upstream record that is neither a visit
// nor a usage session.
var ErrUnsupportedEvent = model.ErrUnsupportedEvent

// Client queries a single Connect server.
type Client struct {
	cfg    connector.Config
	all    *views.Finder
	visits *views.Finder
	usage  *views.Finder
}

// New creates a Client for the Connect server at server (with or without
// the /__api__ suffix), authenticating with apiKey.
func New(server, apiKey string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if apiKey == "" {
		return nil, errors.New("viewmetrics: api key is required")
	}
	u, err := url.Parse(server)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("viewmetrics: invalid server URL %q", server)
	}
	if o.pageSize < 0 || o.pageSize > paging.MaxPageSize {
		return nil, fmt.Errorf("viewmetrics: page size must be between 1 and %d, got %d", paging.MaxPageSize, o.pageSize)
	}
	if o.rateLimit < 0 {
		return nil, fmt.Errorf("viewmetrics: rate limit must be >= 0, got %g", o.rateLimit)
	}

	cfg := connector.Config{
		Endpoint: server,
		APIKey:   apiKey,
		Extra: map[string]string{
			connector.ExtraTimeout:   o.timeout.String(),
			connector.ExtraUserAgent: o.userAgent,
		},
	}
	if o.rateLimit > 0 {
		cfg.Extra[connector.ExtraRateLimit] = strconv.FormatFloat(o.rateLimit, 'f', -1, 64)
	}
	if o.pageSize > 0 {
		cfg.Extra[connector.ExtraPageSize] = strconv.Itoa(o.pageSize)
	}
	if _, err := connector.NewClient(cfg); err != nil {
		return nil, fmt.Errorf("viewmetrics: %w", err)
	}

	return &Client{
		cfg:    cfg,
		all:    views.Default(),
		visits: views.New(visits.New()),
		usage:  views.New(usage.New()),
	}, nil
}

// Find returns every visit matching f followed by every usage session
// matching f. Results keep server order and are not deduplicated.
func (c *Client) Find(ctx context.Context, f Filter) ([]ViewEvent, error) {
	return find(ctx, c.all, c.cfg, f)
}

// FindOne returns the first matching view, preferring visits. Usage is only
// queried when no visit matches. Returns nil, nil when nothing matches.
func (c *Client) FindOne(ctx context.Context, f Filter) (*ViewEvent, error) {
	ev, err := c.all.FindOne(ctx, c.cfg, f.params())
	if err != nil || ev == nil {
		return nil, err
	}
	v := viewFromInternal(*ev)
	return &v, nil
}

// FindVisits returns matching visits only.
func (c *Client) FindVisits(ctx context.Context, f Filter) ([]ViewEvent, error) {
	return find(ctx, c.visits, c.cfg, f)
}

// FindUsage returns matching application sessions only.
func (c *Client) FindUsage(ctx context.Context, f Filter) ([]ViewEvent, error) {
	return find(ctx, c.usage, c.cfg, f)
}

func find(ctx context.Context, finder *views.Finder, cfg connector.Config, f Filter) ([]ViewEvent, error) {
	events, err := finder.Find(ctx, cfg, f.params())
	if err != nil {
		return nil, err
	}
	return lo.Map(events, func(e model.ViewEvent, _ int) ViewEvent {
		return viewFromInternal(e)
	}), nil
}
