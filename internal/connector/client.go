package connector

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/crimson-sun/viewmetrics/internal/connector/httpclient"
	"github.com/crimson-sun/viewmetrics/internal/connector/paging"
)

// Keys recognised in Config.Extra.
const (
	ExtraPageSize  = "page_size"
	ExtraRateLimit = "rate_limit" // requests per second
	ExtraTimeout   = "timeout"    // Go duration string
	ExtraUserAgent = "user_agent"
)

// NewClient builds an API client from cfg.
func NewClient(cfg Config) (*httpclient.Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("missing endpoint")
	}

	var opts []httpclient.Option
	if raw := cfg.Extra[ExtraTimeout]; raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid %s %q", ExtraTimeout, raw)
		}
		opts = append(opts, httpclient.WithTimeout(d))
	}
	if raw := cfg.Extra[ExtraRateLimit]; raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps <= 0 {
			return nil, fmt.Errorf("invalid %s %q", ExtraRateLimit, raw)
		}
		opts = append(opts, httpclient.WithRateLimit(rate.Limit(rps), max(1, int(rps))))
	}
	if ua := cfg.Extra[ExtraUserAgent]; ua != "" {
		opts = append(opts, httpclient.WithUserAgent(ua))
	}

	return httpclient.New(APIBaseURL(cfg.Endpoint), cfg.APIKey, opts...), nil
}

// PageSize returns the configured page size, or paging.DefaultPageSize.
func PageSize(cfg Config) int {
	if n, err := strconv.Atoi(cfg.Extra[ExtraPageSize]); err == nil && n > 0 && n <= paging.MaxPageSize {
		return n
	}
	return paging.DefaultPageSize
}
