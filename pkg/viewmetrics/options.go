package viewmetrics

import "time"

type options struct {
	timeout   time.Duration
	rateLimit float64
	pageSize  int
	userAgent string
}

// Option configures a Client.
type Option func(*options)

// WithHTTPTimeout sets the per-request timeout. Default: 30s.
func WithHTTPTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithRateLimit caps outgoing requests at rps per second. 0 disables throttling.
func WithRateLimit(rps float64) Option {
	return func(o *options) {
		o.rateLimit = rps
	}
}

// WithPageSize sets how many records each page request asks for (1-500).
// Default: 500.
func WithPageSize(n int) Option {
	return func(o *options) {
		o.pageSize = n
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

func defaultOptions() options {
	return options{
		timeout:   30 * time.Second,
		userAgent: "viewmetrics",
	}
}
