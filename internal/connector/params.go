package connector

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// QueryParams defines the filters shared by visit and usage searches.
// Zero values leave the corresponding filter unset.
type QueryParams struct {
	ContentGUID    string
	MinDataVersion *int
	Start          time.Time
	End            time.Time
}

// Values renders the parameters as Connect query arguments.
func (p QueryParams) Values() url.Values {
	q := url.Values{}
	if p.ContentGUID != "" {
		q.Set("content_guid", p.ContentGUID)
	}
	if p.MinDataVersion != nil {
		q.Set("min_data_version", strconv.Itoa(*p.MinDataVersion))
	}
	if !p.Start.IsZero() {
		q.Set("from", p.Start.UTC().Format(time.RFC3339))
	}
	if !p.End.IsZero() {
		q.Set("to", p.End.UTC().Format(time.RFC3339))
	}
	return q
}

// Validate checks the parameters and returns all problems joined.
func (p QueryParams) Validate() error {
	var errs []error
	if p.ContentGUID != "" {
		if _, err := uuid.Parse(p.ContentGUID); err != nil {
			errs = append(errs, fmt.Errorf("content guid %q: %w", p.ContentGUID, err))
		}
	}
	if p.MinDataVersion != nil && *p.MinDataVersion < 0 {
		errs = append(errs, fmt.Errorf("min data version must be >= 0, got %d", *p.MinDataVersion))
	}
	if !p.Start.IsZero() && !p.End.IsZero() && p.Start.After(p.End) {
		errs = append(errs, fmt.Errorf("start %s is after end %s",
			p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339)))
	}
	return errors.Join(errs...)
}
