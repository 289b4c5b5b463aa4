// Package paging walks Connect's cursor-paginated list endpoints.
package paging

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
)

const (
	DefaultPageSize = 500
	MaxPageSize     = 500
)

// Getter is the subset of httpclient.Client used for page fetches.
type Getter interface {
	GetJSON(ctx context.Context, path string, query url.Values, dest any) error
}

type page[T any] struct {
	Paging struct {
		Cursors struct {
			Next string `json:"next"`
		} `json:"cursors"`
	} `json:"paging"`
	Results []T `json:"results"`
}

// All fetches every page and returns the concatenated results in server order.
func All[T any](ctx context.Context, g Getter, path string, query url.Values, pageSize int) ([]T, error) {
	var results []T
	err := walk(ctx, g, path, query, pageSize, func(items []T) bool {
		results = append(results, items...)
		return true
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// First fetches pages until one holds a result and returns that result.
// Returns nil when the listing is exhausted without a match.
func First[T any](ctx context.Context, g Getter, path string, query url.Values, pageSize int) (*T, error) {
	var first *T
	err := walk(ctx, g, path, query, pageSize, func(items []T) bool {
		if len(items) == 0 {
			return true
		}
		first = &items[0]
		return false
	})
	if err != nil {
		return nil, err
	}
	return first, nil
}

// walk calls fn with each page's results until fn returns false or the
// cursor runs out.
func walk[T any](ctx context.Context, g Getter, path string, query url.Values, pageSize int, fn func([]T) bool) error {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	cursor := ""
	pages := 0
	for {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("limit", strconv.Itoa(pageSize))
		if cursor != "" {
			q.Set("next", cursor)
		}

		var resp page[T]
		if err := g.GetJSON(ctx, path, q, &resp); err != nil {
			return err
		}
		pages++

		if !fn(resp.Results) {
			break
		}

		next := resp.Paging.Cursors.Next
		// A repeated cursor would loop forever.
		if next == "" || next == cursor {
			break
		}
		cursor = next
	}

	slog.Debug("paged listing", "path", path, "pages", pages)
	return nil
}
