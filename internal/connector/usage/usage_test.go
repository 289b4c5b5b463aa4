package usage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crimson-sun/viewmetrics/internal/connector"
	"github.com/crimson-sun/viewmetrics/internal/connector/httpclient"
	"github.com/crimson-sun/viewmetrics/internal/model"
)

const usagePage = `{
  "paging": {"cursors": {"previous": null, "next": null}},
  "results": [
    {"content_guid": "bd1d2285-6c80-49af-8a83-a200effe3cb3", "user_guid": "08e3a41d-1f8e-47f2-8855-f05ea3b0d4b2",
     "started": "2023-10-12T07:13:43Z", "ended": "2023-10-12T07:28:01Z", "data_version": 1},
    {"content_guid": "bd1d2285-6c80-49af-8a83-a200effe3cb3", "user_guid": null,
     "started": "2023-10-12T08:00:00Z", "ended": null, "data_version": 1}
  ]
}`

func TestToUsageEvent(t *testing.T) {
	start := time.Date(2023, 10, 12, 7, 13, 43, 0, time.UTC)
	end := start.Add(15 * time.Minute)
	ev := toUsageEvent(usageRecord{ContentGUID: "c", UserGUID: "u", Started: start, Ended: end, DataVersion: 3})

	if ev.ContentGUID != "c" || ev.UserGUID != "u" || ev.DataVersion != 3 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if !ev.Started.Equal(start) || !ev.Ended.Equal(end) {
		t.Fatalf("unexpected bounds: %v - %v", ev.Started, ev.Ended)
	}
}

func TestFind_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/__api__/v1/instrumentation/shiny/usage" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("min_data_version") != "1" {
			t.Errorf("unexpected min_data_version: %q", r.URL.Query().Get("min_data_version"))
		}
		if r.URL.Query().Get("limit") != "25" {
			t.Errorf("unexpected limit: %q", r.URL.Query().Get("limit"))
		}
		w.Write([]byte(usagePage))
	}))
	defer srv.Close()

	version := 1
	cfg := connector.Config{Endpoint: srv.URL + "/__api__", APIKey: "k", Extra: map[string]string{"page_size": "25"}}
	events, err := New().Find(context.Background(), cfg, connector.QueryParams{MinDataVersion: &version})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	first, ok := events[0].(model.UsageEvent)
	if !ok {
		t.Fatalf("expected model.UsageEvent, got %T", events[0])
	}
	if first.Ended.Sub(first.Started) != 14*time.Minute+18*time.Second {
		t.Fatalf("unexpected session length: %v", first.Ended.Sub(first.Started))
	}
	second := events[1].(model.UsageEvent)
	if second.UserGUID != "" || !second.Ended.IsZero() {
		t.Fatalf("expected anonymous open session, got %+v", second)
	}
}

func TestFindOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(usagePage))
	}))
	defer srv.Close()

	ev, err := New().FindOne(context.Background(), connector.Config{Endpoint: srv.URL}, connector.QueryParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, ok := ev.(model.UsageEvent)
	if !ok {
		t.Fatalf("expected model.UsageEvent, got %T", ev)
	}
	if u.UserGUID != "08e3a41d-1f8e-47f2-8855-f05ea3b0d4b2" {
		t.Fatalf("expected first usage record, got %+v", u)
	}
}

func TestFindOne_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	ev, err := New().FindOne(context.Background(), connector.Config{Endpoint: srv.URL}, connector.QueryParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatalf("expected nil event, got %+v", ev)
	}
}

func TestFind_APIErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New().Find(context.Background(), connector.Config{Endpoint: srv.URL}, connector.QueryParams{})
	var apiErr *httpclient.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 *httpclient.APIError, got %v", err)
	}
}

func TestFind_MissingEndpoint(t *testing.T) {
	if _, err := New().Find(context.Background(), connector.Config{}, connector.QueryParams{}); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}
