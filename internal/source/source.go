// Package source defines the event source contract and implements the
// upstream HTTP client. Sources deliver loosely-typed records; the
// normalize package owns validation.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	applog "github.com/pmorell/localevents/internal/log"
	"github.com/pmorell/localevents/internal/model"
)

// ErrNotFound is returned when a slug lookup finds no event.
var ErrNotFound = errors.New("event not found")

// EventSource is the contract the engine consumes events through. It
// must tolerate partial or malformed payloads; callers validate every
// record before use.
type EventSource interface {
	// FetchEvents returns up to limit raw event records.
	FetchEvents(ctx context.Context, limit int) ([]model.RawEvent, error)
	// FetchEventBySlug returns the raw record for one slug, or
	// ErrNotFound.
	FetchEventBySlug(ctx context.Context, slug string) (model.RawEvent, error)
}

// HTTPSource fetches events from an upstream JSON API.
type HTTPSource struct {
	client  *http.Client
	baseURL string
}

// NewHTTPSource constructs an HTTPSource. timeout bounds every request;
// constrained clients configure a larger one.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSource{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchEvents requests GET {base}/events?limit=N and decodes the JSON
// array of raw records.
func (s *HTTPSource) FetchEvents(ctx context.Context, limit int) ([]model.RawEvent, error) {
	u := s.baseURL + "/events"
	if limit > 0 {
		u += "?limit=" + strconv.Itoa(limit)
	}

	body, err := s.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	var raws []model.RawEvent
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("decode events payload: %w", err)
	}
	applog.Debug("fetched events from upstream", "count", len(raws))
	return raws, nil
}

// FetchEventBySlug requests GET {base}/events/slug/{slug}.
func (s *HTTPSource) FetchEventBySlug(ctx context.Context, slug string) (model.RawEvent, error) {
	if slug == "" {
		return nil, ErrNotFound
	}
	u := s.baseURL + "/events/slug/" + url.PathEscape(slug)

	body, err := s.get(ctx, u)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch event by slug: %w", err)
	}

	var raw model.RawEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode event payload: %w", err)
	}
	return raw, nil
}

func (s *HTTPSource) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, errors.New(resp.Status)
	}
}
