package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// DefaultAccuracyMeters is the accuracy requested from position lookups.
const DefaultAccuracyMeters = 100

type Position struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

type StaticLocator struct {
	Position Position
}

func (s StaticLocator) Locate(ctx context.Context) (Position, error) {
	return s.Position, nil
}

// HTTPLocator asks a JSON lookup service for the device position. The service must
// answer with an object carrying "lat" and "lon" (or "latitude" and "longitude").
type HTTPLocator struct {
	lookupURL      string
	accuracyMeters int
	httpClient     *http.Client
}

func NewHTTPLocator(lookupURL string, accuracyMeters int) *HTTPLocator {
	if accuracyMeters <= 0 {
		accuracyMeters = DefaultAccuracyMeters
	}
	return &HTTPLocator{
		lookupURL:      lookupURL,
		accuracyMeters: accuracyMeters,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type lookupResponse struct {
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (l *HTTPLocator) Locate(ctx context.Context) (Position, error) {
	u, err := url.Parse(l.lookupURL)
	if err != nil {
		return Position{}, fmt.Errorf("invalid lookup url: %w", err)
	}
	q := u.Query()
	q.Set("accuracy", strconv.Itoa(l.accuracyMeters))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return Position{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Position{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Position{}, fmt.Errorf("geolocation service returned status: %s", resp.Status)
	}

	var lr lookupResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return Position{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	switch {
	case lr.Lat != nil && lr.Lon != nil:
		return Position{Longitude: *lr.Lon, Latitude: *lr.Lat}, nil
	case lr.Latitude != nil && lr.Longitude != nil:
		return Position{Longitude: *lr.Longitude, Latitude: *lr.Latitude}, nil
	default:
		return Position{}, errors.New("geolocation response has no coordinates")
	}
}

// Tracker remembers the last position obtained from a Locator.
type Tracker struct {
	locator Locator

	mu   sync.RWMutex
	last Position
	ok   bool
}

func NewTracker(locator Locator, initial Position) *Tracker {
	return &Tracker{locator: locator, last: initial}
}

// Refresh queries the locator. On failure the previous position is kept and returned
// together with the error.
func (t *Tracker) Refresh(ctx context.Context) (Position, error) {
	pos, err := t.locator.Locate(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		return t.last, err
	}
	t.last = pos
	t.ok = true
	return pos, nil
}

func (t *Tracker) Last() Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// Located reports whether any lookup has succeeded yet.
func (t *Tracker) Located() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ok
}
