// Package tmap fetches public transit directions from the SK open API.
package tmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/gashu/pkg/domain"
)

const (
	DefaultBaseURL = "https://apis.openapi.sk.com"
	DefaultCount   = 10
)

// Client satisfies ports.DirectionsProvider.
type Client struct {
	baseURL string
	appKey  string
	count   int
	http    *http.Client
	now     func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the API host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithClock sets the clock used for the departure time of a search.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client authenticated with an app key.
func New(appKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		appKey:  appKey,
		count:   DefaultCount,
		http:    &http.Client{Timeout: 15 * time.Second},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type routeRequest struct {
	StartX     string `json:"startX"`
	StartY     string `json:"startY"`
	EndX       string `json:"endX"`
	EndY       string `json:"endY"`
	Lang       int    `json:"lang"`
	Format     string `json:"format"`
	Count      int    `json:"count"`
	SearchDttm string `json:"searchDttm"`
}

// FetchDirections returns the raw response body for departure now.
func (c *Client) FetchDirections(ctx context.Context, dep, dest domain.Coord) ([]byte, error) {
	body, err := json.Marshal(routeRequest{
		StartX:     formatCoord(dep.Lon),
		StartY:     formatCoord(dep.Lat),
		EndX:       formatCoord(dest.Lon),
		EndY:       formatCoord(dest.Lat),
		Lang:       0,
		Format:     "json",
		Count:      c.count,
		SearchDttm: c.now().Format("200601021504"),
	})
	if err != nil {
		return nil, fmt.Errorf("tmap: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transit/routes/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tmap: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("appKey", c.appKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmap: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmap: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tmap: read response: %w", err)
	}
	return data, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
