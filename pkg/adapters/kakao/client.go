// Package kakao implements place search and geocoding on the Kakao Local API.
package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/gashu/pkg/domain"
)

const (
	DefaultBaseURL    = "https://dapi.kakao.com"
	DefaultResultSize = 5
)

// Client satisfies ports.AddressSearcher and ports.Geocoder.
type Client struct {
	baseURL string
	apiKey  string
	size    int
	http    *http.Client
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

// WithResultSize caps the number of keyword search hits (1..15).
func WithResultSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= 15 {
			c.size = n
		}
	}
}

// New creates a client authenticated with a REST API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		size:    DefaultResultSize,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type document struct {
	PlaceName       string `json:"place_name"`
	AddressName     string `json:"address_name"`
	RoadAddressName string `json:"road_address_name"`
	X               string `json:"x"`
	Y               string `json:"y"`
}

type searchResponse struct {
	Documents []document `json:"documents"`
}

// SearchAddress lists places matching keyword, best match first.
func (c *Client) SearchAddress(ctx context.Context, keyword string) ([]domain.Candidate, error) {
	if strings.TrimSpace(keyword) == "" {
		return []domain.Candidate{}, nil
	}

	q := url.Values{}
	q.Set("query", keyword)
	q.Set("size", strconv.Itoa(c.size))

	var resp searchResponse
	if err := c.get(ctx, "/v2/local/search/keyword.json", q, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Candidate, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		cand := domain.Candidate{Name: d.PlaceName, Address: d.RoadAddressName}
		if cand.Address == "" {
			cand.Address = d.AddressName
		}
		if lon, lat, ok := parseXY(d.X, d.Y); ok {
			cand.Lon, cand.Lat = &lon, &lat
		}
		out = append(out, cand)
	}
	return out, nil
}

// Geocode resolves an address using the first hit. An unknown address
// yields nil without error.
func (c *Client) Geocode(ctx context.Context, address string) (*domain.Coord, error) {
	q := url.Values{}
	q.Set("query", address)

	var resp searchResponse
	if err := c.get(ctx, "/v2/local/search/address.json", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Documents) == 0 {
		return nil, nil
	}
	lon, lat, ok := parseXY(resp.Documents[0].X, resp.Documents[0].Y)
	if !ok {
		return nil, fmt.Errorf("kakao: malformed coordinate %q,%q", resp.Documents[0].X, resp.Documents[0].Y)
	}
	return &domain.Coord{Lon: lon, Lat: lat}, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("kakao: create request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("kakao: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kakao: HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("kakao: decode response: %w", err)
	}
	return nil
}

func parseXY(x, y string) (lon, lat float64, ok bool) {
	lon, errX := strconv.ParseFloat(x, 64)
	lat, errY := strconv.ParseFloat(y, 64)
	return lon, lat, errX == nil && errY == nil
}
