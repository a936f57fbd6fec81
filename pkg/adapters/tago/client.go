// Package tago reads realtime bus arrivals from the data.go.kr arrival
// information service.
package tago

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
	DefaultBaseURL  = "http://apis.data.go.kr/1613000/ArvlInfoInqireService"
	DefaultCityCode = "33010" // Cheongju
	resultOK        = "00"
)

// Client satisfies ports.ArrivalProvider.
type Client struct {
	baseURL    string
	serviceKey string
	cityCode   string
	http       *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the service endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithCityCode selects the city the stop ids belong to.
func WithCityCode(code string) Option {
	return func(c *Client) {
		if code != "" {
			c.cityCode = code
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client authenticated with a data.go.kr service key.
func New(serviceKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		serviceKey: serviceKey,
		cityCode:   DefaultCityCode,
		http:       &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type arrivalResponse struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items json.RawMessage `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

// rawArrival accepts numbers or strings for every field.
type rawArrival struct {
	RouteNo           flexString `json:"routeno"`
	NodeName          flexString `json:"nodenm"`
	ArrPrevStationCnt flexString `json:"arrprevstationcnt"`
	ArrTime           flexString `json:"arrtime"`
}

// flexString holds a JSON string or number as text.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) int() int {
	n, _ := strconv.Atoi(strings.TrimSpace(string(f)))
	return n
}

// FetchArrivals lists arrival predictions at nodeID, soonest first as
// returned by the service. An empty routeID lists every route.
func (c *Client) FetchArrivals(ctx context.Context, nodeID, routeID string) ([]domain.Arrival, error) {
	q := url.Values{}
	q.Set("serviceKey", c.serviceKey)
	q.Set("pageNo", "1")
	q.Set("numOfRows", "10")
	q.Set("_type", "json")
	q.Set("cityCode", c.cityCode)
	q.Set("nodeId", nodeID)
	if routeID != "" {
		q.Set("routeId", routeID)
	}

	endpoint := c.baseURL + "/getSttnAcctoArvlPrearngeInfoList?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("tago: create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tago: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tago: HTTP %d", resp.StatusCode)
	}

	var body arrivalResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("tago: decode response: %w", err)
	}
	if code := body.Response.Header.ResultCode; code != resultOK {
		return nil, fmt.Errorf("tago: result %s: %s", code, body.Response.Header.ResultMsg)
	}

	items, err := decodeItems(body.Response.Body.Items)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Arrival, 0, len(items))
	for _, it := range items {
		out = append(out, domain.Arrival{
			RouteNo:           string(it.RouteNo),
			NodeName:          string(it.NodeName),
			ArrPrevStationCnt: it.ArrPrevStationCnt.int(),
			ArrTime:           it.ArrTime.int(),
		})
	}
	return out, nil
}

// decodeItems handles the service's shapes for zero, one and many items:
// "" or {}, {"item": {...}} and {"item": [...]}.
func decodeItems(raw json.RawMessage) ([]rawArrival, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == `""` || trimmed == "null" {
		return nil, nil
	}

	var wrapper struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("tago: decode items: %w", err)
	}
	item := strings.TrimSpace(string(wrapper.Item))
	switch {
	case item == "" || item == "null":
		return nil, nil
	case strings.HasPrefix(item, "["):
		var list []rawArrival
		if err := json.Unmarshal(wrapper.Item, &list); err != nil {
			return nil, fmt.Errorf("tago: decode items: %w", err)
		}
		return list, nil
	default:
		var one rawArrival
		if err := json.Unmarshal(wrapper.Item, &one); err != nil {
			return nil, fmt.Errorf("tago: decode item: %w", err)
		}
		return []rawArrival{one}, nil
	}
}
