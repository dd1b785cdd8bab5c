package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"

	"skyhaul/internal/daterange"
	"skyhaul/internal/retry"
)

const (
	defaultBaseURL   = "https://api.planet.com"
	defaultTimeout   = 60 * time.Second
	defaultPageDelay = time.Second

	itemTypeScene = "PSScene"
)

// Config carries the settings needed to talk to the imagery service.
type Config struct {
	APIKey          string
	BaseURL         string
	TimeoutSeconds  int
	PageDelay       time.Duration
	CloudCoverMax   float64
	QualityCategory string
}

// Client calls the imagery catalog and fulfillment API. All calls run under
// the retry policy; requests the service refuses are surfaced immediately.
type Client struct {
	cfg        Config
	httpClient *http.Client
	policy     retry.Policy
	sleep      func(context.Context, time.Duration) error
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// WithSleeper overrides how the pagination delay is performed. Tests use
// this to avoid real waits.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// NewClient constructs a catalog client. The API key is required.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("catalog: api key required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.QualityCategory == "" {
		cfg.QualityCategory = "standard"
	}
	if cfg.PageDelay == 0 {
		cfg.PageDelay = defaultPageDelay
	}

	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		policy:     retry.Default(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchScenes returns every scene matching the AOI, acquisition window,
// bundle availability, and the configured cloud cover and quality
// constraints. Pagination is followed until the next link disappears, with
// a delay between pages.
func (c *Client) SearchScenes(ctx context.Context, geom *geojson.Geometry, window daterange.Range, bundle string) ([]Scene, error) {
	payload := searchRequest{
		ItemTypes: []string{itemTypeScene},
		Filter:    searchFilter(geom, window, bundle, c.cfg.CloudCoverMax, c.cfg.QualityCategory),
	}

	var scenes []Scene
	url := c.cfg.BaseURL + "/data/v1/quick-search"
	first := true
	for url != "" {
		var page searchResponse
		var err error
		if first {
			err = c.doJSON(ctx, "scene search", http.MethodPost, url, payload, &page)
			first = false
		} else {
			err = c.doJSON(ctx, "scene search page", http.MethodGet, url, nil, &page)
		}
		if err != nil {
			return nil, c.wrapError(err, ErrQueryRejected)
		}
		scenes = append(scenes, page.Features...)

		url = page.Links.Next
		if url != "" {
			if err := c.sleep(ctx, c.cfg.PageDelay); err != nil {
				return nil, fmt.Errorf("scene search: %w", err)
			}
		}
	}
	return scenes, nil
}

// SubmitOrder submits a clipped scene order and returns the identifier the
// service assigned.
func (c *Client) SubmitOrder(ctx context.Context, name string, itemIDs []string, orderBundle string, clipGeom *geojson.Geometry) (string, error) {
	if len(itemIDs) == 0 {
		return "", errors.New("catalog: no items to order")
	}
	payload := orderRequest{
		Name: name,
		Products: []orderProduct{{
			ItemIDs:       itemIDs,
			ItemType:      itemTypeScene,
			ProductBundle: orderBundle,
		}},
		Tools: []orderTool{{Clip: clipTool{AOI: clipGeom}}},
	}

	var resp submitResponse
	url := c.cfg.BaseURL + "/compute/ops/orders/v2"
	if err := c.doJSON(ctx, "submit order", http.MethodPost, url, payload, &resp); err != nil {
		return "", c.wrapError(err, ErrSubmissionRejected)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: response carried no order id", ErrSubmissionRejected)
	}
	return resp.ID, nil
}

// SubmitMosaicOrder submits a basemap order clipped to the given geometry.
func (c *Client) SubmitMosaicOrder(ctx context.Context, mosaicName string, geom *geojson.Geometry) (string, error) {
	if mosaicName == "" {
		return "", errors.New("catalog: mosaic name required")
	}
	payload := orderRequest{
		Name:       "Basemap Order " + mosaicName,
		SourceType: "basemaps",
		Products: []orderProduct{{
			MosaicName: mosaicName,
			Geometry:   geom,
		}},
		Tools: []orderTool{{Clip: clipTool{}}},
	}

	var resp submitResponse
	url := c.cfg.BaseURL + "/compute/ops/orders/v2"
	if err := c.doJSON(ctx, "submit mosaic order", http.MethodPost, url, payload, &resp); err != nil {
		return "", c.wrapError(err, ErrSubmissionRejected)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: response carried no order id", ErrSubmissionRejected)
	}
	return resp.ID, nil
}

// OrderStatus fetches the remote state of an order.
func (c *Client) OrderStatus(ctx context.Context, id string) (*OrderStatus, error) {
	if id == "" {
		return nil, errors.New("catalog: order id required")
	}
	var status OrderStatus
	url := c.cfg.BaseURL + "/compute/ops/orders/v2/" + id
	if err := c.doJSON(ctx, "order status", http.MethodGet, url, nil, &status); err != nil {
		return nil, c.wrapError(err, ErrQueryRejected)
	}
	return &status, nil
}

// ListMosaics returns available basemap mosaics. A non-zero window filters
// client-side on the first-acquired date, endpoints inclusive.
func (c *Client) ListMosaics(ctx context.Context, window daterange.Range) ([]Mosaic, error) {
	var mosaics []Mosaic
	url := c.cfg.BaseURL + "/basemaps/v1/mosaics"
	for url != "" {
		var page mosaicsResponse
		if err := c.doJSON(ctx, "list mosaics", http.MethodGet, url, nil, &page); err != nil {
			return nil, c.wrapError(err, ErrQueryRejected)
		}
		mosaics = append(mosaics, page.Mosaics...)
		url = page.Links.Next
	}

	if window.IsZero() {
		return mosaics, nil
	}

	start := daterange.FormatDate(window.Start)
	end := daterange.FormatDate(window.End)
	filtered := mosaics[:0]
	for _, m := range mosaics {
		acquired := m.FirstAcquired
		if len(acquired) > len(start) {
			acquired = acquired[:len(start)]
		}
		if start <= acquired && acquired <= end {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// doJSON performs one API call under the retry policy, decoding the
// response into out when provided.
func (c *Client) doJSON(ctx context.Context, op, method, url string, body, out any) error {
	var encoded []byte
	if body != nil {
		var err error
		encoded, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode payload: %w", op, err)
		}
	}

	return c.policy.Do(ctx, op, func(ctx context.Context) error {
		var reader io.Reader
		if encoded != nil {
			reader = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.SetBasicAuth(c.cfg.APIKey, "")
		req.Header.Set("Accept", "application/json")
		if encoded != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			return &retry.StatusError{Code: resp.StatusCode, Body: bodySnippet(data)}
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

// wrapError attaches a sentinel: the rejected sentinel for requests the
// service refused, ErrUnavailable for everything the retry policy gave up
// on. Cancellation passes through untouched.
func (c *Client) wrapError(err error, rejected error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var statusErr *retry.StatusError
	if errors.As(err, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500 && !statusErr.Temporary() {
		return fmt.Errorf("%w: %w", rejected, err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func bodySnippet(data []byte) string {
	const limit = 200
	text := strings.TrimSpace(string(data))
	if len(text) > limit {
		text = text[:limit] + "..."
	}
	return text
}
