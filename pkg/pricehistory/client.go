package pricehistory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/upstream"
	"github.com/shopspring/decimal"
)

const (
	Provider = "rapidapi"

	defaultHost                = "amazon-price1.p.rapidapi.com"
	defaultCountry             = "US"
	defaultTimeout             = 10 * time.Second
	requestBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("rapidapi key is required")

// Client wraps the RapidAPI amazon-price1 history endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	host       string
	country    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithHost sets the RapidAPI host, used for both the URL and the x-rapidapi-host header.
func WithHost(host string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(host)
		if trimmed != "" {
			c.host = trimmed
			c.baseURL = "https://" + trimmed
		}
	}
}

// WithBaseURL overrides the request URL while keeping the host header.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithCountry sets the marketplace country code.
func WithCountry(country string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(country)
		if trimmed != "" {
			c.country = trimmed
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}
	client := &Client{
		apiKey:     trimmedKey,
		host:       defaultHost,
		baseURL:    "https://" + defaultHost,
		country:    defaultCountry,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Point is one (date, price) observation.
type Point struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date  json.RawMessage `json:"date"`
		Price json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	price, err := parsePrice(raw.Price)
	if err != nil {
		return err
	}
	p.Date = rawText(raw.Date)
	p.Price = price
	return nil
}

// History is the provider answer. Fields other than the series are passed through untouched.
// Points whose price is missing or not numeric are skipped and counted in Dropped.
type History struct {
	PriceHistory    []Point         `json:"price_history"`
	Dropped         int             `json:"-"`
	CurrentPrice    json.RawMessage `json:"current_price,omitempty"`
	ListPrice       json.RawMessage `json:"list_price,omitempty"`
	DiscountPercent json.RawMessage `json:"discount_percent,omitempty"`
	OfferCount      json.RawMessage `json:"offer_count,omitempty"`
	Deals           json.RawMessage `json:"deals,omitempty"`
}

func (h *History) UnmarshalJSON(data []byte) error {
	type plain History
	var raw struct {
		plain
		PriceHistory []json.RawMessage `json:"price_history"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*h = History(raw.plain)
	h.PriceHistory = make([]Point, 0, len(raw.PriceHistory))
	for _, item := range raw.PriceHistory {
		var p Point
		if err := json.Unmarshal(item, &p); err != nil {
			h.Dropped++
			continue
		}
		h.PriceHistory = append(h.PriceHistory, p)
	}
	return nil
}

// History fetches the price series for one ASIN.
func (c *Client) History(ctx context.Context, asin string) (*History, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "price history client not configured")
	}
	trimmed := strings.TrimSpace(asin)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asin is required")
	}

	q := url.Values{}
	q.Set("asin", trimmed)
	q.Set("country", c.country)
	endpoint := fmt.Sprintf("%s/gethistory?%s", strings.TrimRight(c.baseURL, "/"), q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build price history request")
	}
	httpReq.Header.Set("x-rapidapi-key", c.apiKey)
	httpReq.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute price history request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, &pkgerrors.UpstreamError{
			Provider:   Provider,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}, "price history request failed")
	}

	var history History
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("%w: %v", upstream.ErrMalformed, err), "decode price history response")
	}
	return &history, nil
}

func parsePrice(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("price is required")
	}
	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
	} else {
		text = string(raw)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("price %q is not numeric", text)
	}
	return d.InexactFloat64(), nil
}

func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
