package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/upstream"
)

const (
	Provider = "serpapi"

	defaultBaseURL             = "https://serpapi.com"
	defaultTimeout             = 30 * time.Second
	searchEngine               = "google_shopping"
	requestBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("serpapi api key is required")

// Client wraps the SerpAPI Google Shopping search endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
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

// WithBaseURL overrides the SerpAPI base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
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

// NewClient builds the SerpAPI client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// SearchRequest describes one Google Shopping query.
type SearchRequest struct {
	Query    string
	Num      int
	Language string
	Country  string
}

// ShoppingResult is one untrusted entry of shopping_results.
type ShoppingResult struct {
	ProductID Text   `json:"product_id"`
	Title     Text   `json:"title"`
	Source    Text   `json:"source"`
	Price     Price  `json:"price"`
	Rating    Number `json:"rating"`
	Reviews   Number `json:"reviews"`
	Position  Number `json:"position"`
	Sponsored Flag   `json:"sponsored"`
}

type searchResponse struct {
	ShoppingResults []ShoppingResult `json:"shopping_results"`
	Error           string           `json:"error"`
}

// Search runs a Google Shopping query and returns the raw shopping_results.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]ShoppingResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "serpapi client not configured")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(req), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build search request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// url.Error embeds the full URL, api_key included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute search request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, &pkgerrors.UpstreamError{
			Provider:   Provider,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}, "search request failed")
	}

	var apiResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("%w: %v", upstream.ErrMalformed, err), "decode search response")
	}
	return apiResp.ShoppingResults, nil
}

func (c *Client) searchURL(req SearchRequest) string {
	language := req.Language
	if language == "" {
		language = "en"
	}
	country := req.Country
	if country == "" {
		country = "us"
	}

	q := url.Values{}
	q.Set("engine", searchEngine)
	q.Set("q", strings.TrimSpace(req.Query))
	q.Set("hl", language)
	q.Set("gl", country)
	q.Set("api_key", c.apiKey)
	if req.Num > 0 {
		q.Set("num", strconv.Itoa(req.Num))
	}
	return fmt.Sprintf("%s/search.json?%s", strings.TrimRight(c.baseURL, "/"), q.Encode())
}
