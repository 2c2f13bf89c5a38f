package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/upstream"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestSearchBuildsGoogleShoppingRequest(t *testing.T) {
	respBody := `{"shopping_results":[
		{"product_id":"A","title":"X","source":"Brand A","price":"4.99","rating":4.5,"reviews":120,"position":1,"sponsored":true},
		{"product_id":42,"title":"Y","price":{"value":10},"position":"2"}
	]}`

	var captured *http.Request
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(http.StatusOK, respBody), nil
	})

	client, err := NewClient("serp-key", WithBaseURL("http://serp.test/"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	results, err := client.Search(context.Background(), SearchRequest{Query: " high protein peanut butter ", Num: 20})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if captured.URL.Path != "/search.json" {
		t.Fatalf("unexpected path %q", captured.URL.Path)
	}
	q := captured.URL.Query()
	want := map[string]string{
		"engine":  "google_shopping",
		"q":       "high protein peanut butter",
		"hl":      "en",
		"gl":      "us",
		"api_key": "serp-key",
		"num":     "20",
	}
	for key, value := range want {
		if got := q.Get(key); got != value {
			t.Fatalf("query %s: expected %q got %q", key, value, got)
		}
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	first := results[0]
	if first.ProductID != "A" || first.Source != "Brand A" || !bool(first.Sponsored) {
		t.Fatalf("unexpected first result %+v", first)
	}
	if first.Price.Kind != PriceString || first.Price.Text != "4.99" {
		t.Fatalf("expected string price, got %+v", first.Price)
	}
	if !first.Rating.Valid || first.Rating.Value != 4.5 || first.Reviews.Value != 120 {
		t.Fatalf("unexpected rating/reviews %+v %+v", first.Rating, first.Reviews)
	}
	second := results[1]
	if second.ProductID != "42" {
		t.Fatalf("numeric product id should be kept as text, got %q", second.ProductID)
	}
	if second.Price.Kind != PriceObject || second.Price.Number != 10 {
		t.Fatalf("expected object price, got %+v", second.Price)
	}
	if !second.Position.Valid || second.Position.Value != 2 {
		t.Fatalf("expected position from numeric string, got %+v", second.Position)
	}
	if second.Rating.Valid {
		t.Fatalf("missing rating should be invalid")
	}
}

func TestSearchNonOKStatusIsUpstreamError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"error":"Invalid API key"}`), nil
	})
	client, _ := NewClient("bad", WithHTTPClient(&http.Client{Transport: rt}))

	_, err := client.Search(context.Background(), SearchRequest{Query: "peanut butter"})
	if err == nil {
		t.Fatalf("expected error")
	}
	var statusErr *pkgerrors.UpstreamError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected upstream status error, got %v", err)
	}
	if upstream.Classify(err) != upstream.ReasonBadStatus {
		t.Fatalf("expected bad_status classification")
	}
}

func TestSearchMalformedBody(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"shopping_results":`), nil
	})
	client, _ := NewClient("key", WithHTTPClient(&http.Client{Transport: rt}))

	_, err := client.Search(context.Background(), SearchRequest{Query: "peanut butter"})
	if upstream.Classify(err) != upstream.ReasonMalformedResponse {
		t.Fatalf("expected malformed classification, got %v", err)
	}
}

func TestSearchTransportErrorHidesAPIKey(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	client, _ := NewClient("secret-key", WithHTTPClient(&http.Client{Transport: rt}))

	_, err := client.Search(context.Background(), SearchRequest{Query: "peanut butter"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Fatalf("error leaks api key: %v", err)
	}
	if upstream.Classify(err) != upstream.ReasonTransportError {
		t.Fatalf("expected transport classification")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}

func TestPriceShapes(t *testing.T) {
	tests := []struct {
		raw    string
		kind   PriceKind
		number float64
		text   string
	}{
		{raw: `null`, kind: PriceAbsent},
		{raw: `12.5`, kind: PriceNumber, number: 12.5},
		{raw: `"$4.99"`, kind: PriceString, text: "$4.99"},
		{raw: `{"value":3}`, kind: PriceObject, number: 3},
		{raw: `{"value":"7.25"}`, kind: PriceObject, text: "7.25"},
		{raw: `{"currency":"USD"}`, kind: PriceAbsent},
		{raw: `[1,2]`, kind: PriceInvalid},
		{raw: `true`, kind: PriceInvalid},
	}
	for _, tt := range tests {
		var p Price
		if err := json.Unmarshal([]byte(tt.raw), &p); err != nil {
			t.Fatalf("%s: unexpected error %v", tt.raw, err)
		}
		if p.Kind != tt.kind || p.Number != tt.number || p.Text != tt.text {
			t.Fatalf("%s: unexpected price %+v", tt.raw, p)
		}
	}
}

func TestFlagShapes(t *testing.T) {
	tests := []struct {
		raw  string
		want Flag
	}{
		{raw: `true`, want: true},
		{raw: `false`, want: false},
		{raw: `1`, want: true},
		{raw: `0`, want: false},
		{raw: `" TRUE "`, want: true},
		{raw: `"yes"`, want: false},
		{raw: `null`, want: false},
	}
	for _, tt := range tests {
		var f Flag
		if err := json.Unmarshal([]byte(tt.raw), &f); err != nil {
			t.Fatalf("%s: unexpected error %v", tt.raw, err)
		}
		if f != tt.want {
			t.Fatalf("%s: expected %v got %v", tt.raw, tt.want, f)
		}
	}
}
