package promotions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/angelmondragon/campaign-intel-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/logger"
	"github.com/angelmondragon/campaign-intel-backend/pkg/pricehistory"
	"github.com/angelmondragon/campaign-intel-backend/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(prices ...float64) []PricePoint {
	out := make([]PricePoint, 0, len(prices))
	for i, p := range prices {
		out = append(out, PricePoint{Date: dateFor(i), Price: p})
	}
	return out
}

func dateFor(i int) string {
	return "2024-01-" + string(rune('1'+i))
}

func TestDetectFlashSale(t *testing.T) {
	events := Detect(series(100, 100, 60))
	require.Len(t, events, 1)
	assert.Equal(t, Event{
		Date:            dateFor(2),
		PriceBefore:     100,
		PriceDuring:     60,
		DiscountPercent: 40.0,
		Tactic:          enums.PromotionTacticFlashSale,
	}, events[0])
}

func TestDetectTacticBuckets(t *testing.T) {
	minor := Detect(series(50, 44))
	require.Len(t, minor, 1)
	assert.Equal(t, 12.0, minor[0].DiscountPercent)
	assert.Equal(t, enums.PromotionTacticMinorDiscount, minor[0].Tactic)

	discount := Detect(series(50, 40))
	require.Len(t, discount, 1)
	assert.Equal(t, 20.0, discount[0].DiscountPercent)
	assert.Equal(t, enums.PromotionTacticDiscount, discount[0].Tactic)
}

func TestClassifyThresholdsAreExclusive(t *testing.T) {
	assert.Equal(t, enums.PromotionTacticDiscount, Classify(30))
	assert.Equal(t, enums.PromotionTacticFlashSale, Classify(30.01))
	assert.Equal(t, enums.PromotionTacticMinorDiscount, Classify(15))
	assert.Equal(t, enums.PromotionTacticDiscount, Classify(15.01))
}

func TestDetectUsesUnroundedDiscountForTactic(t *testing.T) {
	// 30.04% rounds to 30.0 for display but still classifies above the threshold.
	events := Detect(series(100, 69.96))
	require.Len(t, events, 1)
	assert.Equal(t, 30.0, events[0].DiscountPercent)
	assert.Equal(t, enums.PromotionTacticFlashSale, events[0].Tactic)
}

func TestRoundDiscountHalfEven(t *testing.T) {
	assert.Equal(t, 12.2, roundDiscount(12.25))
	assert.Equal(t, 12.8, roundDiscount(12.75))
	assert.Equal(t, 12.3, roundDiscount(12.35))
	assert.Equal(t, 40.0, roundDiscount(40))
}

func TestDetectNonDecreasingIsEmpty(t *testing.T) {
	assert.Empty(t, Detect(series(1, 2, 2, 3, 10)))
	assert.Empty(t, Detect(nil))
	assert.Empty(t, Detect(series(42)))
	assert.NotNil(t, Detect(nil), "empty result is a slice, not nil")
}

func TestDetectKeepsInputOrderAndBound(t *testing.T) {
	s := series(100, 80, 90, 45, 44)
	events := Detect(s)
	require.Len(t, events, 3)
	assert.LessOrEqual(t, len(events), len(s)-1)
	assert.Equal(t, []string{dateFor(1), dateFor(3), dateFor(4)}, []string{events[0].Date, events[1].Date, events[2].Date})
	assert.Equal(t, enums.PromotionTacticDiscount, events[0].Tactic)
	assert.Equal(t, enums.PromotionTacticFlashSale, events[1].Tactic)
	assert.Equal(t, enums.PromotionTacticMinorDiscount, events[2].Tactic)
	assert.Equal(t, 2.2, events[2].DiscountPercent)
}

func TestSummarize(t *testing.T) {
	_, ok := Summarize(nil)
	assert.False(t, ok, "empty input has undefined statistics")

	stats, ok := Summarize(Detect(series(100, 60, 54, 43.2)))
	require.True(t, ok)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 40.0, stats.MaxDiscount)
	assert.Equal(t, 10.0, stats.MinDiscount)
	assert.InDelta(t, 70.0/3.0, stats.AvgDiscount, 1e-9)
}

func TestAnalyzeFlagsPromotionPoints(t *testing.T) {
	analysis := Analyze(series(100, 100, 60, 70))
	require.Len(t, analysis.PriceHistory, 4)
	flags := []bool{false, false, true, false}
	for i, p := range analysis.PriceHistory {
		assert.Equal(t, flags[i], p.Promotion, "point %d", i)
	}
	require.NotNil(t, analysis.Statistics)
	assert.Equal(t, 1, analysis.Statistics.Total)

	flat := Analyze(series(5, 5))
	assert.Nil(t, flat.Statistics)
	assert.Empty(t, flat.Promotions)
}

type fakeHistoryClient struct {
	history *pricehistory.History
	err     error
	calls   int
}

func (f *fakeHistoryClient) History(ctx context.Context, asin string) (*pricehistory.History, error) {
	f.calls++
	return f.history, f.err
}

func newTestService(t *testing.T, client HistoryClient) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Client: client, Logger: logger.Nop()})
	require.NoError(t, err)
	return svc
}

func TestServiceAnalyzeSuccessPassesThroughFields(t *testing.T) {
	client := &fakeHistoryClient{history: &pricehistory.History{
		PriceHistory: []pricehistory.Point{{Date: "d1", Price: 100}, {Date: "d2", Price: 60}},
		CurrentPrice: json.RawMessage(`59.99`),
		Deals:        json.RawMessage(`["Prime Day"]`),
	}}
	res := newTestService(t, client).Analyze(context.Background(), " B00TEST ")
	require.True(t, res.OK())
	assert.Equal(t, "B00TEST", res.Data.ASIN)
	require.Len(t, res.Data.Promotions, 1)
	assert.Equal(t, enums.PromotionTacticFlashSale, res.Data.Promotions[0].Tactic)
	assert.JSONEq(t, `59.99`, string(res.Data.CurrentPrice))
	assert.JSONEq(t, `["Prime Day"]`, string(res.Data.Deals))
}

func TestServiceAnalyzeDegradesToEmpty(t *testing.T) {
	notConfigured := newTestService(t, nil).Analyze(context.Background(), "B00TEST")
	assert.False(t, notConfigured.OK())
	assert.Equal(t, upstream.ReasonNotConfigured, notConfigured.Reason)

	statusErr := pkgerrors.Wrap(pkgerrors.CodeDependency, &pkgerrors.UpstreamError{Provider: pricehistory.Provider, StatusCode: http.StatusForbidden}, "price history request failed")
	failing := newTestService(t, &fakeHistoryClient{err: statusErr}).Analyze(context.Background(), "B00TEST")
	assert.Equal(t, upstream.ReasonBadStatus, failing.Reason)

	transport := newTestService(t, &fakeHistoryClient{err: errors.New("timeout")}).Analyze(context.Background(), "B00TEST")
	assert.Equal(t, upstream.ReasonTransportError, transport.Reason)

	empty := newTestService(t, &fakeHistoryClient{history: &pricehistory.History{}}).Analyze(context.Background(), "B00TEST")
	assert.Equal(t, upstream.ReasonNoResults, empty.Reason)
}

func TestNewServiceRequiresLogger(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
