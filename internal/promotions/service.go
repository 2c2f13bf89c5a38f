package promotions

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/logger"
	"github.com/angelmondragon/campaign-intel-backend/pkg/metrics"
	"github.com/angelmondragon/campaign-intel-backend/pkg/pricehistory"
	"github.com/angelmondragon/campaign-intel-backend/pkg/upstream"
)

// HistoryClient fetches a price series for one ASIN.
type HistoryClient interface {
	History(ctx context.Context, asin string) (*pricehistory.History, error)
}

// SeriesPoint is a price point flagged when it starts a detected promotion.
type SeriesPoint struct {
	PricePoint
	Promotion bool `json:"promotion"`
}

// Analysis is the promotion view of one item.
type Analysis struct {
	ASIN         string        `json:"asin"`
	PriceHistory []SeriesPoint `json:"price_history"`
	Promotions   []Event       `json:"promotions"`
	Statistics   *Statistics   `json:"statistics"`

	CurrentPrice    json.RawMessage `json:"current_price,omitempty"`
	ListPrice       json.RawMessage `json:"list_price,omitempty"`
	DiscountPercent json.RawMessage `json:"discount_percent,omitempty"`
	OfferCount      json.RawMessage `json:"offer_count,omitempty"`
	Deals           json.RawMessage `json:"deals,omitempty"`
}

// Service fetches price histories and detects promotions.
type Service interface {
	Analyze(ctx context.Context, asin string) upstream.Result[Analysis]
}

type ServiceParams struct {
	// Client may be nil when no API key is configured.
	Client  HistoryClient
	Metrics *metrics.UpstreamMetrics
	Logger  *logger.Logger
}

type service struct {
	client  HistoryClient
	metrics *metrics.UpstreamMetrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		client:  params.Client,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// Analyze never returns an error: failures become an empty result.
func (s *service) Analyze(ctx context.Context, asin string) upstream.Result[Analysis] {
	asin = strings.TrimSpace(asin)
	ctx = s.logg.WithFields(s.logg.WithProvider(ctx, pricehistory.Provider), map[string]any{"asin": asin})

	if s.client == nil {
		s.metrics.IncFailure(pricehistory.Provider, string(upstream.ReasonNotConfigured))
		s.logg.Warn(ctx, "promotions.history.not_configured")
		return upstream.Empty[Analysis](upstream.ReasonNotConfigured, nil)
	}

	started := time.Now()
	history, err := s.client.History(ctx, asin)
	s.metrics.ObserveDuration(pricehistory.Provider, time.Since(started))
	if err != nil {
		result := upstream.Empty[Analysis](upstream.ReasonNone, err)
		s.metrics.IncFailure(pricehistory.Provider, string(result.Reason))
		warnCtx := s.logg.WithFields(s.logg.WithField(ctx, "reason", result.Reason), pkgerrors.Dump(err).Fields())
		s.logg.Warn(warnCtx, "promotions.history.failed")
		return result
	}
	if history == nil || len(history.PriceHistory) == 0 {
		s.metrics.IncFailure(pricehistory.Provider, string(upstream.ReasonNoResults))
		s.logg.Warn(ctx, "promotions.history.empty")
		return upstream.Empty[Analysis](upstream.ReasonNoResults, nil)
	}
	s.metrics.IncSuccess(pricehistory.Provider)
	if history.Dropped > 0 {
		s.logg.Debug(s.logg.WithField(ctx, "dropped_points", history.Dropped), "promotions.history.points_dropped")
	}

	series := make([]PricePoint, 0, len(history.PriceHistory))
	for _, p := range history.PriceHistory {
		series = append(series, PricePoint{Date: p.Date, Price: p.Price})
	}

	analysis := Analyze(series)
	analysis.ASIN = asin
	analysis.CurrentPrice = history.CurrentPrice
	analysis.ListPrice = history.ListPrice
	analysis.DiscountPercent = history.DiscountPercent
	analysis.OfferCount = history.OfferCount
	analysis.Deals = history.Deals

	s.logg.Info(s.logg.WithField(ctx, "promotions", len(analysis.Promotions)), "promotions.history.analyzed")
	return upstream.Success(analysis)
}

// Analyze runs detection over a series supplied by the caller.
func Analyze(series []PricePoint) Analysis {
	events := Detect(series)

	flagged := make(map[int]struct{}, len(events))
	for i := 1; i < len(series); i++ {
		if isDecrease(series[i-1].Price, series[i].Price) {
			flagged[i] = struct{}{}
		}
	}
	points := make([]SeriesPoint, 0, len(series))
	for i, p := range series {
		_, promo := flagged[i]
		points = append(points, SeriesPoint{PricePoint: p, Promotion: promo})
	}

	analysis := Analysis{
		PriceHistory: points,
		Promotions:   events,
	}
	if stats, ok := Summarize(events); ok {
		analysis.Statistics = &stats
	}
	return analysis
}
