package shopping

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/campaign-intel-backend/internal/listings"
	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/logger"
	"github.com/angelmondragon/campaign-intel-backend/pkg/metrics"
	"github.com/angelmondragon/campaign-intel-backend/pkg/serpapi"
	"github.com/angelmondragon/campaign-intel-backend/pkg/upstream"
)

const maxItemsLimit = 100

// SearchClient runs a marketplace search.
type SearchClient interface {
	Search(ctx context.Context, req serpapi.SearchRequest) ([]serpapi.ShoppingResult, error)
}

// Query selects what one fetch retrieves. Zero values use the service defaults.
type Query struct {
	Keyword  string
	MaxItems int
}

// Service performs one fetch: search, normalize and enrich.
type Service interface {
	Fetch(ctx context.Context, query Query) upstream.Result[[]listings.Record]
	DefaultQuery() Query
}

type ServiceParams struct {
	// Client may be nil when no API key is configured.
	Client   SearchClient
	Keyword  string
	Category string
	MaxItems int
	Metrics  *metrics.UpstreamMetrics
	Logger   *logger.Logger
}

type service struct {
	client   SearchClient
	keyword  string
	category string
	maxItems int
	metrics  *metrics.UpstreamMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	if strings.TrimSpace(params.Keyword) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "default keyword is required")
	}
	if strings.TrimSpace(params.Category) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category label is required")
	}
	maxItems := params.MaxItems
	if maxItems <= 0 || maxItems > maxItemsLimit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max items must be between 1 and 100")
	}
	return &service{
		client:   params.Client,
		keyword:  strings.TrimSpace(params.Keyword),
		category: strings.TrimSpace(params.Category),
		maxItems: maxItems,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

func (s *service) DefaultQuery() Query {
	return Query{Keyword: s.keyword, MaxItems: s.maxItems}
}

// Fetch never returns an error: transport failures, bad statuses, unreadable
// bodies and empty result sets all become an empty result with a reason.
func (s *service) Fetch(ctx context.Context, query Query) upstream.Result[[]listings.Record] {
	query = s.withDefaults(query)
	ctx = s.logg.WithFields(s.logg.WithProvider(ctx, serpapi.Provider), map[string]any{
		"query":     query.Keyword,
		"max_items": query.MaxItems,
	})

	if s.client == nil {
		s.metrics.IncFailure(serpapi.Provider, string(upstream.ReasonNotConfigured))
		s.logg.Warn(ctx, "shopping.fetch.not_configured")
		return upstream.Empty[[]listings.Record](upstream.ReasonNotConfigured, nil)
	}

	started := time.Now()
	raw, err := s.client.Search(ctx, serpapi.SearchRequest{Query: query.Keyword, Num: query.MaxItems})
	s.metrics.ObserveDuration(serpapi.Provider, time.Since(started))
	if err != nil {
		result := upstream.Empty[[]listings.Record](upstream.ReasonNone, err)
		s.metrics.IncFailure(serpapi.Provider, string(result.Reason))
		warnCtx := s.logg.WithFields(s.logg.WithField(ctx, "reason", result.Reason), pkgerrors.Dump(err).Fields())
		s.logg.Warn(warnCtx, "shopping.fetch.failed")
		return result
	}

	records, stats := listings.Normalize(raw, s.category)
	if len(records) == 0 {
		s.metrics.IncFailure(serpapi.Provider, string(upstream.ReasonNoResults))
		s.logg.Warn(s.logg.WithField(ctx, "normalize", stats), "shopping.fetch.empty")
		return upstream.Empty[[]listings.Record](upstream.ReasonNoResults, nil)
	}
	s.metrics.IncSuccess(serpapi.Provider)

	if stats.Incomplete > 0 || stats.Duplicates > 0 {
		s.logg.Debug(s.logg.WithField(ctx, "normalize", stats), "shopping.fetch.rows_dropped")
	}
	enriched := listings.Enrich(records)
	s.logg.Info(s.logg.WithField(ctx, "listings", len(enriched)), "shopping.fetch.complete")
	return upstream.Success(enriched)
}

func (s *service) withDefaults(q Query) Query {
	q.Keyword = strings.TrimSpace(q.Keyword)
	if q.Keyword == "" {
		q.Keyword = s.keyword
	}
	if q.MaxItems <= 0 {
		q.MaxItems = s.maxItems
	}
	if q.MaxItems > maxItemsLimit {
		q.MaxItems = maxItemsLimit
	}
	return q
}
