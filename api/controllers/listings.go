package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/campaign-intel-backend/api/responses"
	"github.com/angelmondragon/campaign-intel-backend/api/validators"
	"github.com/angelmondragon/campaign-intel-backend/internal/listings"
	"github.com/angelmondragon/campaign-intel-backend/internal/sessions"
	"github.com/angelmondragon/campaign-intel-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/logger"
)

const (
	defaultListingLimit = 10
	maxListingLimit     = 100
	defaultCategory     = "peanut butter"
	maxCategoryLength   = 100
	notAvailable        = "N/A"
)

type listingsResponse struct {
	Sort     enums.ListingSortKey `json:"sort"`
	Limit    int                  `json:"limit"`
	Listings []listings.Record    `json:"listings"`
	snapshotMeta
}

// ListingsList ranks the snapshot by ?sort (default sales_proxy) and ?limit.
func ListingsList(store sessions.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := enums.ListingSortKeySalesProxy
		if raw := strings.TrimSpace(r.URL.Query().Get("sort")); raw != "" {
			parsed, err := enums.ParseListingSortKey(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort key").
					WithDetails(map[string]any{"field": "sort"}))
				return
			}
			key = parsed
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultListingLimit, 1, maxListingLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, ok := loadSession(w, r, store, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, listingsResponse{
			Sort:         key,
			Limit:        limit,
			Listings:     listings.RankTopN(session.Listings(), limit, key),
			snapshotMeta: metaFor(session),
		})
	}
}

type overviewResponse struct {
	listings.Overview
	snapshotMeta
}

func ListingsOverview(store sessions.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := loadSession(w, r, store, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, overviewResponse{
			Overview:     listings.Summarize(session.Listings()),
			snapshotMeta: metaFor(session),
		})
	}
}

type brandsResponse struct {
	Brands []listings.BrandStat `json:"brands"`
	snapshotMeta
}

// ListingsBrands returns brand stats ordered by summed sales proxy.
func ListingsBrands(store sessions.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", defaultListingLimit, 1, maxListingLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, ok := loadSession(w, r, store, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, brandsResponse{
			Brands:       listings.TopBrandsBySalesProxy(session.Listings(), limit),
			snapshotMeta: metaFor(session),
		})
	}
}

type brandShareResponse struct {
	Slices []listings.ShareSlice `json:"slices"`
	snapshotMeta
}

func ListingsBrandShare(store sessions.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := loadSession(w, r, store, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, brandShareResponse{
			Slices:       listings.BrandShare(session.Listings(), listings.DefaultBrandShareTop),
			snapshotMeta: metaFor(session),
		})
	}
}

type reviewsResponse struct {
	MostReviewed []listings.Record `json:"most_reviewed"`
	TopRated     []listings.Record `json:"top_rated"`
	MinReviews   int               `json:"min_reviews"`
	snapshotMeta
}

// ListingsReviews returns the most reviewed records and the best rated ones
// among records with at least ?min_reviews (default 10) reviews.
func ListingsReviews(store sessions.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", defaultListingLimit, 1, maxListingLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		floor, err := validators.ParseQueryInt(r, "min_reviews", listings.DefaultTopRatedFloor, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, ok := loadSession(w, r, store, logg)
		if !ok {
			return
		}
		records := session.Listings()
		responses.WriteSuccess(w, reviewsResponse{
			MostReviewed: listings.MostReviewed(records, limit),
			TopRated:     listings.TopRated(records, limit, floor),
			MinReviews:   floor,
			snapshotMeta: metaFor(session),
		})
	}
}

type recommendationsResponse struct {
	Category        string                    `json:"category"`
	MinReviews      int                       `json:"min_reviews"`
	Recommendations []listings.Recommendation `json:"recommendations"`
	snapshotMeta
}

func ListingsRecommendations(store sessions.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		minReviews, err := validators.ParseQueryInt(r, "min_reviews", listings.DefaultMinReviews, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category := validators.ParseQueryString(r, "category", defaultCategory, maxCategoryLength)

		session, ok := loadSession(w, r, store, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, recommendationsResponse{
			Category:        category,
			MinReviews:      minReviews,
			Recommendations: listings.Recommend(session.Listings(), category, minReviews),
			snapshotMeta:    metaFor(session),
		})
	}
}

type productCard struct {
	Brand          string `json:"brand"`
	Rating         string `json:"rating"`
	Reviews        int    `json:"reviews"`
	SearchPosition string `json:"search_position"`
}

type productResponse struct {
	Product listings.Record `json:"product"`
	Card    productCard     `json:"card"`
}

// ListingsProduct returns one record plus its display card.
func ListingsProduct(store sessions.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}
		session, ok := loadSession(w, r, store, logg)
		if !ok {
			return
		}
		record, found := listings.FindByID(session.Listings(), productID)
		if !found {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found in snapshot"))
			return
		}
		responses.WriteSuccess(w, productResponse{Product: record, Card: cardFor(record)})
	}
}

func cardFor(r listings.Record) productCard {
	card := productCard{
		Brand:          r.Brand,
		Rating:         notAvailable,
		Reviews:        r.ReviewCount,
		SearchPosition: fmt.Sprintf("#%d", r.SearchPosition),
	}
	if r.Rating != nil {
		card.Rating = fmt.Sprintf("%.2f", *r.Rating)
	}
	return card
}
