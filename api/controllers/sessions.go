package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/campaign-intel-backend/api/responses"
	"github.com/angelmondragon/campaign-intel-backend/api/validators"
	"github.com/angelmondragon/campaign-intel-backend/internal/listings"
	"github.com/angelmondragon/campaign-intel-backend/internal/sessions"
	"github.com/angelmondragon/campaign-intel-backend/internal/shopping"
	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/logger"
	"github.com/angelmondragon/campaign-intel-backend/pkg/upstream"
)

// SessionCreate opens an empty analysis session.
func SessionCreate(store sessions.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session store unavailable"))
			return
		}
		session, err := store.Create(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithSessionID(r.Context(), session.ID.String()), "session.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

func SessionGet(store sessions.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := loadSession(w, r, store, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func SessionDelete(store sessions.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session store unavailable"))
			return
		}
		id, err := parseSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "deleted": true})
	}
}

type refreshRequest struct {
	Query    string `json:"query,omitempty" validate:"omitempty,max=200"`
	MaxItems *int   `json:"max_items,omitempty" validate:"omitempty,min=1,max=100"`
}

type refreshResponse struct {
	Query     string            `json:"query"`
	FetchedAt time.Time         `json:"fetched_at"`
	Count     int               `json:"count"`
	Listings  []listings.Record `json:"listings"`
	Reason    upstream.Reason   `json:"reason,omitempty"`
	snapshotMeta
}

// SessionRefresh fetches fresh listings and replaces the session snapshot.
// A failing provider still yields 200 with empty listings and a warning.
func SessionRefresh(store sessions.Store, svc shopping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shopping service unavailable"))
			return
		}
		session, ok := loadSession(w, r, store, logg)
		if !ok {
			return
		}

		var payload refreshRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := shopping.Query{Keyword: strings.TrimSpace(payload.Query)}
		if payload.MaxItems != nil {
			query.MaxItems = *payload.MaxItems
		}
		defaults := svc.DefaultQuery()
		if query.Keyword == "" {
			query.Keyword = defaults.Keyword
		}
		if query.MaxItems == 0 {
			query.MaxItems = defaults.MaxItems
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSessionID(ctx, session.ID.String())
		}
		result := svc.Fetch(ctx, query)

		snapshot := sessions.Snapshot{
			Query:     query.Keyword,
			MaxItems:  query.MaxItems,
			FetchedAt: time.Now().UTC(),
			Listings:  result.Data,
			Reason:    result.Reason,
			Warning:   result.Warning(),
		}
		if snapshot.Listings == nil {
			snapshot.Listings = []listings.Record{}
		}

		updated, err := store.ReplaceSnapshot(ctx, session.ID, snapshot)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, refreshResponse{
			Query:        updated.Snapshot.Query,
			FetchedAt:    updated.Snapshot.FetchedAt,
			Count:        len(updated.Listings()),
			Listings:     updated.Snapshot.Listings,
			Reason:       updated.Snapshot.Reason,
			snapshotMeta: metaFor(updated),
		})
	}
}
