package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/campaign-intel-backend/api/responses"
	"github.com/angelmondragon/campaign-intel-backend/internal/sessions"
	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/logger"
)

func parseSessionID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "sessionId"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid session id")
	}
	return id, nil
}

// loadSession resolves the path session and writes the error response when
// it cannot. ok is false when the handler should stop.
func loadSession(w http.ResponseWriter, r *http.Request, store sessions.Store, logg *logger.Logger) (*sessions.Session, bool) {
	if store == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session store unavailable"))
		return nil, false
	}
	id, err := parseSessionID(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	session, err := store.Get(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return session, true
}

// snapshotMeta is embedded by every view derived from the session snapshot.
type snapshotMeta struct {
	NoData  bool   `json:"no_data"`
	Warning string `json:"warning,omitempty"`
}

func metaFor(session *sessions.Session) snapshotMeta {
	meta := snapshotMeta{NoData: len(session.Listings()) == 0}
	if session.Snapshot != nil {
		meta.Warning = session.Snapshot.Warning
	}
	return meta
}
