package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/campaign-intel-backend/api/responses"
	"github.com/angelmondragon/campaign-intel-backend/api/validators"
	"github.com/angelmondragon/campaign-intel-backend/internal/agent"
	"github.com/angelmondragon/campaign-intel-backend/internal/listings"
	"github.com/angelmondragon/campaign-intel-backend/internal/sessions"
	"github.com/angelmondragon/campaign-intel-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/logger"
)

// ChatAgent answers one conversational turn. Failures are already mapped to
// user-facing text.
type ChatAgent interface {
	Answer(ctx context.Context, q agent.Question) string
}

type chatRequest struct {
	Message   string `json:"message" validate:"required,max=4000"`
	ProductID string `json:"product_id,omitempty" validate:"omitempty,max=200"`
}

type chatResponse struct {
	Answer   string             `json:"answer"`
	Messages []sessions.Message `json:"messages"`
}

// SessionChat asks the agent, then records the raw prompt and the answer in
// the session history. Agent failures still produce 200 with the mapped text.
func SessionChat(store sessions.Store, chat ChatAgent, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if chat == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat agent unavailable"))
			return
		}
		session, ok := loadSession(w, r, store, logg)
		if !ok {
			return
		}

		var payload chatRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		message := strings.TrimSpace(payload.Message)
		if message == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"message": "is required"}))
			return
		}

		var product *listings.Record
		if id := strings.TrimSpace(payload.ProductID); id != "" {
			record, found := listings.FindByID(session.Listings(), id)
			if !found {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found in snapshot"))
				return
			}
			product = &record
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSessionID(ctx, session.ID.String())
		}

		history := make([]agent.Turn, 0, len(session.Messages))
		for _, m := range session.Messages {
			history = append(history, agent.Turn{Role: m.Role, Content: m.Content})
		}

		answer := chat.Answer(ctx, agent.Question{
			Listings: session.Listings(),
			History:  history,
			Prompt:   agent.FormatContextPrompt(product, message),
		})

		now := time.Now().UTC()
		updated, err := store.AppendMessages(ctx, session.ID,
			sessions.Message{Role: enums.MessageRoleUser, Content: message, CreatedAt: now},
			sessions.Message{Role: enums.MessageRoleAssistant, Content: answer, CreatedAt: now},
		)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, chatResponse{Answer: answer, Messages: updated.Messages})
	}
}
