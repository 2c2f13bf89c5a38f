package sessions

import (
	"context"
	"time"

	"github.com/angelmondragon/campaign-intel-backend/internal/listings"
	"github.com/angelmondragon/campaign-intel-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/upstream"
	"github.com/google/uuid"
)

// Message is one conversation entry.
type Message struct {
	Role      enums.MessageRole `json:"role"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
}

// Snapshot is the result of the latest fetch. A failed fetch still produces
// a snapshot: empty listings with the reason and warning text.
type Snapshot struct {
	Query     string            `json:"query"`
	MaxItems  int               `json:"max_items"`
	FetchedAt time.Time         `json:"fetched_at"`
	Listings  []listings.Record `json:"listings"`
	Reason    upstream.Reason   `json:"reason,omitempty"`
	Warning   string            `json:"warning,omitempty"`
}

// Session is the per-client analysis state.
type Session struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Snapshot  *Snapshot `json:"snapshot"`
	Messages  []Message `json:"messages"`
}

// Listings returns the current snapshot's records, or nil before the first fetch.
func (s *Session) Listings() []listings.Record {
	if s == nil || s.Snapshot == nil {
		return nil
	}
	return s.Snapshot.Listings
}

// Store persists sessions. Implementations return copies so callers never
// share state with concurrent requests.
type Store interface {
	Create(ctx context.Context) (*Session, error)
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	ReplaceSnapshot(ctx context.Context, id uuid.UUID, snapshot Snapshot) (*Session, error)
	AppendMessages(ctx context.Context, id uuid.UUID, messages ...Message) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

func errNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}
}

func trimHistory(messages []Message, max int) []Message {
	if max <= 0 || len(messages) <= max {
		return messages
	}
	return messages[len(messages)-max:]
}

func cloneSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = append([]Message{}, s.Messages...)
	out.Snapshot = cloneSnapshot(s.Snapshot)
	return &out
}

func cloneSnapshot(s *Snapshot) *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Listings = append([]listings.Record{}, s.Listings...)
	return &out
}
