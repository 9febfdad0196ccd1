package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/khmerdata/registry/internal/principal"
)

// Store is the narrow write surface the recorder needs.
type Store interface {
	Insert(ctx context.Context, e Event) error
}

// Recorder appends best-effort history rows for read-only actions (search,
// login, logout). A failed append is logged and swallowed: losing one of
// these entries is tolerable, failing the triggering action is not.
// Mutating actions do not go through the recorder; they use InsertTx inside
// their own transaction.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record appends one event attributed to the actor. Anonymous actions are
// never logged.
func (r *Recorder) Record(ctx context.Context, actor principal.Principal, action string, personID *int64, details string) {
	if actor.ID == uuid.Nil {
		return
	}

	e := Event{UserID: actor.ID, PersonID: personID, Action: action}
	if details != "" {
		e.Details = &details
	}

	if err := r.store.Insert(ctx, e); err != nil {
		log.Warn().Err(err).
			Str("action", action).
			Str("user", actor.Username).
			Msg("audit append failed")
	}
}
