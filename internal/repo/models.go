package repo

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken models one row of the refresh_tokens table. Only the SHA-256
// hash of the token ever touches storage.
type RefreshToken struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}
