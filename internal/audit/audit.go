// Package audit appends and reads the immutable action history. Rows are
// only ever inserted; nothing in the application updates or deletes them.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action labels recorded in the history. The column is free-form text, but
// this is the complete vocabulary the application emits.
const (
	ActionLogin      = "login"
	ActionLogout     = "logout"
	ActionSearch     = "search"
	ActionCreateUser = "create_user"
	ActionDeleteUser = "delete_user"
)

// Event is one append-only history row, always attributed to an
// authenticated principal.
type Event struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  *string   `json:"username,omitempty"`
	PersonID  *int64    `json:"person_id,omitempty"`
	Action    string    `json:"action"`
	Details   *string   `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryPageSize is the fixed page size of the history surface.
const HistoryPageSize = 50

// HistoryPage is one page of history rows.
type HistoryPage struct {
	Items      []Event `json:"items"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
}
