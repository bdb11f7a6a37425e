// Package session keeps short-lived per-user dialog state for the bot.
package session

import (
	"context"
)

// State names the step of the staff registration dialog a user is in.
type State string

const (
	// StateAwaitingCode: /staff was issued, waiting for the secret code.
	StateAwaitingCode State = "awaiting_code"
	// StateAwaitingSelection: code accepted, waiting for a master pick.
	StateAwaitingSelection State = "awaiting_selection"
)

// Session is the dialog state stored per Telegram user. StaffNames
// carries the candidate list between the code step and the selection
// step, keyed by YClients staff id.
type Session struct {
	State      State            `json:"state"`
	StaffNames map[int64]string `json:"staff_names,omitempty"`
}

// Store persists sessions. Entries expire on their own after the TTL
// so an abandoned dialog does not swallow later plain-text messages.
type Store interface {
	Get(ctx context.Context, userID int64) (Session, bool, error)
	Put(ctx context.Context, userID int64, s Session) error
	Delete(ctx context.Context, userID int64) error
}
