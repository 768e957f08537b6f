package domain

import "strings"

// Sign identifies a player's mark on the board.
type Sign string

const (
	SignX Sign = "X"
	SignO Sign = "O"
)

// Winner is the terminal outcome of a session. Empty while the game is open.
type Winner string

const (
	WinnerNone Winner = ""
	WinnerX    Winner = "X"
	WinnerO    Winner = "O"
	WinnerDraw Winner = "draw"
)

// InviteStatus is the invite lifecycle state. Only pending invites may
// transition, and only once.
type InviteStatus string

const (
	StatusPending   InviteStatus = "pending"
	StatusAccepted  InviteStatus = "accepted"
	StatusDeclined  InviteStatus = "declined"
	StatusCancelled InviteStatus = "cancelled"
	StatusExpired   InviteStatus = "expired"
)

// Identity is a verified caller supplied by the external credential system.
// The core consumes verified identities, it never issues or re-checks credentials.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// NormalizeEmail case-folds an email for comparisons and map keys. Emails are
// the cross-system matching key since a recipient may not be registered yet.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// basic error kinds that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrUnauthorized Error = "unauthorized"
	ErrForbidden    Error = "forbidden"
	ErrValidation   Error = "validation failed"
	ErrConflict     Error = "conflict"
	ErrNotFound     Error = "not found"
)
