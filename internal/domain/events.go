package domain

import "time"

// Event names pushed over live connections. The records behind them stay the
// durable source of truth; delivery is best-effort and never queued.
const (
	EventInviteReceived  = "invite:received"
	EventInviteStatus    = "invite:status"
	EventPresenceChanged = "presence:changed"
	EventSessionStarted  = "session:started"
	EventMoveApplied     = "move:applied"
)

type InviteReceivedEvent struct {
	ID        string    `json:"id"`
	FromEmail string    `json:"fromEmail"`
	ToEmail   string    `json:"toEmail"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type InviteStatusEvent struct {
	InviteID string       `json:"inviteId"`
	Status   InviteStatus `json:"status"`
	ByEmail  string       `json:"byEmail"`
}

type PresenceChangedEvent struct {
	Email  string `json:"email"`
	Online bool   `json:"online"`
}

type SessionStartedEvent struct {
	SessionID string    `json:"sessionId"`
	Players   [2]string `json:"players"`
}

type MoveAppliedEvent struct {
	SessionID string       `json:"sessionId"`
	Move      Move         `json:"move"`
	State     *GameSession `json:"state"`
}
