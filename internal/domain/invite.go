package domain

import "time"

// Invite is a proposal from one identity to another to start a session.
// GameID is set if and only if the invite was accepted and session creation
// succeeded. Once the status leaves pending the invite is immutable.
type Invite struct {
	ID        string       `json:"id"`
	FromID    int64        `json:"from_id"`
	FromEmail string       `json:"from_email"`
	ToEmail   string       `json:"to_email"`
	Message   string       `json:"message,omitempty"`
	Status    InviteStatus `json:"status"`
	GameID    *string      `json:"game_id,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Lapsed reports whether the invite's optional deadline has passed.
func (inv *Invite) Lapsed(now time.Time) bool {
	return inv.ExpiresAt != nil && now.After(*inv.ExpiresAt)
}

// EffectiveStatus is the status as readers must see it: a pending invite whose
// deadline has passed reads as expired without requiring a background sweeper.
// The stored row is only rewritten on the first respond/cancel attempt.
func (inv *Invite) EffectiveStatus(now time.Time) InviteStatus {
	if inv.Status == StatusPending && inv.Lapsed(now) {
		return StatusExpired
	}
	return inv.Status
}
