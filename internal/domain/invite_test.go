package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInviteEffectiveStatus(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	tests := []struct {
		name   string
		invite Invite
		want   InviteStatus
	}{
		{name: "pending with no deadline", invite: Invite{Status: StatusPending}, want: StatusPending},
		{name: "pending before deadline", invite: Invite{Status: StatusPending, ExpiresAt: &future}, want: StatusPending},
		{name: "pending past deadline reads expired", invite: Invite{Status: StatusPending, ExpiresAt: &past}, want: StatusExpired},
		{name: "accepted never reclassifies", invite: Invite{Status: StatusAccepted, ExpiresAt: &past}, want: StatusAccepted},
		{name: "declined never reclassifies", invite: Invite{Status: StatusDeclined, ExpiresAt: &past}, want: StatusDeclined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.invite.EffectiveStatus(now))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.Com "))
	assert.Equal(t, "b@x.com", NormalizeEmail("b@x.com"))
}
