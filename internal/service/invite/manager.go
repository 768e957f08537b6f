package invite

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/tictacduel/server/internal/domain"
)

// Repository is the durable store for invite records. UpdateStatus must be an
// atomic conditional update at the persistence layer, since multiple process
// instances may race on the same invite.
type Repository interface {
	Insert(ctx context.Context, inv *domain.Invite) error
	GetByID(ctx context.Context, id string) (*domain.Invite, error)
	ListByRecipient(ctx context.Context, email string) ([]domain.Invite, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.InviteStatus) (bool, error)
	SetGameID(ctx context.Context, id, gameID string) error
}

// SessionCreator creates the game session for an accepted invite. Idempotency
// is enforced here, by the invite's conditional status transition: only the
// respond call that wins the transition ever reaches CreateSession.
type SessionCreator interface {
	CreateSession(ctx context.Context, players [2]domain.Identity) (*domain.GameSession, error)
}

// Notifier pushes best-effort events to live connections.
type Notifier interface {
	Send(ctx context.Context, toEmail, event string, payload interface{})
}

// OnlineChecker answers presence queries.
type OnlineChecker interface {
	IsOnline(email string) bool
}

// Decision is a recipient's answer to a pending invite.
type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

// Manager owns the invite lifecycle state machine.
type Manager struct {
	repo     Repository
	games    SessionCreator
	notify   Notifier
	presence OnlineChecker
	validate *validator.Validate
}

func NewManager(repo Repository, games SessionCreator, notify Notifier, presence OnlineChecker) *Manager {
	return &Manager{
		repo:     repo,
		games:    games,
		notify:   notify,
		presence: presence,
		validate: validator.New(),
	}
}

// Create persists a pending invite and notifies the target if online.
// Notification failure never fails the call.
func (m *Manager) Create(ctx context.Context, from domain.Identity, toEmail, message string, expiresAt *time.Time) (*domain.Invite, error) {
	to := domain.NormalizeEmail(toEmail)

	if err := m.validate.Var(to, "required,email"); err != nil {
		return nil, fmt.Errorf("invalid recipient email %q: %w", toEmail, domain.ErrValidation)
	}
	if to == domain.NormalizeEmail(from.Email) {
		return nil, fmt.Errorf("cannot invite yourself: %w", domain.ErrValidation)
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("expiry is in the past: %w", domain.ErrValidation)
	}

	inv := &domain.Invite{
		ID:        uuid.NewString(),
		FromID:    from.ID,
		FromEmail: domain.NormalizeEmail(from.Email),
		ToEmail:   to,
		Message:   message,
		Status:    domain.StatusPending,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	if err := m.repo.Insert(ctx, inv); err != nil {
		return nil, fmt.Errorf("persist invite: %w", err)
	}

	log.Printf("[INVITE] %s invited %s (invite %s)", inv.FromEmail, inv.ToEmail, inv.ID)

	if m.presence.IsOnline(to) {
		go m.notify.Send(context.WithoutCancel(ctx), to, domain.EventInviteReceived, domain.InviteReceivedEvent{
			ID:        inv.ID,
			FromEmail: inv.FromEmail,
			ToEmail:   inv.ToEmail,
			Message:   inv.Message,
			CreatedAt: inv.CreatedAt,
		})
	}

	return inv, nil
}

// List returns invites addressed to the caller, newest first, with lapsed
// pending invites surfaced as expired.
func (m *Manager) List(ctx context.Context, caller domain.Identity) ([]domain.Invite, error) {
	invites, err := m.repo.ListByRecipient(ctx, domain.NormalizeEmail(caller.Email))
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}

	now := time.Now()
	for i := range invites {
		invites[i].Status = invites[i].EffectiveStatus(now)
	}
	return invites, nil
}

// Respond applies the recipient's decision. The pending→terminal transition
// is a compare-and-set at the persistence layer, so of two concurrent
// responses at most one wins; the loser gets ErrConflict. Accepting creates
// the session exactly once and broadcasts session-start to both identities.
func (m *Manager) Respond(ctx context.Context, inviteID string, responder domain.Identity, decision Decision) (*domain.Invite, error) {
	target, err := decisionStatus(decision)
	if err != nil {
		return nil, err
	}

	inv, err := m.loadInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	// the party check comes first so a third party learns nothing about the
	// invite's state
	if domain.NormalizeEmail(responder.Email) != inv.ToEmail {
		return nil, fmt.Errorf("invite %s is not addressed to %s: %w", inviteID, responder.Email, domain.ErrForbidden)
	}
	if err := m.ensurePending(ctx, inv); err != nil {
		return nil, err
	}

	won, err := m.repo.UpdateStatus(ctx, inv.ID, domain.StatusPending, target)
	if err != nil {
		return nil, fmt.Errorf("transition invite: %w", err)
	}
	if !won {
		return nil, fmt.Errorf("invite %s already resolved: %w", inviteID, domain.ErrConflict)
	}
	inv.Status = target

	if decision == DecisionAccept {
		sender := domain.Identity{ID: inv.FromID, Email: inv.FromEmail}
		session, err := m.games.CreateSession(ctx, [2]domain.Identity{sender, responder})
		if err != nil {
			log.Printf("[INVITE] Session creation failed for accepted invite %s: %v", inv.ID, err)
			return nil, fmt.Errorf("create session: %w", err)
		}
		if err := m.repo.SetGameID(ctx, inv.ID, session.ID); err != nil {
			log.Printf("[INVITE] Failed to store game id on invite %s: %v", inv.ID, err)
		}
		inv.GameID = &session.ID

		started := domain.SessionStartedEvent{
			SessionID: session.ID,
			Players:   session.PlayerEmails(),
		}
		m.notify.Send(ctx, inv.FromEmail, domain.EventSessionStarted, started)
		m.notify.Send(ctx, inv.ToEmail, domain.EventSessionStarted, started)
	}

	log.Printf("[INVITE] Invite %s is now %s (by %s)", inv.ID, inv.Status, inv.ToEmail)

	m.notify.Send(ctx, inv.FromEmail, domain.EventInviteStatus, domain.InviteStatusEvent{
		InviteID: inv.ID,
		Status:   inv.Status,
		ByEmail:  inv.ToEmail,
	})

	return inv, nil
}

// Cancel withdraws a pending invite. Only the original sender may cancel.
func (m *Manager) Cancel(ctx context.Context, inviteID string, requester domain.Identity) (*domain.Invite, error) {
	inv, err := m.loadInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if domain.NormalizeEmail(requester.Email) != inv.FromEmail {
		return nil, fmt.Errorf("invite %s was not sent by %s: %w", inviteID, requester.Email, domain.ErrForbidden)
	}
	if err := m.ensurePending(ctx, inv); err != nil {
		return nil, err
	}

	won, err := m.repo.UpdateStatus(ctx, inv.ID, domain.StatusPending, domain.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("transition invite: %w", err)
	}
	if !won {
		return nil, fmt.Errorf("invite %s already resolved: %w", inviteID, domain.ErrConflict)
	}
	inv.Status = domain.StatusCancelled

	log.Printf("[INVITE] %s cancelled invite %s", inv.FromEmail, inv.ID)

	m.notify.Send(ctx, inv.ToEmail, domain.EventInviteStatus, domain.InviteStatusEvent{
		InviteID: inv.ID,
		Status:   domain.StatusCancelled,
		ByEmail:  inv.FromEmail,
	})

	return inv, nil
}

func (m *Manager) loadInvite(ctx context.Context, inviteID string) (*domain.Invite, error) {
	inv, err := m.repo.GetByID(ctx, inviteID)
	if err != nil {
		return nil, fmt.Errorf("load invite: %w", err)
	}
	if inv == nil {
		return nil, fmt.Errorf("invite %s: %w", inviteID, domain.ErrNotFound)
	}
	return inv, nil
}

// ensurePending rejects invites that can no longer transition. The first
// attempt against a lapsed pending invite persists the expired status through
// the same conditional update.
func (m *Manager) ensurePending(ctx context.Context, inv *domain.Invite) error {
	if inv.Status == domain.StatusPending && inv.Lapsed(time.Now()) {
		if _, err := m.repo.UpdateStatus(ctx, inv.ID, domain.StatusPending, domain.StatusExpired); err != nil {
			log.Printf("[INVITE] Failed to persist expiry for invite %s: %v", inv.ID, err)
		}
		return fmt.Errorf("invite %s expired: %w", inv.ID, domain.ErrConflict)
	}
	if inv.Status != domain.StatusPending {
		return fmt.Errorf("invite %s is %s: %w", inv.ID, inv.Status, domain.ErrConflict)
	}
	return nil
}

func decisionStatus(d Decision) (domain.InviteStatus, error) {
	switch d {
	case DecisionAccept:
		return domain.StatusAccepted, nil
	case DecisionDecline:
		return domain.StatusDeclined, nil
	default:
		return "", fmt.Errorf("unknown decision %q: %w", d, domain.ErrValidation)
	}
}
