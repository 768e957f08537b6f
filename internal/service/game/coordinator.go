package game

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tictacduel/server/internal/domain"
)

// Repository is the durable store for session records. SaveMoves carries a
// move-count guard so that writers from other processes cannot interleave
// with the in-process serialization below.
type Repository interface {
	Insert(ctx context.Context, s *domain.GameSession) error
	GetByID(ctx context.Context, id string) (*domain.GameSession, error)
	SaveMoves(ctx context.Context, id string, moves []domain.Move, expectedCount int, winner domain.Winner) (bool, error)
}

// Cache is an optional read cache in front of the repository.
type Cache interface {
	Get(ctx context.Context, id string) (*domain.GameSession, bool)
	Set(ctx context.Context, s *domain.GameSession)
}

// Notifier pushes best-effort events to live connections.
type Notifier interface {
	Send(ctx context.Context, toEmail, event string, payload interface{})
}

type lockEntry struct {
	mu       sync.Mutex
	lastUsed time.Time
}

// Coordinator owns the authoritative board state for in-progress sessions.
// Moves on one session are linearized by a per-session lock; sessions are
// fully independent of each other.
type Coordinator struct {
	repo   Repository
	cache  Cache
	notify Notifier

	mu    sync.Mutex
	locks map[string]*lockEntry
}

func NewCoordinator(repo Repository, cache Cache, notify Notifier) *Coordinator {
	return &Coordinator{
		repo:   repo,
		cache:  cache,
		notify: notify,
		locks:  make(map[string]*lockEntry),
	}
}

// CreateSession persists a new session for an ordered pair of players:
// players[0] is X and moves first, players[1] is O. The coordinator performs
// no deduplication; calling it once per accepted invite is the invite
// manager's conditional-update contract.
func (c *Coordinator) CreateSession(ctx context.Context, players [2]domain.Identity) (*domain.GameSession, error) {
	if domain.NormalizeEmail(players[0].Email) == domain.NormalizeEmail(players[1].Email) {
		return nil, fmt.Errorf("a session needs two distinct players: %w", domain.ErrValidation)
	}

	session := &domain.GameSession{
		ID:        uuid.NewString(),
		PlayerX:   players[0],
		PlayerO:   players[1],
		Moves:     []domain.Move{},
		CreatedAt: time.Now().UTC(),
	}

	if err := c.repo.Insert(ctx, session); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	if c.cache != nil {
		c.cache.Set(ctx, session)
	}

	log.Printf("[GAME] Created session %s: %s (X) vs %s (O)", session.ID, session.PlayerX.Email, session.PlayerO.Email)
	return session, nil
}

// ApplyMove validates and appends a move as a single serialized operation per
// session. Of two near-simultaneous submissions the first to acquire the
// per-session lock wins; the second observes the updated state and fails with
// ErrConflict (stale cell or wrong turn). Delivery to the players happens
// after the lock is released, so a stalled connection never holds up the
// opponent's next move.
func (c *Coordinator) ApplyMove(ctx context.Context, sessionID string, requester domain.Identity, cell int) (*domain.GameSession, error) {
	session, err := c.appendMove(ctx, sessionID, requester, cell)
	if err != nil {
		return nil, err
	}

	event := domain.MoveAppliedEvent{
		SessionID: session.ID,
		Move:      session.Moves[len(session.Moves)-1],
		State:     session,
	}
	for _, email := range session.PlayerEmails() {
		c.notify.Send(ctx, email, domain.EventMoveApplied, event)
	}

	return session, nil
}

// appendMove holds the per-session lock for the load-validate-persist part of
// a move only.
func (c *Coordinator) appendMove(ctx context.Context, sessionID string, requester domain.Identity, cell int) (*domain.GameSession, error) {
	entry := c.lockFor(sessionID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	session, err := c.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sign, isPlayer := session.SignOf(requester.Email)
	if !isPlayer {
		return nil, fmt.Errorf("%s is not a player in session %s: %w", requester.Email, sessionID, domain.ErrForbidden)
	}
	if session.IsTerminal() {
		return nil, fmt.Errorf("session %s is finished: %w", sessionID, domain.ErrConflict)
	}
	if !domain.ValidCell(cell) {
		return nil, fmt.Errorf("cell %d is outside the board: %w", cell, domain.ErrValidation)
	}
	if session.CellTaken(cell) {
		return nil, fmt.Errorf("cell %d already occupied: %w", cell, domain.ErrConflict)
	}
	if session.TurnSign() != sign {
		return nil, fmt.Errorf("not your turn: %w", domain.ErrConflict)
	}

	moves := append(session.Moves, domain.Move{
		Sign:     sign,
		Cell:     cell,
		PlayedAt: time.Now().UTC(),
	})
	winner := domain.Outcome(moves)

	saved, err := c.repo.SaveMoves(ctx, sessionID, moves, len(session.Moves), winner)
	if err != nil {
		return nil, fmt.Errorf("persist move: %w", err)
	}
	if !saved {
		// another process appended first; refresh the cache and report
		// the same conflict a lock loser would see
		if fresh, err := c.repo.GetByID(ctx, sessionID); err == nil && fresh != nil && c.cache != nil {
			c.cache.Set(ctx, fresh)
		}
		return nil, fmt.Errorf("session %s changed underneath: %w", sessionID, domain.ErrConflict)
	}

	session.Moves = moves
	session.Winner = winner
	if c.cache != nil {
		c.cache.Set(ctx, session)
	}

	if winner != domain.WinnerNone {
		log.Printf("[GAME] Session %s finished: winner=%s after %d moves", session.ID, winner, len(moves))
	}

	return session, nil
}

// GetSession returns the full current state for one of the session's players.
// A client that reconnects mid-game rebuilds its board from this single call.
func (c *Coordinator) GetSession(ctx context.Context, sessionID string, requester domain.Identity) (*domain.GameSession, error) {
	session, err := c.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsPlayer(requester) {
		return nil, fmt.Errorf("%s is not a player in session %s: %w", requester.Email, sessionID, domain.ErrForbidden)
	}
	return session, nil
}

func (c *Coordinator) load(ctx context.Context, sessionID string) (*domain.GameSession, error) {
	if c.cache != nil {
		if session, ok := c.cache.Get(ctx, sessionID); ok {
			return session, nil
		}
	}

	session, err := c.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	if c.cache != nil {
		c.cache.Set(ctx, session)
	}
	return session, nil
}

func (c *Coordinator) lockFor(sessionID string) *lockEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.locks[sessionID]
	if !ok {
		entry = &lockEntry{}
		c.locks[sessionID] = entry
	}
	entry.lastUsed = time.Now()
	return entry
}

// sweepLocks drops lock entries idle for longer than maxIdle. The move-count
// guard in SaveMoves backstops a swept entry, so this is memory hygiene only.
func (c *Coordinator) sweepLocks(maxIdle time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for id, entry := range c.locks {
		if entry.lastUsed.Before(cutoff) {
			delete(c.locks, id)
			removed++
		}
	}
	return removed
}
