package game

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tictacduel/server/internal/domain"
)

var (
	alice = domain.Identity{ID: 1, Email: "a@x.com"}
	bob   = domain.Identity{ID: 2, Email: "b@x.com"}
	carol = domain.Identity{ID: 3, Email: "c@x.com"}
)

// memGameRepo mimics the Postgres repo, including the move-count guard.
type memGameRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.GameSession
}

func newMemGameRepo() *memGameRepo {
	return &memGameRepo{sessions: make(map[string]*domain.GameSession)}
}

func (r *memGameRepo) Insert(ctx context.Context, s *domain.GameSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *s
	clone.Moves = append([]domain.Move(nil), s.Moves...)
	r.sessions[s.ID] = &clone
	return nil
}

func (r *memGameRepo) GetByID(ctx context.Context, id string) (*domain.GameSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	clone := *s
	clone.Moves = append([]domain.Move(nil), s.Moves...)
	return &clone, nil
}

func (r *memGameRepo) SaveMoves(ctx context.Context, id string, moves []domain.Move, expectedCount int, winner domain.Winner) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || len(s.Moves) != expectedCount {
		return false, nil
	}
	s.Moves = append([]domain.Move(nil), moves...)
	s.Winner = winner
	return true, nil
}

type memNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *memNotifier) Send(ctx context.Context, toEmail, event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, toEmail+":"+event)
}

func (n *memNotifier) count(key string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e == key {
			c++
		}
	}
	return c
}

func newTestCoordinator() (*Coordinator, *memGameRepo, *memNotifier) {
	repo := newMemGameRepo()
	notifier := &memNotifier{}
	return NewCoordinator(repo, nil, notifier), repo, notifier
}

func TestCreateSession(t *testing.T) {
	c, _, _ := newTestCoordinator()

	s, err := c.CreateSession(context.Background(), [2]domain.Identity{alice, bob})
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, alice, s.PlayerX)
	assert.Equal(t, bob, s.PlayerO)
	assert.Empty(t, s.Moves)
	assert.False(t, s.IsTerminal())
}

func TestCreateSessionRejectsSamePlayer(t *testing.T) {
	c, _, _ := newTestCoordinator()

	shouting := domain.Identity{ID: 9, Email: "A@X.COM"}
	_, err := c.CreateSession(context.Background(), [2]domain.Identity{alice, shouting})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestApplyMove(t *testing.T) {
	c, _, notifier := newTestCoordinator()
	ctx := context.Background()

	s, err := c.CreateSession(ctx, [2]domain.Identity{alice, bob})
	require.NoError(t, err)

	s, err = c.ApplyMove(ctx, s.ID, alice, 4)
	require.NoError(t, err)
	require.Len(t, s.Moves, 1)
	assert.Equal(t, domain.SignX, s.Moves[0].Sign)
	assert.Equal(t, 4, s.Moves[0].Cell)

	// both players are told about the move
	assert.Equal(t, 1, notifier.count("a@x.com:"+domain.EventMoveApplied))
	assert.Equal(t, 1, notifier.count("b@x.com:"+domain.EventMoveApplied))
}

func TestApplyMoveFailures(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Coordinator, *domain.GameSession) {
		c, _, _ := newTestCoordinator()
		s, err := c.CreateSession(ctx, [2]domain.Identity{alice, bob})
		require.NoError(t, err)
		return c, s
	}

	t.Run("unknown session", func(t *testing.T) {
		c, _ := setup(t)
		_, err := c.ApplyMove(ctx, "missing", alice, 0)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("non-player", func(t *testing.T) {
		c, s := setup(t)
		_, err := c.ApplyMove(ctx, s.ID, carol, 0)
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("cell out of range", func(t *testing.T) {
		c, s := setup(t)
		_, err := c.ApplyMove(ctx, s.ID, alice, 9)
		assert.True(t, errors.Is(err, domain.ErrValidation))

		_, err = c.ApplyMove(ctx, s.ID, alice, -1)
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("out of turn", func(t *testing.T) {
		c, s := setup(t)

		// O may not open the game
		_, err := c.ApplyMove(ctx, s.ID, bob, 0)
		assert.True(t, errors.Is(err, domain.ErrConflict))

		_, err = c.ApplyMove(ctx, s.ID, alice, 4)
		require.NoError(t, err)

		// X may not move twice in a row
		_, err = c.ApplyMove(ctx, s.ID, alice, 0)
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})

	t.Run("occupied cell", func(t *testing.T) {
		c, s := setup(t)
		_, err := c.ApplyMove(ctx, s.ID, alice, 4)
		require.NoError(t, err)

		_, err = c.ApplyMove(ctx, s.ID, bob, 4)
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})
}

func TestApplyMoveWin(t *testing.T) {
	c, repo, _ := newTestCoordinator()
	ctx := context.Background()

	s, err := c.CreateSession(ctx, [2]domain.Identity{alice, bob})
	require.NoError(t, err)

	// X takes the 0-4-8 diagonal
	plays := []struct {
		who  domain.Identity
		cell int
	}{
		{alice, 0}, {bob, 1}, {alice, 4}, {bob, 2}, {alice, 8},
	}
	var final *domain.GameSession
	for _, p := range plays {
		final, err = c.ApplyMove(ctx, s.ID, p.who, p.cell)
		require.NoError(t, err)
	}

	assert.Equal(t, domain.WinnerX, final.Winner)
	assert.True(t, final.IsTerminal())

	// terminal sessions reject every further move and stay unchanged
	_, err = c.ApplyMove(ctx, s.ID, bob, 5)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	stored, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Moves, 5)
	assert.Equal(t, domain.WinnerX, stored.Winner)
}

func TestApplyMoveDraw(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()

	s, err := c.CreateSession(ctx, [2]domain.Identity{alice, bob})
	require.NoError(t, err)

	// full board with no line for either sign
	cells := []int{0, 2, 1, 3, 5, 4, 6, 7, 8}
	players := [2]domain.Identity{alice, bob}
	var final *domain.GameSession
	for i, cell := range cells {
		final, err = c.ApplyMove(ctx, s.ID, players[i%2], cell)
		require.NoError(t, err)
	}

	assert.Equal(t, domain.WinnerDraw, final.Winner)
	assert.Len(t, final.Moves, 9)
}

func TestGetSession(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()

	s, err := c.CreateSession(ctx, [2]domain.Identity{alice, bob})
	require.NoError(t, err)
	_, err = c.ApplyMove(ctx, s.ID, alice, 4)
	require.NoError(t, err)
	_, err = c.ApplyMove(ctx, s.ID, bob, 0)
	require.NoError(t, err)

	// a late-joining player rebuilds the board from a single read
	got, err := c.GetSession(ctx, s.ID, bob)
	require.NoError(t, err)
	require.Len(t, got.Moves, 2)
	assert.Equal(t, domain.SignX, got.Moves[0].Sign)
	assert.Equal(t, domain.SignO, got.Moves[1].Sign)

	_, err = c.GetSession(ctx, s.ID, carol)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = c.GetSession(ctx, "missing", alice)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestConcurrentMovesOneWinner(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()

	s, err := c.CreateSession(ctx, [2]domain.Identity{alice, bob})
	require.NoError(t, err)

	// two racing submissions for X's opening move: exactly one applies
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i, cell int) {
			defer wg.Done()
			_, errs[i] = c.ApplyMove(ctx, s.ID, alice, cell)
		}(i, i) // cells 0 and 1
	}
	wg.Wait()

	var applied, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			applied++
		case errors.Is(err, domain.ErrConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, applied)
	assert.Equal(t, 1, conflicted)

	got, err := c.GetSession(ctx, s.ID, alice)
	require.NoError(t, err)
	assert.Len(t, got.Moves, 1)
}

// stallNotifier hangs on its first delivery until released; later calls pass
// straight through.
type stallNotifier struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (n *stallNotifier) Send(ctx context.Context, toEmail, event string, payload interface{}) {
	if n.calls.Add(1) == 1 {
		close(n.entered)
		<-n.release
	}
}

func TestApplyMoveDeliveryOutsideSessionLock(t *testing.T) {
	repo := newMemGameRepo()
	notifier := &stallNotifier{entered: make(chan struct{}), release: make(chan struct{})}
	c := NewCoordinator(repo, nil, notifier)
	ctx := context.Background()

	s, err := c.CreateSession(ctx, [2]domain.Identity{alice, bob})
	require.NoError(t, err)

	// X's move persists, then hangs on delivery to a stalled connection
	firstDone := make(chan error, 1)
	go func() {
		_, err := c.ApplyMove(ctx, s.ID, alice, 0)
		firstDone <- err
	}()
	<-notifier.entered

	// the stalled delivery must not hold the session lock against O's reply
	secondDone := make(chan error, 1)
	go func() {
		_, err := c.ApplyMove(ctx, s.ID, bob, 1)
		secondDone <- err
	}()

	select {
	case err := <-secondDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("move blocked behind a stalled delivery")
	}

	close(notifier.release)
	require.NoError(t, <-firstDone)
}

func TestSweepLocks(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()

	s, err := c.CreateSession(ctx, [2]domain.Identity{alice, bob})
	require.NoError(t, err)
	_, err = c.ApplyMove(ctx, s.ID, alice, 0)
	require.NoError(t, err)

	assert.Equal(t, 0, c.sweepLocks(time.Minute))
	assert.Equal(t, 1, c.sweepLocks(0))

	// a swept lock is recreated transparently on the next move
	_, err = c.ApplyMove(ctx, s.ID, bob, 1)
	require.NoError(t, err)
}
