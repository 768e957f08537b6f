package presence

import (
	"log"
	"sync"

	"github.com/tictacduel/server/internal/domain"
)

// Conn is a live real-time connection that events can be written to.
// Implementations must be safe for concurrent writes.
type Conn interface {
	WriteEvent(event string, payload interface{}) error
}

// ChangeFunc is invoked when an identity transitions between online and
// offline. Calls arrive one at a time, in the order the transitions
// committed, and never under the registry lock.
type ChangeFunc func(email string, online bool)

type change struct {
	email  string
	online bool
}

// Registry tracks which identities currently have at least one live
// connection. It is process-local and only caches connectivity; it never
// holds correctness-critical game state.
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]map[Conn]struct{}
	onChange ChangeFunc

	// queued transitions, drained in order by a single goroutine at a time
	pending  []change
	emitting bool
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]map[Conn]struct{}),
	}
}

// OnChange installs the presence-changed hook. Must be called during wiring,
// before connections arrive.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.onChange = fn
}

// Register adds a connection for the identity. The first connection for an
// email makes it online.
func (r *Registry) Register(email string, conn Conn) {
	key := domain.NormalizeEmail(email)

	r.mu.Lock()
	set, exists := r.conns[key]
	if !exists {
		set = make(map[Conn]struct{})
		r.conns[key] = set
	}
	set[conn] = struct{}{}
	if !exists {
		log.Printf("[PRESENCE] %s online", key)
		r.emitLocked(change{email: key, online: true})
		return
	}
	r.mu.Unlock()
}

// Unregister removes a connection. The entry is removed entirely, not just
// decremented, when its set becomes empty.
func (r *Registry) Unregister(email string, conn Conn) {
	key := domain.NormalizeEmail(email)

	r.mu.Lock()
	set, exists := r.conns[key]
	if exists {
		delete(set, conn)
		if len(set) == 0 {
			delete(r.conns, key)
			log.Printf("[PRESENCE] %s offline", key)
			r.emitLocked(change{email: key, online: false})
			return
		}
	}
	r.mu.Unlock()
}

// emitLocked queues a transition and, unless another goroutine is already
// draining, delivers queued transitions in order. Called with r.mu held;
// returns with it released. The hook never runs under the registry lock, so
// a slow consumer cannot block presence reads, and queueing behind an active
// drain returns immediately.
func (r *Registry) emitLocked(c change) {
	if r.onChange == nil {
		r.mu.Unlock()
		return
	}
	r.pending = append(r.pending, c)
	if r.emitting {
		r.mu.Unlock()
		return
	}
	r.emitting = true
	for {
		batch := r.pending
		r.pending = nil
		r.mu.Unlock()

		for _, ch := range batch {
			r.onChange(ch.email, ch.online)
		}

		r.mu.Lock()
		if len(r.pending) == 0 {
			r.emitting = false
			r.mu.Unlock()
			return
		}
	}
}

// IsOnline reports whether the identity has at least one live connection.
func (r *Registry) IsOnline(email string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[domain.NormalizeEmail(email)]) > 0
}

// Connections returns a snapshot of the identity's live connections.
func (r *Registry) Connections(email string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[domain.NormalizeEmail(email)]
	conns := make([]Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	return conns
}

// AllConnections returns a snapshot of every live connection.
func (r *Registry) AllConnections() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var conns []Conn
	for _, set := range r.conns {
		for c := range set {
			conns = append(conns, c)
		}
	}
	return conns
}
