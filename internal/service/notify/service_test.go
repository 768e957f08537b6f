package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tictacduel/server/internal/service/presence"
)

type recordedEvent struct {
	event   string
	payload interface{}
}

type fakeConn struct {
	mu     sync.Mutex
	events []recordedEvent
	fail   bool
}

func (c *fakeConn) WriteEvent(event string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("write failed")
	}
	c.events = append(c.events, recordedEvent{event, payload})
	return nil
}

func (c *fakeConn) recorded() []recordedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]recordedEvent(nil), c.events...)
}

func TestSendDeliversToAllConnections(t *testing.T) {
	registry := presence.NewRegistry()
	svc := NewService(registry)

	c1, c2 := &fakeConn{}, &fakeConn{}
	registry.Register("b@x.com", c1)
	registry.Register("b@x.com", c2)

	svc.Send(context.Background(), "B@X.com", "invite:received", "payload")

	assert.Len(t, c1.recorded(), 1)
	assert.Len(t, c2.recorded(), 1)
	assert.Equal(t, "invite:received", c1.recorded()[0].event)
}

func TestSendToOfflineTargetIsNoop(t *testing.T) {
	registry := presence.NewRegistry()
	svc := NewService(registry)

	// no panic, no error surfaced
	svc.Send(context.Background(), "c@x.com", "invite:received", "payload")
}

func TestSendSwallowsWriteErrors(t *testing.T) {
	registry := presence.NewRegistry()
	svc := NewService(registry)

	broken := &fakeConn{fail: true}
	healthy := &fakeConn{}
	registry.Register("b@x.com", broken)
	registry.Register("b@x.com", healthy)

	svc.Send(context.Background(), "b@x.com", "move:applied", "payload")

	assert.Len(t, healthy.recorded(), 1)
}

func TestBroadcast(t *testing.T) {
	registry := presence.NewRegistry()
	svc := NewService(registry)

	c1, c2 := &fakeConn{}, &fakeConn{}
	registry.Register("a@x.com", c1)
	registry.Register("b@x.com", c2)

	svc.Broadcast(context.Background(), "presence:changed", "payload")

	assert.Len(t, c1.recorded(), 1)
	assert.Len(t, c2.recorded(), 1)
}
