package notify

import (
	"context"
	"log"

	"github.com/tictacduel/server/internal/service/presence"
)

// Service delivers events to the live connections of a resolved identity.
// Delivery is best-effort: there is no durable queue and no retry. The
// invite/session records remain the source of truth a client can pull on
// its next connect.
type Service struct {
	registry *presence.Registry
}

func NewService(registry *presence.Registry) *Service {
	return &Service{registry: registry}
}

// Send delivers an event to every live connection of the target identity.
// Zero connections is a no-op, not an error. Write failures are logged and
// swallowed.
func (s *Service) Send(ctx context.Context, toEmail, event string, payload interface{}) {
	conns := s.registry.Connections(toEmail)
	if len(conns) == 0 {
		return
	}

	for _, conn := range conns {
		if err := conn.WriteEvent(event, payload); err != nil {
			log.Printf("[NOTIFY] Failed to deliver %s to %s: %v", event, toEmail, err)
		}
	}
}

// Broadcast delivers an event to every live connection in the registry.
// Used for presence changes.
func (s *Service) Broadcast(ctx context.Context, event string, payload interface{}) {
	for _, conn := range s.registry.AllConnections() {
		if err := conn.WriteEvent(event, payload); err != nil {
			log.Printf("[NOTIFY] Failed to broadcast %s: %v", event, err)
		}
	}
}
