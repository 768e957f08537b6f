package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tictacduel/server/internal/domain"
)

// SessionCache is a read-through cache for session records. Postgres stays
// the source of truth; a miss or any Redis error just means a DB read.
type SessionCache struct {
	client      *redis.Client
	ttl         time.Duration
	terminalTTL time.Duration
}

func NewSessionCache(client *redis.Client, ttl, terminalTTL time.Duration) *SessionCache {
	return &SessionCache{client: client, ttl: ttl, terminalTTL: terminalTTL}
}

func sessionKey(id string) string {
	return "session:" + id
}

// Get returns the cached session, or false on miss or error.
func (c *SessionCache) Get(ctx context.Context, id string) (*domain.GameSession, bool) {
	data, err := c.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[REDIS] Get session %s failed: %v", id, err)
		}
		return nil, false
	}

	var s domain.GameSession
	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("[REDIS] Corrupt cache entry for session %s: %v", id, err)
		c.client.Del(ctx, sessionKey(id))
		return nil, false
	}
	return &s, true
}

// Set stores the current session state. Terminal sessions can no longer
// change, so they keep a longer TTL.
func (c *SessionCache) Set(ctx context.Context, s *domain.GameSession) {
	data, err := json.Marshal(s)
	if err != nil {
		log.Printf("[REDIS] Marshal session %s failed: %v", s.ID, err)
		return
	}

	ttl := c.ttl
	if s.IsTerminal() {
		ttl = c.terminalTTL
	}

	if err := c.client.Set(ctx, sessionKey(s.ID), data, ttl).Err(); err != nil {
		log.Printf("[REDIS] Set session %s failed: %v", s.ID, err)
	}
}
