package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tictacduel/server/internal/domain"
	"github.com/tictacduel/server/internal/service/presence"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	initTimeout  = 10 * time.Second
)

// IdentityVerifier turns the init token into a verified identity.
type IdentityVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// Handler upgrades HTTP requests to live connections and keeps the presence
// registry in sync with their lifecycle. Clients act through the HTTP API;
// the socket only carries the init handshake and pushed events.
type Handler struct {
	Registry *presence.Registry
	Verifier IdentityVerifier
	Upgrader websocket.Upgrader
}

func NewHandler(registry *presence.Registry, verifier IdentityVerifier, allowedOrigins []string) *Handler {
	return &Handler{
		Registry: registry,
		Verifier: verifier,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

type initMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleWebSocket is the HTTP handler that upgrades the connection.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	h.handleConnection(conn)
}

// handleConnection manages the lifecycle of a single connection: init
// handshake, presence registration, keep-alive, teardown.
func (h *Handler) handleConnection(conn *websocket.Conn) {
	// The first frame must authenticate within the init window.
	conn.SetReadDeadline(time.Now().Add(initTimeout))

	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Printf("[WS] Read error during init: %v", err)
		conn.Close()
		return
	}

	var msg initMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "init" || msg.Token == "" {
		log.Printf("[WS] Missing or malformed init message")
		conn.WriteJSON(envelope{Event: "error", Data: "expected init message with token"})
		conn.Close()
		return
	}

	identity, err := h.Verifier.Verify(msg.Token)
	if err != nil {
		log.Printf("[WS] Invalid token during init: %v", err)
		conn.WriteJSON(envelope{Event: "error", Data: "invalid token"})
		conn.Close()
		return
	}

	client := NewClient(domain.NormalizeEmail(identity.Email), conn)

	log.Printf("[WS] Connection initialized for %s (ID: %d)", client.Email(), identity.ID)
	h.Registry.Register(client.Email(), client)

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	stopPing := make(chan struct{})
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := client.ping(); err != nil {
					return
				}
			case <-stopPing:
				return
			}
		}
	}()

	defer func() {
		close(stopPing)
		h.Registry.Unregister(client.Email(), client)
		client.Close()
		log.Printf("[WS] Connection closed for %s", client.Email())
	}()

	// Drain loop: inbound frames only refresh liveness. Unknown payloads are
	// tolerated so older clients don't get kicked.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] %s disconnected unexpectedly: %v", client.Email(), err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
	}
}
