package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tictacduel/server/internal/service/game"
	"github.com/tictacduel/server/internal/transport/http/middleware"
)

type SessionHandler struct {
	Games *game.Coordinator
}

func NewSessionHandler(games *game.Coordinator) *SessionHandler {
	return &SessionHandler{Games: games}
}

// Get returns the authoritative session state. Reconnecting clients rebuild
// their local board from this single call.
func (h *SessionHandler) Get(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	session, err := h.Games.GetSession(c.Request.Context(), c.Param("id"), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

type moveRequest struct {
	Cell *int `json:"cell"`
}

// SubmitMove applies a move and returns the updated session. Clients that
// render optimistically must reconcile against this response and discard any
// conflicting local state.
func (h *SessionHandler) SubmitMove(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Cell == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing cell"})
		return
	}

	session, err := h.Games.ApplyMove(c.Request.Context(), c.Param("id"), identity, *req.Cell)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}
