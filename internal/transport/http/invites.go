package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/tictacduel/server/internal/domain"
	"github.com/tictacduel/server/internal/service/invite"
	"github.com/tictacduel/server/internal/transport/http/middleware"
)

type InviteHandler struct {
	Invites *invite.Manager
}

func NewInviteHandler(invites *invite.Manager) *InviteHandler {
	return &InviteHandler{Invites: invites}
}

type createInviteRequest struct {
	ToEmail   string     `json:"toEmail"`
	Message   string     `json:"message"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type inviteResponse struct {
	ID        string     `json:"id"`
	FromEmail string     `json:"fromEmail"`
	ToEmail   string     `json:"toEmail"`
	Message   string     `json:"message,omitempty"`
	Status    string     `json:"status"`
	GameID    *string    `json:"gameId,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func toInviteResponse(inv domain.Invite) inviteResponse {
	return inviteResponse{
		ID:        inv.ID,
		FromEmail: inv.FromEmail,
		ToEmail:   inv.ToEmail,
		Message:   inv.Message,
		Status:    string(inv.Status),
		GameID:    inv.GameID,
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
}

func (h *InviteHandler) Create(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	inv, err := h.Invites.Create(c.Request.Context(), identity, req.ToEmail, req.Message, req.ExpiresAt)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toInviteResponse(*inv))
}

func (h *InviteHandler) List(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	invites, err := h.Invites.List(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(invites, func(inv domain.Invite, _ int) inviteResponse {
		return toInviteResponse(inv)
	}))
}

type respondRequest struct {
	Decision string `json:"decision"`
}

func (h *InviteHandler) Respond(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	inv, err := h.Invites.Respond(c.Request.Context(), c.Param("id"), identity, invite.Decision(req.Decision))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInviteResponse(*inv))
}

func (h *InviteHandler) Cancel(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	inv, err := h.Invites.Cancel(c.Request.Context(), c.Param("id"), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInviteResponse(*inv))
}
