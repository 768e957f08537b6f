package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tictacduel/server/internal/domain"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Expected
// kinds carry their message through so clients can tell "not your turn" from
// "cell occupied"; anything else is logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
