package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tictacduel/server/internal/domain"
)

// IdentityKey is the gin context key carrying the verified caller identity.
const IdentityKey = "identity"

// IdentityVerifier turns a bearer token into a verified identity.
type IdentityVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// AuthMiddleware extracts the identity token (Authorization header or cookie)
// and sets the verified identity on the context. Requests without a verified
// identity never reach a handler.
func AuthMiddleware(verifier IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// Identity returns the verified identity set by AuthMiddleware.
func Identity(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}

func tokenFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if after, found := strings.CutPrefix(header, "Bearer "); found {
		return after
	}
	if cookie, err := c.Cookie("token"); err == nil {
		return cookie
	}
	return ""
}
