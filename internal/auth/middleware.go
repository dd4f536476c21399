package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/model"
)

const identityKey = "identity"

// Resolver loads the current account for a token subject.
type Resolver interface {
	Resolve(ctx context.Context, username string) (model.Identity, error)
}

// Authenticate enforces bearer JWT tokens signed with HS256 and stores the
// resolved identity on the context.
func Authenticate(signingKey, issuer string, users Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			unauthorized(c, "Not authenticated")
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			unauthorized(c, "Could not validate credentials")
			return
		}
		id, err := users.Resolve(c.Request.Context(), claims.Subject)
		if err != nil {
			status := apperr.Status(err)
			if status == http.StatusUnauthorized {
				c.Header("WWW-Authenticate", "Bearer")
			}
			msg := err.Error()
			if status == http.StatusInternalServerError {
				msg = "internal server error"
			}
			c.AbortWithStatusJSON(status, gin.H{"error": msg, "detail": msg})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := Current(c)
		if !ok {
			unauthorized(c, "Not authenticated")
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		const msg = "The user doesn't have enough privileges"
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msg, "detail": msg})
	}
}

// Current returns the identity set by Authenticate.
func Current(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return model.Identity{}, false
	}
	id, ok := v.(model.Identity)
	return id, ok
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "detail": msg})
}
