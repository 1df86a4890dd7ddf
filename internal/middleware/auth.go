package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/mysimo-api/internal/models"
	"github.com/harentsoaR/mysimo-api/internal/utils"
)

const identityKey = "identity"

type ctxKey struct{}

// TokenParser verifies a bearer token.
type TokenParser interface {
	Parse(token string) (*utils.Claims, error)
}

// OwnerLookup returns the user id owning the doctor profile id. It returns
// ErrNoOwner when the profile does not exist.
type OwnerLookup func(ctx context.Context, doctorID string) (string, error)

var ErrNoOwner = errors.New("doctor profile not found")

// Authenticate requires a valid bearer token and stores the caller identity
// on the gin context and on the request context.
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(tokenString))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		SetIdentity(c, claims.Identity())
		c.Next()
	}
}

// SetIdentity attaches id to the request.
func SetIdentity(c *gin.Context, id models.Identity) {
	c.Set(identityKey, id)
	c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
}

func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom returns the caller stored by Authenticate.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	if c, ok := ctx.(*gin.Context); ok {
		if v, exists := c.Get(identityKey); exists {
			id, ok := v.(models.Identity)
			return id, ok
		}
		if c.Request == nil {
			return models.Identity{}, false
		}
		ctx = c.Request.Context()
	}
	id, ok := ctx.Value(ctxKey{}).(models.Identity)
	return id, ok
}

// RequireRole lets through callers whose role is one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}

// RequireOwnerOrAdmin lets through admins and the user owning the doctor
// profile named by the :id path parameter.
func RequireOwnerOrAdmin(lookup OwnerLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if id.IsAdmin() {
			c.Next()
			return
		}

		owner, err := lookup(c.Request.Context(), c.Param("id"))
		if errors.Is(err, ErrNoOwner) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
			return
		}
		if owner != id.ID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}
