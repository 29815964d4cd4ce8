package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"clozet/internal/app/policies"
)

const principalContextKey = "clozet.principal"

type principal struct {
	ID string
}

// AuthMiddleware resolves a bearer token into a principal when one is
// presented. Requests without a token pass through anonymous; handlers
// decide what they require.
type AuthMiddleware struct {
	Resolver policies.IdentityResolver
	Logger   *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Resolver == nil {
		c.Next()
		return
	}
	userID, err := m.Resolver.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	c.Set(principalContextKey, principal{ID: userID})
	c.Next()
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

// resolveUserID returns the user a request acts for. An authenticated
// principal always wins; a userId query param from someone else's session
// is rejected. Anonymous requests fall back to the query param so the
// service stays usable without the identity collaborator wired in.
func resolveUserID(c *gin.Context) (string, bool) {
	requested := strings.TrimSpace(c.Query("userId"))
	p, authenticated := currentPrincipal(c)
	if authenticated {
		if requested != "" && requested != p.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "userId does not match authenticated user"})
			return "", false
		}
		return p.ID, true
	}
	if requested == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return "", false
	}
	return requested, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
