package ginserver

import (
	"log/slog"
	"strings"

	gin "github.com/gin-gonic/gin"

	"venuebook/internal/app/principal"
)

const principalContextKey = "venuebook.principal"

// TokenVerifier resolves a bearer token into the calling principal.
type TokenVerifier interface {
	Verify(token string) (principal.Principal, error)
}

// AuthMiddleware attaches the caller to the request. Requests without a usable token pass
// through anonymously and are refused by the handlers that need a caller.
type AuthMiddleware struct {
	Verifier TokenVerifier
	Logger   *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Verifier == nil {
		c.Next()
		return
	}
	p, err := m.Verifier.Verify(token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	setPrincipal(c, p)
	c.Next()
}

func setPrincipal(c *gin.Context, p principal.Principal) {
	c.Set(principalContextKey, p)
	c.Request = c.Request.WithContext(principal.WithContext(c.Request.Context(), p))
}

func currentPrincipal(c *gin.Context) (principal.Principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal.Principal{}, false
	}
	p, ok := val.(principal.Principal)
	return p, ok
}

// requireRole writes 401/403 and returns false when the caller lacks every role given.
// No roles accepts any authenticated caller.
func requireRole(c *gin.Context, roles ...principal.Role) (principal.Principal, bool) {
	p, err := principal.Require(c.Request.Context(), roles...)
	if err != nil {
		writeError(c, nil, err)
		return principal.Principal{}, false
	}
	return p, true
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
