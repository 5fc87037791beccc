package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/common"
	"github.com/fabrica-p6f5/backoffice/internal/logging"
	"github.com/gin-gonic/gin"
)

// ContextActor is the gin context key holding the authenticated actor id.
const ContextActor = "actor"

// AuthRequired resolves the acting user from a bearer access token. When
// allowHeaderActor is set, a request without Authorization may name its actor
// through the X-User-Id header instead.
func AuthRequired(a Authenticator, allowHeaderActor bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(common.AuthorizationHeaderName)
		if authHeader == "" {
			if actor := strings.TrimSpace(c.GetHeader(common.UserIDHeaderName)); allowHeaderActor && actor != "" {
				c.Set(ContextActor, actor)
				c.Next()
				return
			}
			abortWithError(c, http.StatusUnauthorized, KindUnauthorized, "missing authorization")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			abortWithError(c, http.StatusUnauthorized, KindUnauthorized, "invalid authorization")
			return
		}

		userID, err := a.Authenticate(parts[1])
		if err != nil {
			status, kind := classify(err)
			if status != http.StatusUnauthorized {
				status, kind = http.StatusUnauthorized, KindUnauthorized
			}
			abortWithError(c, status, kind, err.Error())
			return
		}

		c.Set(ContextActor, userID)
		c.Next()
	}
}

func actorFrom(c *gin.Context) string {
	return c.GetString(ContextActor)
}

// RequestLogger writes one line per handled request.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"actor", actorFrom(c),
		)
	}
}
