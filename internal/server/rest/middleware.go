package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const authFailedMessage = "Authentication failed!"

// authenticate resolves the bearer token into an auth.Identity stored in
// the request context. Anything short of a valid, unexpired token is
// rejected with 403.
func (s *HTTPServer) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader(common.AuthorizationHeaderName), common.BearerPrefix)
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": authFailedMessage})
			return
		}

		id, err := auth.ParseToken(token, s.jwtSecret)
		if err != nil {
			s.logger.Debug(c.Request.Context(), "token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": authFailedMessage})
			return
		}

		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// identity returns the caller set by authenticate.
func identity(c *gin.Context) auth.Identity {
	id, _ := auth.IdentityFromContext(c.Request.Context())
	return id
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
