package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portfolio-server/internal/models"
	"portfolio-server/internal/service"
)

// SessionCookieName carries the admin session JWT.
const SessionCookieName = "portfolio_session"

// SessionMiddleware guards admin routes. The session token is read from the
// cookie set at login, with an Authorization bearer fallback for API clients.
func SessionMiddleware(auth service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("SessionMiddleware")
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(SessionCookieName)
		if err != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			handleServiceError(c, models.ErrUnauthorized)
			return
		}

		claims, err := auth.VerifyToken(tokenString)
		if err != nil {
			log.Warn("Session token rejected", zap.Error(err))
			handleServiceError(c, err)
			return
		}
		c.Set("session_subject", claims.Subject)
		c.Next()
	}
}
