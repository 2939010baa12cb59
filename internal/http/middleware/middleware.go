package middleware

import (
	"context"
	"net/http"

	"departure_finder/platform/config"
	"departure_finder/platform/httpkit"
	"departure_finder/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Session resolves the browser session from its cookie, issuing a new ID
// when the cookie is missing or malformed.
func Session(cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := cfg.GetSessionCookieName()

		var id uuid.UUID
		if raw, err := c.Cookie(name); err == nil {
			id, _ = uuid.Parse(raw)
		}
		if id == uuid.Nil {
			id = uuid.New()
		}

		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    id.String(),
			Path:     "/",
			MaxAge:   int(cfg.GetSessionTTL().Seconds()),
			HttpOnly: true,
			Secure:   c.Request.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})

		httpkit.SetSessionID(c, id)
		ctx := context.WithValue(c.Request.Context(), logger.SessionIDKey, id.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
