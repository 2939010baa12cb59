// Package httpkit provides HTTP utilities including session identity helpers.
package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextSessionIDKey is the gin context key for the browser session ID.
const ContextSessionIDKey = "sessionID"

// SetSessionID stores the resolved session ID on the request context.
func SetSessionID(c *gin.Context, id uuid.UUID) {
	c.Set(ContextSessionIDKey, id)
}

// GetSessionID returns the session ID set by the session middleware.
func GetSessionID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(ContextSessionIDKey)
	if !exists {
		return uuid.UUID{}, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
