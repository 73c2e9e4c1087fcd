package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-Id"

// RequestID tags every request with a correlation id, reusing the
// client-provided one when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set("requestID", id)
		c.Writer.Header().Set(HeaderRequestID, id)

		c.Next()
	}
}
