package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderXRequestID = "X-Request-ID"
	ContextRequestID = "request_id"
)

// maxRequestIDLen caps inbound ids so a hostile client cannot bloat
// every log line of the request.
const maxRequestIDLen = 64

// RequestID propagates the caller's X-Request-ID, minting one when
// absent or oversized.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" || len(rid) > maxRequestIDLen {
			rid = uuid.New().String()
		}

		c.Set(ContextRequestID, rid)
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}

// RequestIDFrom returns the id assigned to the current request.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}
