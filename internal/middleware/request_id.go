package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Stockline-Systems/inventory/internal/constants"
)

// RequestID stamps every request with an id and seeds the context the
// logger reads its fields from. Inbound X-Request-ID headers are kept
// so ids follow a request across services.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, constants.CtxKeyRequestID, requestID)
		ctx = context.WithValue(ctx, constants.CtxKeyClientIP, c.ClientIP())
		ctx = context.WithValue(ctx, constants.CtxKeyUserAgent, c.Request.UserAgent())
		ctx = context.WithValue(ctx, constants.CtxKeyStartTime, time.Now())
		c.Request = c.Request.WithContext(ctx)

		c.Set(string(constants.CtxKeyRequestID), requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}
