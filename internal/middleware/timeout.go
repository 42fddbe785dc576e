package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/healthbridge/partner-api/pkg/errors"
	"github.com/healthbridge/partner-api/pkg/httputil"
)

// Timeout caps total request handling time.
func Timeout(duration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), duration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		done := make(chan struct{})
		go func() {
			c.Next()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				c.AbortWithStatusJSON(http.StatusGatewayTimeout, httputil.Response{
					Error: &httputil.Error{
						Code:    apperrors.ErrUnavailable,
						Message: "request timeout",
					},
				})
			}
		}
	}
}
