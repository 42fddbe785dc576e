package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/healthbridge/partner-api/pkg/httputil"
)

// ErrorHandler logs errors attached to the gin context and writes
// the last one if nothing has responded yet. Handlers normally
// respond directly via httputil; this is the safety net.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("client_ip", c.ClientIP()).
				Interface("meta", e.Meta).
				Msg("request error")
		}

		if !c.Writer.Written() {
			httputil.RespondWithError(c, c.Errors.Last().Err)
		}
	}
}
