package api

import (
	"time"

	"github.com/Domenick1991/aeroclub/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	ActorHeader     = "X-Actor-ID"
	RequestIDHeader = "X-Request-ID"
)

// RequestLogger attaches a request scoped logger to the request context and
// logs one line per request.
func RequestLogger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		logger := base.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), logger))

		started := time.Now()
		c.Next()

		event := logger.Info()
		if c.Writer.Status() >= 500 {
			event = logger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(started)).
			Str("actor_id", c.GetHeader(ActorHeader)).
			Msg("http request")
	}
}

func actorID(c *gin.Context) (string, bool) {
	actor := c.GetHeader(ActorHeader)
	if actor == "" {
		badRequest(c, "actor_id", "header "+ActorHeader+" is required")
		return "", false
	}
	return actor, true
}
