package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"veridoc/internal/domain"
)

const timeFormat = time.RFC3339

const (
	actionIssue        = "documents:issue"
	actionVerify       = "documents:verify"
	actionRevoke       = "documents:revoke"
	actionAnchor       = "batches:anchor"
	actionProof        = "batches:proof"
	actionLedgerStatus = "ledger:status"
)

func jsonUnmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// rateLimit gates one route behind the sliding window. Identity is the
// API key when presented, else the client address. A broken limiter
// fails open unless the deployment opts into fail-closed.
func (s *Server) rateLimit(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.deps.RateLimiter == nil || s.deps.RateLimitRequests <= 0 {
			c.Next()
			return
		}
		identity := c.GetHeader("X-API-Key")
		if identity == "" {
			identity = c.ClientIP()
		}
		decision, err := s.deps.RateLimiter.CheckAndConsume(
			c.Request.Context(), identity, action,
			s.deps.RateLimitRequests, s.deps.RateLimitWindow,
		)
		if err != nil {
			if s.deps.RateLimitFailClosed {
				writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMIT_UNAVAILABLE", "rate limiter unavailable")
				return
			}
			c.Next()
			return
		}
		writeRateLimitHeaders(c, decision)
		if !decision.Allowed {
			writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
			return
		}
		c.Next()
	}
}

func writeRateLimitHeaders(c *gin.Context, decision domain.RateLimitDecision) {
	if decision.Limit > 0 {
		c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
	}
	if decision.Remaining >= 0 {
		c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
	if decision.ResetIn > 0 {
		reset := int64(decision.ResetIn.Seconds() + 0.5)
		if reset < 1 {
			reset = 1
		}
		c.Header("RateLimit-Reset", strconv.FormatInt(reset, 10))
		if !decision.Allowed {
			c.Header("Retry-After", strconv.FormatInt(reset, 10))
		}
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.deps.Log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client", c.ClientIP()).
			Msg("request")
	}
}
