// Package http is the service boundary: routing, payload validation,
// rate limiting, and the mapping from domain errors to status codes.
// Handlers stay thin; disclosure and anchoring rules live in usecase.
package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"veridoc/internal/domain"
	"veridoc/internal/infra/schema"
	"veridoc/internal/usecase"
)

type Deps struct {
	Issue        *usecase.IssueDocument
	Verify       *usecase.VerifyDocument
	AnchorBatch  *usecase.AnchorBatch
	Proofs       *usecase.GetProof
	Revoke       *usecase.RevokeDocument
	LedgerStatus *usecase.LedgerStatusQuery

	Validator *schema.Validator

	RateLimiter         domain.RateLimiter
	RateLimitRequests   int
	RateLimitWindow     time.Duration
	RateLimitFailClosed bool

	Log zerolog.Logger
}

type Server struct {
	engine *gin.Engine
	deps   Deps
}

func NewServer(deps Deps) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{engine: engine, deps: deps}
	engine.Use(s.requestLogger())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/v1")
	v1.POST("/documents", s.rateLimit(actionIssue), s.handleIssue)
	v1.GET("/documents/:id/verify", s.rateLimit(actionVerify), s.handleVerify)
	v1.POST("/documents/:id/revoke", s.rateLimit(actionRevoke), s.handleRevoke)
	v1.POST("/batches", s.rateLimit(actionAnchor), s.handleAnchorBatch)
	v1.GET("/batches/:id/proof", s.rateLimit(actionProof), s.handleProof)
	v1.GET("/ledger/:hash/status", s.rateLimit(actionLedgerStatus), s.handleLedgerStatus)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidDocument):
		writeErrorCode(c, http.StatusBadRequest, "INVALID_DOCUMENT", err.Error())
	case errors.Is(err, domain.ErrInvalidDigest):
		writeErrorCode(c, http.StatusBadRequest, "INVALID_DIGEST", err.Error())
	case errors.Is(err, domain.ErrProofNotFound):
		writeErrorCode(c, http.StatusNotFound, "PROOF_NOT_FOUND", "leaf not in batch")
	case errors.Is(err, domain.ErrNotFound):
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "not found")
	case errors.Is(err, domain.ErrBatchExists):
		writeErrorCode(c, http.StatusConflict, "BATCH_EXISTS", "batch already anchored")
	case errors.Is(err, domain.ErrLedgerUnavailable):
		writeErrorCode(c, http.StatusServiceUnavailable, "LEDGER_UNAVAILABLE", "ledger unavailable")
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeErrorCode(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "store unavailable")
	default:
		s.deps.Log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": message})
}
