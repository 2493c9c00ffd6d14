package http

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"veridoc/internal/domain"
	"veridoc/internal/usecase"
)

// maxIssueBody bounds issuance payloads; raw content rides in base64.
const maxIssueBody = 8 << 20

type issueRequest struct {
	ContentBase64 string                `json:"content_base64"`
	Fields        map[string]any        `json:"fields"`
	Issuer        string                `json:"issuer"`
	Summary       domain.PrimarySummary `json:"summary"`
	Detail        domain.FullDetail     `json:"detail"`
	AnchorNow     bool                  `json:"anchor_now"`
}

type issueResponse struct {
	DocumentID    string `json:"document_id"`
	ContentHash   string `json:"content_hash"`
	HashMode      string `json:"hash_mode"`
	AccessSecret  string `json:"access_secret"`
	LedgerRef     string `json:"ledger_ref,omitempty"`
	AnchorPending bool   `json:"anchor_pending,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func (s *Server) handleIssue(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIssueBody))
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_DOCUMENT", "unreadable body")
		return
	}
	if err := s.deps.Validator.ValidateIssue(body); err != nil {
		s.writeError(c, err)
		return
	}
	var req issueRequest
	if err := jsonUnmarshal(body, &req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_DOCUMENT", "malformed json")
		return
	}

	var content []byte
	if req.ContentBase64 != "" {
		content, err = base64.StdEncoding.DecodeString(req.ContentBase64)
		if err != nil {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_DOCUMENT", "content_base64 is not valid base64")
			return
		}
	}

	result, err := s.deps.Issue.Execute(c.Request.Context(), usecase.IssueRequest{
		Content:   content,
		Fields:    req.Fields,
		Issuer:    req.Issuer,
		Summary:   req.Summary,
		Detail:    req.Detail,
		AnchorNow: req.AnchorNow,
	})
	if err != nil && result == nil {
		s.writeError(c, err)
		return
	}
	// A non-nil result with an error means the document persisted but
	// immediate anchoring failed; the caller still gets id and secret.
	c.JSON(http.StatusCreated, issueResponse{
		DocumentID:    result.Record.ID,
		ContentHash:   result.Record.ContentHash,
		HashMode:      result.Record.HashMode,
		AccessSecret:  result.Record.AccessSecret,
		LedgerRef:     result.LedgerRef,
		AnchorPending: err != nil,
		CreatedAt:     result.Record.CreatedAt.Format(timeFormat),
	})
}

func (s *Server) handleVerify(c *gin.Context) {
	result, err := s.deps.Verify.Execute(c.Request.Context(), usecase.VerifyRequest{
		DocumentID: c.Param("id"),
		Secret:     c.Query("secret"),
		Quick:      c.Query("mode") == "quick",
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	if result.Level == domain.LevelInvalid {
		c.JSON(http.StatusNotFound, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleRevoke(c *gin.Context) {
	outcome, err := s.deps.Revoke.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

type anchorBatchRequest struct {
	BatchID string   `json:"batch_id" binding:"required"`
	Leaves  []string `json:"leaves" binding:"required"`
	Issuer  string   `json:"issuer"`
}

type anchorBatchResponse struct {
	BatchID    string `json:"batch_id"`
	MerkleRoot string `json:"merkle_root"`
	LeafCount  int    `json:"leaf_count"`
	LedgerRef  string `json:"ledger_ref,omitempty"`
	AnchoredAt string `json:"anchored_at"`
}

func (s *Server) handleAnchorBatch(c *gin.Context) {
	var req anchorBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_DOCUMENT", fmt.Sprintf("invalid batch request: %v", err))
		return
	}
	batch, err := s.deps.AnchorBatch.Execute(c.Request.Context(), usecase.AnchorBatchRequest{
		BatchID: req.BatchID,
		Leaves:  req.Leaves,
		Issuer:  req.Issuer,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, anchorBatchResponse{
		BatchID:    batch.BatchID,
		MerkleRoot: batch.MerkleRoot,
		LeafCount:  batch.LeafCount,
		LedgerRef:  batch.LedgerRef,
		AnchoredAt: batch.AnchoredAt.Format(timeFormat),
	})
}

func (s *Server) handleProof(c *gin.Context) {
	leaf := c.Query("leaf")
	if leaf == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_DIGEST", "missing leaf query parameter")
		return
	}
	proof, err := s.deps.Proofs.Execute(c.Request.Context(), c.Param("id"), leaf)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, proof)
}

func (s *Server) handleLedgerStatus(c *gin.Context) {
	status, err := s.deps.LedgerStatus.Execute(c.Request.Context(), c.Param("hash"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
