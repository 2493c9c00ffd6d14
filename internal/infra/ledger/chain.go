package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"veridoc/internal/domain"

	"github.com/cenkalti/backoff/v4"
)

// ChainProvider talks to the on-chain anchoring gateway over HTTP.
// Transient failures (network errors, 5xx) are retried with exponential
// backoff inside the caller's deadline; 4xx responses are terminal.
type ChainProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewChainProvider(endpoint, apiKey string) (*ChainProvider, error) {
	if endpoint == "" {
		return nil, errors.New("chain endpoint is required")
	}
	return &ChainProvider{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (p *ChainProvider) Name() string { return "chain" }

type chainAnchorRequest struct {
	Hash      string `json:"hash"`
	Issuer    string `json:"issuer,omitempty"`
	BatchID   string `json:"batch_id,omitempty"`
	LeafCount int    `json:"leaf_count,omitempty"`
}

type chainAnchorResponse struct {
	TxRef           string `json:"tx_ref"`
	AlreadyAnchored bool   `json:"already_anchored"`
}

type chainStatusResponse struct {
	Anchored   bool      `json:"anchored"`
	Revoked    bool      `json:"revoked"`
	AnchoredAt time.Time `json:"anchored_at"`
	Issuer     string    `json:"issuer"`
}

func (p *ChainProvider) Anchor(ctx context.Context, hashHex string, meta domain.AnchorMetadata) (domain.AnchorResult, error) {
	body := chainAnchorRequest{
		Hash:      hashHex,
		Issuer:    meta.Issuer,
		BatchID:   meta.BatchID,
		LeafCount: meta.LeafCount,
	}
	var out chainAnchorResponse
	if err := p.call(ctx, http.MethodPost, "/anchors", body, &out); err != nil {
		// The gateway answers 409 when the hash is already on chain;
		// idempotent anchoring reports that, it does not fail.
		var httpErr *chainHTTPError
		if errors.As(err, &httpErr) && httpErr.status == http.StatusConflict {
			return domain.AnchorResult{TxRef: httpErr.txRef(), AlreadyAnchored: true}, nil
		}
		return domain.AnchorResult{}, err
	}
	return domain.AnchorResult{TxRef: out.TxRef, AlreadyAnchored: out.AlreadyAnchored}, nil
}

func (p *ChainProvider) Status(ctx context.Context, hashHex string) (domain.LedgerStatus, error) {
	var out chainStatusResponse
	if err := p.call(ctx, http.MethodGet, "/anchors/"+hashHex, nil, &out); err != nil {
		var httpErr *chainHTTPError
		if errors.As(err, &httpErr) && httpErr.status == http.StatusNotFound {
			return domain.LedgerStatus{}, nil
		}
		return domain.LedgerStatus{}, err
	}
	return domain.LedgerStatus{
		Anchored:   out.Anchored,
		Revoked:    out.Revoked,
		AnchoredAt: out.AnchoredAt,
		Issuer:     out.Issuer,
	}, nil
}

func (p *ChainProvider) Revoke(ctx context.Context, hashHex string) (domain.RevokeResult, error) {
	var out chainAnchorResponse
	if err := p.call(ctx, http.MethodPost, "/anchors/"+hashHex+"/revoke", nil, &out); err != nil {
		var httpErr *chainHTTPError
		if errors.As(err, &httpErr) && httpErr.status == http.StatusNotFound {
			return domain.RevokeResult{}, domain.ErrNotFound
		}
		return domain.RevokeResult{}, err
	}
	return domain.RevokeResult{TxRef: out.TxRef}, nil
}

func (p *ChainProvider) call(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	operation := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, p.endpoint+path, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if p.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.apiKey)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

		if resp.StatusCode >= 500 {
			return fmt.Errorf("chain gateway %s: %d", path, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(&chainHTTPError{status: resp.StatusCode, body: raw})
		}
		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return backoff.Permanent(err)
			}
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 0 // bounded by ctx
	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

type chainHTTPError struct {
	status int
	body   []byte
}

func (e *chainHTTPError) Error() string {
	return fmt.Sprintf("chain gateway status %d", e.status)
}

// txRef extracts a transaction reference from a conflict body when the
// gateway includes one.
func (e *chainHTTPError) txRef() string {
	var out chainAnchorResponse
	if err := json.Unmarshal(e.body, &out); err != nil {
		return ""
	}
	return out.TxRef
}

var _ Provider = (*ChainProvider)(nil)
