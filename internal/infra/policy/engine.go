// Package policy evaluates an optional Rego bundle against disclosure
// decisions. Without a bundle the verification engine's pure tiered
// function stands alone; with one, operators can veto full disclosure
// for flagged documents (revoked issuers, quarantined batches) without a
// redeploy.
package policy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

const defaultQuery = "data.veridoc.disclosure.result"

type Engine struct {
	query      rego.PreparedEvalQuery
	bundleHash string
}

type Input struct {
	DocumentID string `json:"document_id"`
	Issuer     string `json:"issuer"`
	Revoked    bool   `json:"revoked"`
	Level      string `json:"level"`
}

type Decision struct {
	AllowFull bool
	Reasons   []string
}

func NewEngineFromBundlePath(ctx context.Context, bundlePath string) (*Engine, error) {
	raw, err := os.ReadFile(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("read policy bundle: %w", err)
	}
	sum := sha256.Sum256(raw)

	r := rego.New(
		rego.Query(defaultQuery),
		rego.StrictBuiltinErrors(true),
		rego.Module(bundlePath, string(raw)),
	)
	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy: %w", err)
	}
	return &Engine{
		query:      prepared,
		bundleHash: hex.EncodeToString(sum[:]),
	}, nil
}

func (e *Engine) BundleHash() string {
	return e.bundleHash
}

func (e *Engine) Evaluate(ctx context.Context, input Input) (Decision, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{}, errors.New("policy returned no result")
	}
	value, ok := results[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return Decision{}, errors.New("policy result must be an object")
	}

	decision := Decision{}
	if allow, ok := value["allow_full"].(bool); ok {
		decision.AllowFull = allow
	}
	if reasons, ok := value["reasons"].([]any); ok {
		for _, reason := range reasons {
			if s, ok := reason.(string); ok {
				decision.Reasons = append(decision.Reasons, s)
			}
		}
	}
	return decision, nil
}
