package policy

import (
	"context"

	"veridoc/internal/domain"
	"veridoc/internal/usecase"
)

var _ usecase.DisclosurePolicy = (*Engine)(nil)

// EvaluateDisclosure adapts the engine to the verification engine's
// policy hook. It is only consulted on the full-disclosure path.
func (e *Engine) EvaluateDisclosure(ctx context.Context, documentID, issuer string, revoked bool) (usecase.DisclosureDecision, error) {
	decision, err := e.Evaluate(ctx, Input{
		DocumentID: documentID,
		Issuer:     issuer,
		Revoked:    revoked,
		Level:      string(domain.LevelFull),
	})
	if err != nil {
		return usecase.DisclosureDecision{}, err
	}
	return usecase.DisclosureDecision{
		AllowFull: decision.AllowFull,
		Reasons:   decision.Reasons,
	}, nil
}
