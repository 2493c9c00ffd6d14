// Package schema validates issuance payloads before they reach the core.
package schema

import (
	"fmt"

	"veridoc/internal/domain"

	"github.com/kaptinlin/jsonschema"
)

const issueSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "content_base64": {"type": "string"},
    "fields": {"type": "object", "minProperties": 1},
    "issuer": {"type": "string", "minLength": 1},
    "summary": {
      "type": "object",
      "properties": {
        "holder": {"type": "string"},
        "document_type": {"type": "string", "minLength": 1},
        "issuing_authority": {"type": "string"},
        "confidence": {"type": "number", "minimum": 0, "maximum": 1},
        "integrity_hash": {"type": "string"}
      },
      "required": ["document_type"]
    },
    "detail": {
      "type": "object",
      "properties": {
        "raw_text": {"type": "string"},
        "fields": {"type": "object"},
        "issued_at": {"type": "string", "format": "date-time"},
        "expires_at": {"type": "string", "format": "date-time"},
        "signatures": {"type": "array", "items": {"type": "string"}}
      }
    }
  },
  "required": ["issuer", "summary"],
  "anyOf": [
    {"required": ["content_base64"]},
    {"required": ["fields"]}
  ]
}`

type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	compiled, err := compiler.Compile([]byte(issueSchema))
	if err != nil {
		return nil, fmt.Errorf("compile issue schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// ValidateIssue checks a raw issuance body against the schema. Failures
// wrap ErrInvalidDocument so the boundary can map them uniformly.
func (v *Validator) ValidateIssue(payload []byte) error {
	result := v.schema.ValidateJSON(payload)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidDocument, result.Errors)
}
