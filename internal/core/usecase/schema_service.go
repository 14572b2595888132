package usecase

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/openregistry/filings-api/internal/core/domain"
)

//go:embed schemas/filing.json
var filingSchemaJSON []byte

// SchemaService validates raw filing documents against the embedded filing
// JSON schema before any business rules run. The compiled schema is cached
// after first use.
type SchemaService struct {
	once     sync.Once
	compiled *santhosh.Schema
	compErr  error
}

func NewSchemaService() *SchemaService {
	return &SchemaService{}
}

// Validate checks the structural shape of a filing document. On failure it
// returns a *domain.FilingValidationError carrying one entry per violation.
func (s *SchemaService) Validate(data json.RawMessage) error {
	s.once.Do(func() {
		s.compiled, s.compErr = compileSchema(filingSchemaJSON)
	})
	if s.compErr != nil {
		return fmt.Errorf("compile filing schema: %w", s.compErr)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return domain.NewFilingValidationError([]domain.ValidationError{
			{Message: "filing must be valid json"},
		})
	}
	if err := s.compiled.Validate(v); err != nil {
		var ve *santhosh.ValidationError
		if errors.As(err, &ve) {
			return domain.NewFilingValidationError(collectSchemaErrors(ve))
		}
		return domain.NewFilingValidationError([]domain.ValidationError{{Message: err.Error()}})
	}
	return nil
}

// compileSchema builds a *santhosh.Schema from raw JSON.
func compileSchema(schemaJSON []byte) (*santhosh.Schema, error) {
	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	if err := compiler.AddResource("filing.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile("filing.json")
}

// collectSchemaErrors flattens the validation cause tree into leaf entries,
// keyed by the instance location of each failing value.
func collectSchemaErrors(ve *santhosh.ValidationError) []domain.ValidationError {
	var errs []domain.ValidationError
	for _, cause := range ve.Causes {
		errs = append(errs, collectSchemaErrors(cause)...)
	}
	if len(ve.Causes) == 0 {
		errs = append(errs, domain.ValidationError{
			Message: ve.Message,
			Path:    ve.InstanceLocation,
		})
	}
	return errs
}
