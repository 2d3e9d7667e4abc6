package batch

import (
	"context"
	"fmt"

	"github.com/wishup-shore/booking-system-backend/internal/domain/batch"
)

// Validate runs the generic checks every executable batch must pass:
// parameters are present and each target exists. It collects every
// violation instead of stopping at the first.
func (p *SagaBatchProcessor) Validate(ctx context.Context, operations []*batch.BatchOperationItem) (*batch.ValidationResult, error) {
	result := &batch.ValidationResult{
		Errors:              []batch.ValidationIssue{},
		Warnings:            []string{},
		ValidatedOperations: len(operations),
	}

	for _, op := range operations {
		if op.Params == nil {
			result.Errors = append(result.Errors, batch.ValidationIssue{
				OperationID:  op.OperationID,
				TargetID:     op.TargetID,
				ErrorCode:    batch.CodeMissingParameters,
				ErrorMessage: "Operation parameters are required",
			})
			continue
		}

		exists, err := p.targetExists(ctx, op)
		if err != nil {
			return nil, err
		}
		if !exists {
			result.Errors = append(result.Errors, batch.ValidationIssue{
				OperationID:  op.OperationID,
				TargetID:     op.TargetID,
				ErrorCode:    batch.CodeEntityNotFound,
				ErrorMessage: fmt.Sprintf("Target entity %d not found", op.TargetID),
			})
		}
	}

	result.InvalidOperations = len(result.Errors)
	result.IsValid = result.InvalidOperations == 0
	return result, nil
}

// validateRequest turns a failed generic validation into a *batch.ValidationError
func (p *SagaBatchProcessor) validateRequest(ctx context.Context, req *batch.BatchRequest) error {
	result, err := p.Validate(ctx, req.Operations)
	if err != nil {
		return fmt.Errorf("%w: validating batch: %w", batch.ErrProcessor, err)
	}
	if !result.IsValid {
		return batch.NewValidationError("Batch validation failed", result.Errors)
	}
	return nil
}
