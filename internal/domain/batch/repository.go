package batch

import (
	"context"

	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
)

// SagaTransactionRepository persists saga transactions for audit
type SagaTransactionRepository interface {
	// Save inserts or replaces the transaction
	Save(ctx context.Context, tx *SagaTransaction) error
	// FindByJobID returns every transaction recorded for jobID, oldest first
	FindByJobID(ctx context.Context, jobID string) ([]SagaTransaction, error)
	// FindAll lists transactions; filter.Filters["status"] narrows by status
	FindAll(ctx context.Context, filter shared.Filter) ([]SagaTransaction, int64, error)
}

// TransactionArchive copies finished transactions to long-term storage
type TransactionArchive interface {
	Archive(ctx context.Context, tx *SagaTransaction) error
}
