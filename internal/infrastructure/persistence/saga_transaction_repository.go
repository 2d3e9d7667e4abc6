package persistence

import (
	"context"
	"fmt"

	"github.com/wishup-shore/booking-system-backend/internal/domain/batch"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSagaTransactionRepository implements batch.SagaTransactionRepository using GORM
type GormSagaTransactionRepository struct {
	db *gorm.DB
}

// NewGormSagaTransactionRepository creates a new GormSagaTransactionRepository
func NewGormSagaTransactionRepository(db *gorm.DB) *GormSagaTransactionRepository {
	return &GormSagaTransactionRepository{db: db}
}

// Save inserts the transaction, or replaces it when the ID already exists
func (r *GormSagaTransactionRepository) Save(ctx context.Context, tx *batch.SagaTransaction) error {
	var model models.SagaTransactionModel
	if err := model.FromDomain(tx); err != nil {
		return fmt.Errorf("failed to encode saga transaction: %w", err)
	}
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByJobID returns the transactions recorded for a job, oldest first
func (r *GormSagaTransactionRepository) FindByJobID(ctx context.Context, jobID string) ([]batch.SagaTransaction, error) {
	var txModels []models.SagaTransactionModel
	if err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("started_at ASC").
		Find(&txModels).Error; err != nil {
		return nil, err
	}
	return toSagaTransactions(txModels)
}

// FindAll lists transactions with pagination and ordering
func (r *GormSagaTransactionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]batch.SagaTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SagaTransactionModel{})
	if status, ok := filter.Filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, SagaTransactionSortFields, "started_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var txModels []models.SagaTransactionModel
	if err := query.Find(&txModels).Error; err != nil {
		return nil, 0, err
	}
	txs, err := toSagaTransactions(txModels)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func toSagaTransactions(txModels []models.SagaTransactionModel) ([]batch.SagaTransaction, error) {
	txs := make([]batch.SagaTransaction, 0, len(txModels))
	for i := range txModels {
		tx, err := txModels[i].ToDomain()
		if err != nil {
			return nil, fmt.Errorf("failed to decode saga transaction %s: %w", txModels[i].TransactionID, err)
		}
		txs = append(txs, *tx)
	}
	return txs, nil
}

// Ensure GormSagaTransactionRepository implements batch.SagaTransactionRepository
var _ batch.SagaTransactionRepository = (*GormSagaTransactionRepository)(nil)
