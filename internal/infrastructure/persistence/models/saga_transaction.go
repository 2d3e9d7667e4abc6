package models

import (
	"encoding/json"
	"time"

	"github.com/wishup-shore/booking-system-backend/internal/domain/batch"
)

// SagaTransactionModel is the persistence model for a batch saga transaction.
// The completed-operation list and the compensation log are stored as JSON.
type SagaTransactionModel struct {
	TransactionID          string                `gorm:"type:varchar(36);primaryKey"`
	JobID                  string                `gorm:"type:varchar(36);not null;index"`
	JobName                string                `gorm:"type:varchar(255);not null"`
	SubmittedBy            string                `gorm:"type:varchar(100)"`
	Status                 batch.OperationStatus `gorm:"type:varchar(30);not null;index"`
	CompletedOperations    string                `gorm:"type:jsonb;default:'[]'"`
	FailedOperationID      string                `gorm:"type:varchar(36)"`
	CompensationOperations string                `gorm:"type:jsonb;default:'[]'"`
	CompensationStatus     batch.OperationStatus `gorm:"type:varchar(30);not null"`
	StartedAt              time.Time             `gorm:"not null;index"`
	CompletedAt            *time.Time
}

// TableName returns the table name for GORM
func (SagaTransactionModel) TableName() string {
	return "saga_transactions"
}

// ToDomain converts the persistence model to a domain SagaTransaction.
func (m *SagaTransactionModel) ToDomain() (*batch.SagaTransaction, error) {
	tx := &batch.SagaTransaction{
		TransactionID:          m.TransactionID,
		JobID:                  m.JobID,
		JobName:                m.JobName,
		SubmittedBy:            m.SubmittedBy,
		Status:                 m.Status,
		CompletedOperations:    []string{},
		FailedOperationID:      m.FailedOperationID,
		CompensationOperations: []*batch.CompensationOperation{},
		CompensationStatus:     m.CompensationStatus,
		StartedAt:              m.StartedAt,
		CompletedAt:            m.CompletedAt,
	}
	if m.CompletedOperations != "" {
		if err := json.Unmarshal([]byte(m.CompletedOperations), &tx.CompletedOperations); err != nil {
			return nil, err
		}
	}
	if m.CompensationOperations != "" {
		if err := json.Unmarshal([]byte(m.CompensationOperations), &tx.CompensationOperations); err != nil {
			return nil, err
		}
	}
	return tx, nil
}

// FromDomain populates the persistence model from a domain SagaTransaction.
func (m *SagaTransactionModel) FromDomain(tx *batch.SagaTransaction) error {
	completed := tx.CompletedOperations
	if completed == nil {
		completed = []string{}
	}
	completedJSON, err := json.Marshal(completed)
	if err != nil {
		return err
	}
	compensations := tx.CompensationOperations
	if compensations == nil {
		compensations = []*batch.CompensationOperation{}
	}
	compensationsJSON, err := json.Marshal(compensations)
	if err != nil {
		return err
	}

	m.TransactionID = tx.TransactionID
	m.JobID = tx.JobID
	m.JobName = tx.JobName
	m.SubmittedBy = tx.SubmittedBy
	m.Status = tx.Status
	m.CompletedOperations = string(completedJSON)
	m.FailedOperationID = tx.FailedOperationID
	m.CompensationOperations = string(compensationsJSON)
	m.CompensationStatus = tx.CompensationStatus
	m.StartedAt = tx.StartedAt
	m.CompletedAt = tx.CompletedAt
	return nil
}
