package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormSagaStatsProvider implements SagaStatsProvider by aggregating saga_transactions.
type GormSagaStatsProvider struct {
	db *gorm.DB
}

// NewGormSagaStatsProvider creates a GormSagaStatsProvider
func NewGormSagaStatsProvider(db *gorm.DB) *GormSagaStatsProvider {
	return &GormSagaStatsProvider{db: db}
}

// CountByStatus returns the number of saga transactions per status
func (p *GormSagaStatsProvider) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string `gorm:"column:status"`
		Total  int64  `gorm:"column:total"`
	}

	var rows []row
	if err := p.db.WithContext(ctx).
		Table("saga_transactions").
		Select("status, COUNT(*) AS total").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
