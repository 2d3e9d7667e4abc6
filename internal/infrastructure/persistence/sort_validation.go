package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort direction to ASC or DESC.
// Anything other than "asc" yields DESC.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField checks sortField against a whitelist and falls back to defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// SagaTransactionSortFields contains allowed sort fields for saga transactions
var SagaTransactionSortFields = map[string]bool{
	"started_at":   true,
	"completed_at": true,
	"job_name":     true,
	"status":       true,
}
