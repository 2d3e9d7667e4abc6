package batch

import (
	"fmt"
	"strings"
)

// FailureSummary groups failed results by error code, in order of first
// appearance: "N operations failed. Breakdown: CODE: n, ...".
// It returns "" when nothing failed.
func FailureSummary(results []*BatchOperationResult) string {
	var order []string
	counts := map[string]int{}
	failed := 0

	for _, r := range results {
		if r.Success {
			continue
		}
		failed++
		code := r.ErrorCode
		if code == "" {
			code = CodeUnknown
		}
		if _, seen := counts[code]; !seen {
			order = append(order, code)
		}
		counts[code]++
	}
	if failed == 0 {
		return ""
	}

	parts := make([]string, len(order))
	for i, code := range order {
		parts[i] = fmt.Sprintf("%s: %d", code, counts[code])
	}
	return fmt.Sprintf("%d operations failed. Breakdown: %s", failed, strings.Join(parts, ", "))
}

// CompensationSummary reports how the compensation pass went
func CompensationSummary(tx *SagaTransaction) string {
	if tx == nil || len(tx.CompensationOperations) == 0 {
		return "No compensation required"
	}
	succeeded, failed := tx.CompensationCounts()
	return fmt.Sprintf("Compensation: %d successful, %d failed", succeeded, failed)
}
