package api

import (
	"strings"

	"github.com/lei/status-tracker/internal/models"
)

// FilterRows keeps the rows whose full test name contains search
// (case-insensitive) and, when failing is set, whose failure state matches.
// The input order is preserved.
func FilterRows(rows []models.RowView, search string, failing *bool) []models.RowView {
	if search == "" && failing == nil {
		return rows
	}

	filtered := make([]models.RowView, 0, len(rows))
	searchLower := strings.ToLower(search)

	for _, row := range rows {
		if search != "" && !strings.Contains(strings.ToLower(row.TooltipFullName), searchLower) {
			continue
		}

		if failing != nil && (row.FailedCount > 0) != *failing {
			continue
		}

		filtered = append(filtered, row)
	}

	return filtered
}

// parseBoolParam parses boolean query parameters
func parseBoolParam(value string) *bool {
	if value == "" {
		return nil
	}

	if value == "true" || value == "1" {
		result := true
		return &result
	}

	if value == "false" || value == "0" {
		result := false
		return &result
	}

	return nil
}
