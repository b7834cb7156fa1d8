package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/lei/status-tracker/internal/api"
	"github.com/lei/status-tracker/internal/models"
)

type markdownOptions struct {
	Search      string
	FailingOnly bool
	Top         int
}

var outcomeSymbols = map[models.Outcome]string{
	models.OutcomePassed:  "P",
	models.OutcomeFailed:  "F",
	models.OutcomeSkipped: "S",
	models.OutcomeFlaky:   "~",
	models.OutcomeTimeout: "T",
	models.OutcomeUnknown: "?",
}

// renderMarkdown writes the table with one column per build and one
// symbol per job variant in each cell
func renderMarkdown(table *models.Table, opts markdownOptions) string {
	var failing *bool
	if opts.FailingOnly {
		f := true
		failing = &f
	}

	rows := api.FilterRows(table.Rows, opts.Search, failing)
	total := len(rows)
	if opts.Top > 0 && len(rows) > opts.Top {
		rows = rows[:opts.Top]
	}

	var sb strings.Builder

	sb.WriteString("# Test status\n\n")

	if table.LastUpdated != nil {
		fmt.Fprintf(&sb, "Last updated: %s\n\n", table.LastUpdated.UTC().Format(time.RFC3339))
	}
	if len(table.Variants) > 0 {
		fmt.Fprintf(&sb, "Variants per cell: %s\n\n", strings.Join(table.Variants, ", "))
	}

	if len(rows) == 0 {
		sb.WriteString("No tests match.\n")
		return sb.String()
	}

	sb.WriteString("| Test | Failed |")
	for _, col := range table.Columns {
		fmt.Fprintf(&sb, " [%s](%s) |", col.Label, col.Link)
	}
	sb.WriteString("\n|------|-------:|")
	for range table.Columns {
		sb.WriteString("------|")
	}
	sb.WriteString("\n")

	for _, row := range rows {
		fmt.Fprintf(&sb, "| `%s` | %d |", row.DisplayName, row.FailedCount)
		for _, col := range table.Columns {
			fmt.Fprintf(&sb, " %s |", cellSymbols(row.Cells[col.ColumnID]))
		}
		sb.WriteString("\n")
	}

	if len(rows) < total {
		fmt.Fprintf(&sb, "\n%d of %d tests shown.\n", len(rows), total)
	}

	sb.WriteString("\nP passed, F failed, S skipped, ~ flaky, T timeout, ? unknown\n")

	return sb.String()
}

func cellSymbols(cell []models.Outcome) string {
	if len(cell) == 0 {
		return "?"
	}
	var sb strings.Builder
	for _, o := range cell {
		s, ok := outcomeSymbols[o]
		if !ok {
			s = "?"
		}
		sb.WriteString(s)
	}
	return sb.String()
}
