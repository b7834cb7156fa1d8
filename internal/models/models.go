package models

import (
	"encoding/json"
	"time"
)

// Outcome is the semantic result of one test variant in one build
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
	OutcomeUnknown Outcome = "unknown"
	OutcomeFlaky   Outcome = "flaky"
	OutcomeTimeout Outcome = "timeout"
)

// ParseOutcome maps a log keyword (PASSED, FAILED, ...) to an Outcome.
// Anything unrecognized is unknown.
func ParseOutcome(s string) Outcome {
	switch s {
	case "PASSED", "passed":
		return OutcomePassed
	case "FAILED", "failed":
		return OutcomeFailed
	case "SKIPPED", "skipped":
		return OutcomeSkipped
	case "FLAKY", "flaky":
		return OutcomeFlaky
	case "TIMEOUT", "timeout":
		return OutcomeTimeout
	default:
		return OutcomeUnknown
	}
}

// Build is one CI run of the tracked branch as recorded by the collector
type Build struct {
	ID            int64   `json:"build_id"`
	SHA           string  `json:"sha"`
	CommitMessage string  `json:"commit_message"`
	JobIDs        []int64 `json:"job_ids"`
}

// TestResult is one test line extracted from a job log
type TestResult struct {
	Name    string  `json:"name"`
	Outcome Outcome `json:"outcome"`
}

// BuildMetadata is the per-column metadata carried by the payload
type BuildMetadata struct {
	SHA           string  `json:"sha"`
	CommitMessage string  `json:"commit_message"`
	BuildID       int64   `json:"build_id,omitempty"`
	JobIDs        []int64 `json:"job_ids,omitempty"`
}

// Payload is the raw status matrix served on /api.
// Rows and columns stay raw because their shape depends on the encoding version.
type Payload struct {
	Index    []string                 `json:"index"`
	Data     []json.RawMessage        `json:"data"`
	Columns  []json.RawMessage        `json:"columns"`
	Metadata map[string]BuildMetadata `json:"metadata"`
	Encoding map[string]int           `json:"encoding,omitempty"`
}

// ColumnHeader describes one build column of the rendered table
type ColumnHeader struct {
	ColumnID       int64  `json:"column_id"`
	Label          string `json:"label"`
	TooltipSubject string `json:"tooltip_subject"`
	Link           string `json:"link"`
}

// RowView is one ranked test row of the rendered table
type RowView struct {
	Key             int                 `json:"key"`
	DisplayName     string              `json:"display_name"`
	TooltipFullName string              `json:"tooltip_full_name"`
	FailedCount     int                 `json:"failed_count"`
	TimeoutCount    int                 `json:"timeout_count"`
	FlakyCount      int                 `json:"flaky_count"`
	Weight          float64             `json:"weight"`
	Cells           map[int64][]Outcome `json:"cells"`
}

// Table is the display model produced from one payload snapshot
type Table struct {
	Encoding    string         `json:"encoding"`
	Variants    []string       `json:"variants,omitempty"`
	Columns     []ColumnHeader `json:"columns"`
	Rows        []RowView      `json:"rows"`
	LastUpdated *time.Time     `json:"last_updated,omitempty"`
}
