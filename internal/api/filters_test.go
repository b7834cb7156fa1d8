package api

import (
	"testing"

	"github.com/lei/status-tracker/internal/models"
)

func TestFilterRows(t *testing.T) {
	rows := []models.RowView{
		{Key: 2, TooltipFullName: "test_actor.py::test_restart", FailedCount: 3},
		{Key: 0, TooltipFullName: "test_basic.py::test_put_get", FailedCount: 1},
		{Key: 1, TooltipFullName: "test_basic.py::test_simple", FailedCount: 0},
		{Key: 3, TooltipFullName: "test_Actor.py::test_kill", FailedCount: 0},
	}

	tests := []struct {
		name    string
		search  string
		failing *bool
		want    []int
	}{
		{"no filters", "", nil, []int{2, 0, 1, 3}},
		{"search basic", "basic", nil, []int{0, 1}},
		{"search is case-insensitive", "ACTOR", nil, []int{2, 3}},
		{"failing only", "", boolPtr(true), []int{2, 0}},
		{"passing only", "", boolPtr(false), []int{1, 3}},
		{"search + failing", "basic", boolPtr(true), []int{0}},
		{"no match", "missing", nil, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterRows(rows, tt.search, tt.failing)
			if len(got) != len(tt.want) {
				t.Fatalf("FilterRows() = %d rows, want %d", len(got), len(tt.want))
			}
			for i, row := range got {
				if row.Key != tt.want[i] {
					t.Errorf("FilterRows()[%d].Key = %d, want %d", i, row.Key, tt.want[i])
				}
			}
		})
	}
}

func TestParseBoolParam(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  *bool
	}{
		{"empty", "", nil},
		{"true", "true", boolPtr(true)},
		{"1", "1", boolPtr(true)},
		{"false", "false", boolPtr(false)},
		{"0", "0", boolPtr(false)},
		{"invalid", "invalid", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseBoolParam(tt.value)
			if (got == nil) != (tt.want == nil) {
				t.Errorf("parseBoolParam() = %v, want %v", got, tt.want)
				return
			}
			if got != nil && tt.want != nil && *got != *tt.want {
				t.Errorf("parseBoolParam() = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func boolPtr(b bool) *bool {
	return &b
}
