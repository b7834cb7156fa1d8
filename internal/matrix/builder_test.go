package matrix

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lei/status-tracker/internal/models"
)

func rawList(items ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(items))
	for i, s := range items {
		out[i] = json.RawMessage(s)
	}
	return out
}

func unknowns(n int) []models.Outcome {
	out := make([]models.Outcome, n)
	for i := range out {
		out[i] = models.OutcomeUnknown
	}
	return out
}

func TestBuild_V2(t *testing.T) {
	p := &models.Payload{
		Index:   []string{"python/ray/tests/test_a.py::test_one"},
		Data:    rawList(`[[1],[4],[2]]`),
		Columns: rawList(`101`, `102`, `103`),
	}

	rows, columns, err := Build(p, V2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []int64{101, 102, 103}, columns)

	row := rows[0]
	assert.Equal(t, []models.Outcome{models.OutcomePassed}, row.Cells[101])
	assert.Equal(t, []models.Outcome{models.OutcomeFailed}, row.Cells[102])
	assert.Equal(t, []models.Outcome{models.OutcomeFlaky}, row.Cells[103])
	assert.Equal(t, Aggregate{Failed: 1, Timeout: 0, Flaky: 1}, row.Aggregate)
	assert.InDelta(t, 100.5, row.Weight(), 1e-9)
}

func TestBuild_V2MalformedCells(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want map[int64][]models.Outcome
	}{
		{
			name: "scalar cell",
			row:  `[[1,1,4,3], 7]`,
			want: map[int64][]models.Outcome{
				41: {models.OutcomePassed, models.OutcomePassed, models.OutcomeFailed, models.OutcomeTimeout},
				42: unknowns(4),
			},
		},
		{
			name: "row shorter than columns",
			row:  `[[2]]`,
			want: map[int64][]models.Outcome{
				41: {models.OutcomeFlaky},
				42: unknowns(4),
			},
		},
		{
			name: "null row",
			row:  `null`,
			want: map[int64][]models.Outcome{41: unknowns(4), 42: unknowns(4)},
		},
		{
			name: "object cell and non-integer codes",
			row:  `[{"a":1}, [1, "x", 2.5, null]]`,
			want: map[int64][]models.Outcome{
				41: unknowns(4),
				42: {models.OutcomePassed, models.OutcomeUnknown, models.OutcomeUnknown, models.OutcomeUnknown},
			},
		},
		{
			name: "empty cell keeps its length",
			row:  `[[], [4]]`,
			want: map[int64][]models.Outcome{
				41: {},
				42: {models.OutcomeFailed},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.Payload{
				Index:   []string{"t"},
				Data:    rawList(tt.row),
				Columns: rawList(`41`, `42`),
			}

			rows, _, err := Build(p, V2)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.want, rows[0].Cells)
		})
	}
}

func TestBuild_V1(t *testing.T) {
	p := &models.Payload{
		Index: []string{"test_a", "test_b"},
		Data: rawList(
			`[0,1,2,3, 1,1,0,0]`,
			`[0,0,0,0]`,
		),
		Columns: rawList(
			`[201,0]`, `[201,1]`, `[201,2]`, `[201,3]`,
			`[200,0]`, `[200,1]`, `[200,2]`, `[200,3]`,
		),
	}

	rows, columns, err := Build(p, V1)
	require.NoError(t, err)
	assert.Equal(t, []int64{201, 200}, columns)
	require.Len(t, rows, 2)

	a := rows[0]
	assert.Equal(t, []models.Outcome{
		models.OutcomePassed, models.OutcomeFailed, models.OutcomeSkipped, models.OutcomeUnknown,
	}, a.Cells[201])
	assert.Equal(t, []models.Outcome{
		models.OutcomeFailed, models.OutcomeFailed, models.OutcomePassed, models.OutcomePassed,
	}, a.Cells[200])
	assert.Equal(t, 3, a.Failed)

	// Second row ends after the first chunk.
	b := rows[1]
	assert.Equal(t, []models.Outcome{
		models.OutcomePassed, models.OutcomePassed, models.OutcomePassed, models.OutcomePassed,
	}, b.Cells[201])
	assert.Equal(t, unknowns(4), b.Cells[200])
	assert.Equal(t, 0, b.Failed)
}

func TestBuild_V1PartialChunk(t *testing.T) {
	p := &models.Payload{
		Index:   []string{"t"},
		Data:    rawList(`[1,1,1,1, 1,1]`),
		Columns: rawList(`[5,0]`, `[5,1]`, `[5,2]`, `[5,3]`, `[6,0]`, `[6,1]`, `[6,2]`, `[6,3]`),
	}

	rows, _, err := Build(p, V1)
	require.NoError(t, err)
	assert.Equal(t, unknowns(4), rows[0].Cells[6])
	assert.Equal(t, 4, rows[0].Failed)
}

func TestBuild_CountsMatchOutcomes(t *testing.T) {
	p := &models.Payload{
		Index: []string{"a", "b", "c"},
		Data: rawList(
			`[[4,4,3,2],[0,1,8,4]]`,
			`[[3,3,3,3],"oops"]`,
			`[[2,2,1,1],[2,4,3,6]]`,
		),
		Columns: rawList(`1`, `2`),
	}

	rows, _, err := Build(p, V2)
	require.NoError(t, err)

	for _, row := range rows {
		var failed, timeout, flaky int
		for _, cell := range row.Cells {
			for _, o := range cell {
				switch o {
				case models.OutcomeFailed:
					failed++
				case models.OutcomeTimeout:
					timeout++
				case models.OutcomeFlaky:
					flaky++
				}
			}
		}
		assert.Equal(t, failed, row.Failed, row.Name)
		assert.Equal(t, timeout, row.Timeout, row.Name)
		assert.Equal(t, flaky, row.Flaky, row.Name)
	}
}

func TestBuild_KeysFollowInputOrder(t *testing.T) {
	p := &models.Payload{
		Index:   []string{"z", "y", "x"},
		Data:    rawList(`[[1]]`, `[[4]]`, `[[2]]`),
		Columns: rawList(`9`),
	}

	rows, _, err := Build(p, V2)
	require.NoError(t, err)
	for i, row := range rows {
		assert.Equal(t, i, row.Key)
		assert.Equal(t, p.Index[i], row.Name)
	}
}

func TestBuild_ContractViolations(t *testing.T) {
	tests := []struct {
		name    string
		payload *models.Payload
		version EncodingVersion
		wantErr error
	}{
		{
			name: "index longer than data",
			payload: &models.Payload{
				Index:   []string{"a", "b", "c", "d", "e"},
				Data:    rawList(`[[1]]`, `[[1]]`, `[[1]]`, `[[1]]`),
				Columns: rawList(`1`),
			},
			version: V2,
			wantErr: ErrIndexDataMismatch,
		},
		{
			name: "data longer than index",
			payload: &models.Payload{
				Index:   []string{"a"},
				Data:    rawList(`[0,0,0,0]`, `[0,0,0,0]`),
				Columns: rawList(`[1,0]`),
			},
			version: V1,
			wantErr: ErrIndexDataMismatch,
		},
		{
			name: "v2 column not a number",
			payload: &models.Payload{
				Index:   []string{"a"},
				Data:    rawList(`[[1]]`),
				Columns: rawList(`"abc"`),
			},
			version: V2,
			wantErr: ErrMalformedColumns,
		},
		{
			name: "v2 duplicate column",
			payload: &models.Payload{
				Index:   []string{"a"},
				Data:    rawList(`[[1],[1]]`),
				Columns: rawList(`3`, `3`),
			},
			version: V2,
			wantErr: ErrMalformedColumns,
		},
		{
			name: "v1 column without build id",
			payload: &models.Payload{
				Index:   []string{"a"},
				Data:    rawList(`[0,0,0,0]`),
				Columns: rawList(`["abc",0]`),
			},
			version: V1,
			wantErr: ErrMalformedColumns,
		},
		{
			name:    "nil payload",
			payload: nil,
			version: V2,
			wantErr: ErrContractViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, _, err := Build(tt.payload, tt.version)
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrContractViolation)
			assert.Nil(t, rows)
		})
	}
}

func TestBuild_UnknownEncoding(t *testing.T) {
	_, _, err := Build(&models.Payload{}, EncodingVersion(9))
	require.ErrorIs(t, err, ErrUnknownEncoding)
	assert.NotErrorIs(t, err, ErrContractViolation)
}

func TestTally(t *testing.T) {
	agg := Tally([]models.Outcome{
		models.OutcomePassed, models.OutcomeFailed, models.OutcomeFlaky,
	})
	assert.Equal(t, Aggregate{Failed: 1, Flaky: 1}, agg)
	assert.InDelta(t, 100.5, agg.Weight(), 1e-9)

	assert.Equal(t, Aggregate{}, Tally(nil))
}
