package matrix

import (
	"encoding/json"
	"fmt"

	"github.com/lei/status-tracker/internal/models"
	"github.com/tidwall/gjson"
)

// GroupSize is the number of variants per build cell in the fixed-arity layout
const GroupSize = 4

// Aggregate holds the per-row counters that drive ranking
type Aggregate struct {
	Failed  int `json:"failed"`
	Timeout int `json:"timeout"`
	Flaky   int `json:"flaky"`
}

// Tally counts the failed, timeout and flaky outcomes in a sequence
func Tally(outcomes []models.Outcome) Aggregate {
	var agg Aggregate
	for _, o := range outcomes {
		switch o {
		case models.OutcomeFailed:
			agg.Failed++
		case models.OutcomeTimeout:
			agg.Timeout++
		case models.OutcomeFlaky:
			agg.Flaky++
		}
	}
	return agg
}

// Weight is the severity score: failures dominate, then timeouts, then flakes
func (a Aggregate) Weight() float64 {
	return float64(a.Failed)*100 + float64(a.Timeout) + float64(a.Flaky)*0.5
}

// Row is one decoded test row before ranking
type Row struct {
	Key   int
	Name  string
	Cells map[int64][]models.Outcome
	Aggregate
}

// Columns returns the canonical build column order of a payload
func Columns(p *models.Payload, v EncodingVersion) ([]int64, error) {
	s, err := schemeFor(v)
	if err != nil {
		return nil, err
	}
	return s.columns(p.Columns)
}

// Build decodes every row of the payload in input order.
// A malformed cell degrades to placeholderCell; a structural mismatch
// between index and data is returned as ErrIndexDataMismatch.
func Build(p *models.Payload, v EncodingVersion) ([]Row, []int64, error) {
	if p == nil {
		return nil, nil, fmt.Errorf("%w: empty payload", ErrContractViolation)
	}

	s, err := schemeFor(v)
	if err != nil {
		return nil, nil, err
	}

	if len(p.Index) != len(p.Data) {
		return nil, nil, fmt.Errorf("%w: index has %d rows, data has %d",
			ErrIndexDataMismatch, len(p.Index), len(p.Data))
	}

	columns, err := s.columns(p.Columns)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]Row, 0, len(p.Index))
	for i, name := range p.Index {
		groups := s.cells(gjson.ParseBytes(p.Data[i]), len(columns))

		cells := make(map[int64][]models.Outcome, len(columns))
		all := make([]models.Outcome, 0, len(columns)*GroupSize)
		for j, col := range columns {
			outcomes := decodeCell(groups[j], v)
			cells[col] = outcomes
			all = append(all, outcomes...)
		}

		rows = append(rows, Row{
			Key:       i,
			Name:      name,
			Cells:     cells,
			Aggregate: Tally(all),
		})
	}

	return rows, columns, nil
}

func decodeCell(codes []int64, v EncodingVersion) []models.Outcome {
	if codes == nil {
		return placeholderCell()
	}
	outcomes := make([]models.Outcome, len(codes))
	for i, c := range codes {
		outcomes[i] = Decode(c, v)
	}
	return outcomes
}

// placeholderCell stands in for a cell that is missing or not a code
// sequence. Bad upstream data for one row and build stays confined to that
// cell and reads as unknown.
func placeholderCell() []models.Outcome {
	cell := make([]models.Outcome, GroupSize)
	for i := range cell {
		cell[i] = models.OutcomeUnknown
	}
	return cell
}

// flattenedColumns reads V1 columns: [buildId, slot] pairs, deduplicated in
// order of first appearance so ids line up with the 4-wide row chunks.
func flattenedColumns(raw []json.RawMessage) ([]int64, error) {
	seen := make(map[int64]struct{}, len(raw)/GroupSize+1)
	ids := make([]int64, 0, len(raw)/GroupSize+1)
	for i, entry := range raw {
		r := gjson.ParseBytes(entry)
		if r.IsArray() {
			r = r.Get("0")
		}
		id, ok := readInt(r)
		if !ok {
			return nil, fmt.Errorf("%w: column %d has no build id", ErrMalformedColumns, i)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// groupedColumns reads V2 columns: already one build id per column
func groupedColumns(raw []json.RawMessage) ([]int64, error) {
	seen := make(map[int64]struct{}, len(raw))
	ids := make([]int64, 0, len(raw))
	for i, entry := range raw {
		id, ok := readInt(gjson.ParseBytes(entry))
		if !ok {
			return nil, fmt.Errorf("%w: column %d is not a build id", ErrMalformedColumns, i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: build %d listed twice", ErrMalformedColumns, id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// chunkedCells splits a flat V1 row into GroupSize chunks, one per column.
// A chunk cut short by the end of the row is left nil.
func chunkedCells(row gjson.Result, columns int) [][]int64 {
	cells := make([][]int64, columns)
	if !row.IsArray() {
		return cells
	}
	codes := row.Array()
	for j := range cells {
		start := j * GroupSize
		if start+GroupSize > len(codes) {
			break
		}
		cells[j] = readCodes(codes[start : start+GroupSize])
	}
	return cells
}

// groupedCells pairs V2 cells with columns by position. Only array cells
// are kept; scalars and missing cells are left nil.
func groupedCells(row gjson.Result, columns int) [][]int64 {
	cells := make([][]int64, columns)
	if !row.IsArray() {
		return cells
	}
	raw := row.Array()
	for j := range cells {
		if j >= len(raw) || !raw[j].IsArray() {
			continue
		}
		cells[j] = readCodes(raw[j].Array())
	}
	return cells
}

func readCodes(values []gjson.Result) []int64 {
	codes := make([]int64, len(values))
	for i, v := range values {
		code, ok := readInt(v)
		if !ok {
			code = unmappedCode
		}
		codes[i] = code
	}
	return codes
}

func readInt(r gjson.Result) (int64, bool) {
	if r.Type != gjson.Number {
		return 0, false
	}
	n := r.Int()
	if float64(n) != r.Num {
		return 0, false
	}
	return n, true
}
