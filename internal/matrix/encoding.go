// Package matrix turns a raw status payload into the ranked test table.
//
// The package is pure: it performs no I/O and keeps no state between calls,
// so one payload snapshot always renders to the same table.
package matrix

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lei/status-tracker/internal/models"
	"github.com/tidwall/gjson"
)

// EncodingVersion selects how status codes and cells are laid out in a payload
type EncodingVersion int

const (
	// V1 is the 4-way encoding with flattened rows: every raw column is a
	// [buildId, slot] pair and four consecutive codes form one build cell.
	V1 EncodingVersion = 1
	// V2 is the 5-way encoding with grouped rows: columns are build ids and
	// every cell is itself a sequence of codes.
	V2 EncodingVersion = 2
)

// unmappedCode is what a non-integer code reads as; no table maps it.
const unmappedCode int64 = -1

func (v EncodingVersion) String() string {
	return fmt.Sprintf("v%d", int(v))
}

// ParseEncodingVersion parses "v1"/"v2" (or "1"/"2")
func ParseEncodingVersion(s string) (EncodingVersion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v1", "1":
		return V1, nil
	case "v2", "2":
		return V2, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
	}
}

// scheme pairs a decode table with the cell-grouping strategy of one version
type scheme struct {
	decode   map[int64]models.Outcome
	encode   map[models.Outcome]int64
	fallback int64
	columns  func(raw []json.RawMessage) ([]int64, error)
	cells    func(row gjson.Result, columns int) [][]int64
}

var schemes = map[EncodingVersion]scheme{
	V1: {
		decode: map[int64]models.Outcome{
			0: models.OutcomePassed,
			1: models.OutcomeFailed,
			2: models.OutcomeSkipped,
		},
		encode: map[models.Outcome]int64{
			models.OutcomePassed:  0,
			models.OutcomeFailed:  1,
			models.OutcomeSkipped: 2,
			models.OutcomeUnknown: 3,
		},
		fallback: 3,
		columns:  flattenedColumns,
		cells:    chunkedCells,
	},
	V2: {
		decode: map[int64]models.Outcome{
			0: models.OutcomeUnknown,
			1: models.OutcomePassed,
			2: models.OutcomeFlaky,
			3: models.OutcomeTimeout,
			4: models.OutcomeFailed,
			// 5-8 are raw sub-statuses that collapse to unknown
			5: models.OutcomeUnknown,
			6: models.OutcomeUnknown,
			7: models.OutcomeUnknown,
			8: models.OutcomeUnknown,
		},
		encode: map[models.Outcome]int64{
			models.OutcomeUnknown: 0,
			models.OutcomePassed:  1,
			models.OutcomeFlaky:   2,
			models.OutcomeTimeout: 3,
			models.OutcomeFailed:  4,
			models.OutcomeSkipped: 5,
		},
		fallback: 0,
		columns:  groupedColumns,
		cells:    groupedCells,
	},
}

func schemeFor(v EncodingVersion) (scheme, error) {
	s, ok := schemes[v]
	if !ok {
		return scheme{}, fmt.Errorf("%w: %d", ErrUnknownEncoding, int(v))
	}
	return s, nil
}

// Decode maps a raw status code to its Outcome. It is total: any code the
// version does not map, and any unknown version, yields OutcomeUnknown.
func Decode(code int64, v EncodingVersion) models.Outcome {
	s, ok := schemes[v]
	if !ok {
		return models.OutcomeUnknown
	}
	if outcome, ok := s.decode[code]; ok {
		return outcome
	}
	return models.OutcomeUnknown
}

// Encode maps an Outcome to the raw code of the given version.
// Outcomes the version cannot express use its unknown code.
func Encode(outcome models.Outcome, v EncodingVersion) int64 {
	s, ok := schemes[v]
	if !ok {
		return unmappedCode
	}
	if code, ok := s.encode[outcome]; ok {
		return code
	}
	return s.fallback
}

// Dictionary returns the keyword → code table published alongside a payload
func Dictionary(v EncodingVersion) map[string]int {
	s, ok := schemes[v]
	if !ok {
		return nil
	}
	dict := make(map[string]int, len(s.encode))
	for outcome, code := range s.encode {
		dict[strings.ToUpper(string(outcome))] = int(code)
	}
	return dict
}
