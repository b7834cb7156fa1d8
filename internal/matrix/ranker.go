package matrix

import (
	"cmp"
	"slices"
)

// Rank orders rows by descending weight. The sort is stable, so rows with
// equal weight keep their input order and ranking a ranked slice is a no-op.
// The input slice is left untouched.
func Rank(rows []Row) []Row {
	ranked := slices.Clone(rows)
	slices.SortStableFunc(ranked, func(a, b Row) int {
		return cmp.Compare(b.Weight(), a.Weight())
	})
	return ranked
}
