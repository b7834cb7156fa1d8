package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rowWith(key int, agg Aggregate) Row {
	return Row{Key: key, Aggregate: agg}
}

func keys(rows []Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.Key
	}
	return out
}

func TestRank_Descending(t *testing.T) {
	rows := []Row{
		rowWith(0, Aggregate{Failed: 1, Flaky: 1}), // 100.5
		rowWith(1, Aggregate{Failed: 2}),           // 200
	}

	ranked := Rank(rows)

	assert.Equal(t, []int{1, 0}, keys(ranked))
	assert.InDelta(t, 200, ranked[0].Weight(), 1e-9)
	assert.InDelta(t, 100.5, ranked[1].Weight(), 1e-9)
}

func TestRank_StableOnTies(t *testing.T) {
	rows := []Row{
		rowWith(0, Aggregate{Timeout: 1}),
		rowWith(1, Aggregate{Flaky: 2}),
		rowWith(2, Aggregate{Failed: 1}),
		rowWith(3, Aggregate{}),
		rowWith(4, Aggregate{Timeout: 1}),
		rowWith(5, Aggregate{}),
	}

	ranked := Rank(rows)

	// 0, 1 and 4 all weigh 1; 3 and 5 weigh 0.
	assert.Equal(t, []int{2, 0, 1, 4, 3, 5}, keys(ranked))
	for i := 0; i+1 < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i].Weight(), ranked[i+1].Weight())
	}
}

func TestRank_Idempotent(t *testing.T) {
	rows := []Row{
		rowWith(0, Aggregate{Flaky: 3}),
		rowWith(1, Aggregate{Failed: 1, Timeout: 4}),
		rowWith(2, Aggregate{Timeout: 1, Flaky: 1}),
		rowWith(3, Aggregate{Failed: 1, Timeout: 4}),
	}

	once := Rank(rows)
	twice := Rank(once)

	assert.Equal(t, keys(once), keys(twice))
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	rows := []Row{
		rowWith(0, Aggregate{}),
		rowWith(1, Aggregate{Failed: 1}),
	}

	_ = Rank(rows)

	assert.Equal(t, []int{0, 1}, keys(rows))
	assert.Empty(t, Rank(nil))
}

func TestWeight_FailureDominates(t *testing.T) {
	single := Aggregate{Failed: 1}.Weight()

	for timeout := 0; timeout < 100; timeout++ {
		for flaky := 0; timeout+flaky < 100; flaky++ {
			other := Aggregate{Timeout: timeout, Flaky: flaky}
			assert.Greater(t, single, other.Weight(), "timeout=%d flaky=%d", timeout, flaky)
		}
	}
}

func TestWeight_MonotonicInFailures(t *testing.T) {
	prev := Aggregate{Timeout: 3, Flaky: 5}.Weight()
	for failed := 1; failed <= 20; failed++ {
		w := Aggregate{Failed: failed, Timeout: 3, Flaky: 5}.Weight()
		assert.Greater(t, w, prev)
		prev = w
	}
}

func TestWeight_TimeoutOutweighsFlaky(t *testing.T) {
	assert.Greater(t, Aggregate{Timeout: 1}.Weight(), Aggregate{Flaky: 1}.Weight())
	assert.InDelta(t, 1.0, Aggregate{Flaky: 2}.Weight(), 1e-9)
}
