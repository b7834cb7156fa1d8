package matrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lei/status-tracker/internal/models"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		version EncodingVersion
		code    int64
		want    models.Outcome
	}{
		{"v1 passed", V1, 0, models.OutcomePassed},
		{"v1 failed", V1, 1, models.OutcomeFailed},
		{"v1 skipped", V1, 2, models.OutcomeSkipped},
		{"v1 unknown", V1, 3, models.OutcomeUnknown},
		{"v1 out of range", V1, 42, models.OutcomeUnknown},
		{"v1 negative", V1, -1, models.OutcomeUnknown},
		{"v2 unknown", V2, 0, models.OutcomeUnknown},
		{"v2 passed", V2, 1, models.OutcomePassed},
		{"v2 flaky", V2, 2, models.OutcomeFlaky},
		{"v2 timeout", V2, 3, models.OutcomeTimeout},
		{"v2 failed", V2, 4, models.OutcomeFailed},
		{"v2 collapsed 5", V2, 5, models.OutcomeUnknown},
		{"v2 collapsed 6", V2, 6, models.OutcomeUnknown},
		{"v2 collapsed 7", V2, 7, models.OutcomeUnknown},
		{"v2 collapsed 8", V2, 8, models.OutcomeUnknown},
		{"v2 out of range", V2, 9, models.OutcomeUnknown},
		{"unknown version", EncodingVersion(7), 1, models.OutcomeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.code, tt.version))
		})
	}
}

func TestDecode_Total(t *testing.T) {
	mapped := map[EncodingVersion]map[int64]bool{
		V1: {0: true, 1: true, 2: true},
		V2: {1: true, 2: true, 3: true, 4: true},
	}

	codes := []int64{math.MinInt64, math.MaxInt64, -1000, 1000}
	for c := int64(-50); c <= 50; c++ {
		codes = append(codes, c)
	}

	for version, known := range mapped {
		for _, code := range codes {
			got := Decode(code, version)
			if known[code] {
				assert.NotEqual(t, models.OutcomeUnknown, got, "%s code %d", version, code)
				continue
			}
			assert.Equal(t, models.OutcomeUnknown, got, "%s code %d", version, code)
		}
	}
}

func TestEncode(t *testing.T) {
	assert.Equal(t, int64(1), Encode(models.OutcomeFailed, V1))
	assert.Equal(t, int64(3), Encode(models.OutcomeFlaky, V1))
	assert.Equal(t, int64(3), Encode(models.OutcomeTimeout, V1))
	assert.Equal(t, int64(4), Encode(models.OutcomeFailed, V2))
	assert.Equal(t, int64(5), Encode(models.OutcomeSkipped, V2))

	// Outcomes a version cannot express come back as unknown.
	assert.Equal(t, models.OutcomeUnknown, Decode(Encode(models.OutcomeSkipped, V2), V2))
	assert.Equal(t, models.OutcomeUnknown, Decode(Encode(models.OutcomeTimeout, V1), V1))
}

func TestParseEncodingVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    EncodingVersion
		wantErr bool
	}{
		{"v1", V1, false},
		{"V2", V2, false},
		{" 2 ", V2, false},
		{"v3", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEncodingVersion(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownEncoding)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDictionary(t *testing.T) {
	assert.Equal(t, map[string]int{
		"PASSED":  0,
		"FAILED":  1,
		"SKIPPED": 2,
		"UNKNOWN": 3,
	}, Dictionary(V1))

	v2 := Dictionary(V2)
	assert.Equal(t, 4, v2["FAILED"])
	assert.Equal(t, 0, v2["UNKNOWN"])
	assert.Nil(t, Dictionary(EncodingVersion(0)))
}
