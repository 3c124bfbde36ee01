package stats

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics_Counters(t *testing.T) {
	var s Statistics
	assert.True(t, s.IsZero())

	s.Played()
	s.Played()
	s.Skipped()

	assert.Equal(t, uint32(2), s.PlayCnt)
	assert.Equal(t, uint32(1), s.SkipCnt)
	assert.False(t, s.IsZero())
}

func TestStatistics_Rating(t *testing.T) {
	tests := []struct {
		name     string
		stats    Statistics
		expected float64
	}{
		{
			name:     "never listened",
			stats:    Statistics{},
			expected: 0,
		},
		{
			name:     "only plays",
			stats:    Statistics{PlayCnt: 4},
			expected: 16, // 4/1 * 4
		},
		{
			name:     "only skips",
			stats:    Statistics{SkipCnt: 5},
			expected: 0,
		},
		{
			name:     "mixed",
			stats:    Statistics{PlayCnt: 3, SkipCnt: 1},
			expected: 6, // 3/2 * 4
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.stats.Rating(), 1e-9)
		})
	}
}

func TestStatistics_JSONRoundTrip(t *testing.T) {
	orig := Statistics{PlayCnt: 3, SkipCnt: 1}

	data, err := json.Marshal(orig)
	require.NoError(t, err)
	assert.JSONEq(t, `{"play_cnt":3,"skip_cnt":1}`, string(data))

	var decoded Statistics
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, orig, decoded)
}
