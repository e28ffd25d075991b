package scan

import (
	"slices"
	"testing"

	"github.com/nobletooth/circle/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchGlob(t *testing.T) {
	names := []utils.Pair[string, int]{
		{Key: "queue1", Value: 3},
		{Key: "queue2", Value: 1},
		{Key: "jobs:queue", Value: 7},
	}

	for _, testCase := range []struct {
		name     string
		glob     string
		expected []utils.Pair[string, int]
	}{
		{
			name:     "match all",
			glob:     "*",
			expected: names,
		},
		{
			name:     "match with ?",
			glob:     "queue?",
			expected: []utils.Pair[string, int]{{Key: "queue1", Value: 3}, {Key: "queue2", Value: 1}},
		},
		{
			name:     "match with * at the end",
			glob:     "queue*",
			expected: []utils.Pair[string, int]{{Key: "queue1", Value: 3}, {Key: "queue2", Value: 1}},
		},
		{
			name:     "match with * at the beginning",
			glob:     "*queue",
			expected: []utils.Pair[string, int]{{Key: "jobs:queue", Value: 7}},
		},
		{
			name:     "exact",
			glob:     "queue2",
			expected: []utils.Pair[string, int]{{Key: "queue2", Value: 1}},
		},
		{
			name:     "no match",
			glob:     "nomatch",
			expected: nil,
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			matches, err := MatchGlob(testCase.glob, slices.Values(names))
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, slices.Collect(matches))
		})
	}

	t.Run("invalid pattern", func(t *testing.T) {
		matches, err := MatchGlob("queue[", slices.Values(names))
		assert.Error(t, err)
		assert.Nil(t, matches)
	})
}
