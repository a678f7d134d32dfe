package pipeline

import (
	"sort"
	"testing"

	"renovate/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSizes(t *testing.T) {
	tests := []struct {
		n, train, test int
	}{
		{2, 1, 1},
		{5, 4, 1},
		{10, 8, 2},
		{11, 8, 3},
		{100, 80, 20},
	}

	for _, tt := range tests {
		train, test, err := Split(tt.n, 0.2, 42)
		require.NoError(t, err)
		assert.Len(t, train, tt.train, "n=%d", tt.n)
		assert.Len(t, test, tt.test, "n=%d", tt.n)
	}
}

func TestSplitDisjointAndCovering(t *testing.T) {
	train, test, err := Split(37, 0.2, 7)
	require.NoError(t, err)

	all := append(append([]int(nil), train...), test...)
	sort.Ints(all)
	for i, v := range all {
		assert.Equal(t, i, v)
	}
}

func TestSplitDeterministic(t *testing.T) {
	train1, test1, err := Split(100, 0.2, 42)
	require.NoError(t, err)
	train2, test2, err := Split(100, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)

	_, other, err := Split(100, 0.2, 43)
	require.NoError(t, err)
	assert.NotEqual(t, test1, other)
}

func TestSplitErrors(t *testing.T) {
	_, _, err := Split(1, 0.2, 42)
	assert.ErrorIs(t, err, dataset.ErrInsufficientData)

	_, _, err = Split(0, 0.2, 42)
	assert.ErrorIs(t, err, dataset.ErrInsufficientData)

	_, _, err = Split(10, 0, 42)
	assert.Error(t, err)

	_, _, err = Split(10, 1, 42)
	assert.Error(t, err)
}
