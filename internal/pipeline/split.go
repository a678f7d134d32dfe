package pipeline

import (
	"fmt"
	"math"
	"math/rand"

	"renovate/internal/dataset"
)

// Split shuffles row indices with a seeded permutation and carves off the
// first ceil(testRatio*n) as the test partition. Both partitions are
// disjoint, together cover 0..n-1, and depend only on n, testRatio and seed.
func Split(n int, testRatio float64, seed int64) (train, test []int, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio must be in (0, 1), got %g", testRatio)
	}
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: %d rows, need at least 2 to split", dataset.ErrInsufficientData, n)
	}

	nTest := int(math.Ceil(testRatio * float64(n)))
	nTrain := n - nTest
	if nTest == 0 || nTrain == 0 {
		return nil, nil, fmt.Errorf("%w: %d rows leave an empty partition at test ratio %g",
			dataset.ErrInsufficientData, n, testRatio)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	return train, test, nil
}

func takeRows(x [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for k, i := range idx {
		out[k] = x[i]
	}
	return out
}

func takeValues(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = y[i]
	}
	return out
}
