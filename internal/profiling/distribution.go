package profiling

import (
	"errors"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// DistributionAnalyzer computes summary statistics for a column
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// Summarize computes count, moments, extremes and quartiles of data.
func (da *DistributionAnalyzer) Summarize(data []float64) (Summary, error) {
	if len(data) == 0 {
		return Summary{}, errors.New("profiling: empty column")
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return Summary{}, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return Summary{}, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return Summary{}, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return Summary{}, err
	}

	// a single observation has no sample spread
	var stdDev float64
	if len(data) > 1 {
		if stdDev, err = stats.StandardDeviationSample(data); err != nil {
			return Summary{}, err
		}
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	q25 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q75 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)

	return Summary{
		Count:    len(data),
		Mean:     mean,
		StdDev:   stdDev,
		Min:      min,
		Q25:      q25,
		Median:   median,
		Q75:      q75,
		Max:      max,
		Skewness: calculateSkewness(data, mean, stdDev),
		Outliers: detectOutliers(data, q25, q75),
	}, nil
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	n := float64(len(data))
	if n < 3 || stdDev == 0 {
		return 0
	}

	var sum float64
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d
	}
	skew := n / ((n - 1) * (n - 2)) * sum
	if math.IsNaN(skew) || math.IsInf(skew, 0) {
		return 0
	}
	return skew
}

// detectOutliers counts values outside the 1.5 IQR fences
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lower := q25 - 1.5*iqr
	upper := q75 + 1.5*iqr

	count := 0
	for _, x := range data {
		if x < lower || x > upper {
			count++
		}
	}
	return count
}
