package pipeline

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"
)

var (
	ErrScalerFitted    = errors.New("scaler is already fitted")
	ErrScalerNotFitted = errors.New("scaler is not fitted")
)

// Scaler standardises each column to zero mean and unit population
// variance using statistics from the rows it was fitted on.
type Scaler struct {
	means    []float64
	scales   []float64
	constant []int
	fitted   bool
}

// NewScaler returns an unfitted scaler.
func NewScaler() *Scaler {
	return &Scaler{}
}

// Fit learns per-column mean and standard deviation. Columns with zero
// variance get a scale of 1 and are reported by Constant.
func (s *Scaler) Fit(x [][]float64) error {
	if s.fitted {
		return ErrScalerFitted
	}
	if len(x) == 0 || len(x[0]) == 0 {
		return errors.New("scaler: no rows to fit")
	}

	p := len(x[0])
	s.means = make([]float64, p)
	s.scales = make([]float64, p)
	col := make([]float64, len(x))
	for j := 0; j < p; j++ {
		for i, row := range x {
			if len(row) != p {
				return fmt.Errorf("scaler: row %d has %d columns, expected %d", i, len(row), p)
			}
			col[i] = row[j]
		}
		mean, err := stats.Mean(col)
		if err != nil {
			return fmt.Errorf("scaler: column %d mean: %w", j, err)
		}
		std, err := stats.StandardDeviationPopulation(col)
		if err != nil {
			return fmt.Errorf("scaler: column %d std: %w", j, err)
		}
		if std == 0 {
			std = 1
			s.constant = append(s.constant, j)
		}
		s.means[j] = mean
		s.scales[j] = std
	}
	s.fitted = true
	return nil
}

// Transform returns a standardised copy of x.
func (s *Scaler) Transform(x [][]float64) ([][]float64, error) {
	if !s.fitted {
		return nil, ErrScalerNotFitted
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != len(s.means) {
			return nil, fmt.Errorf("scaler: row %d has %d columns, expected %d", i, len(row), len(s.means))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.means[j]) / s.scales[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// FitTransform fits on x and returns its standardised copy.
func (s *Scaler) FitTransform(x [][]float64) ([][]float64, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}

// Constant returns the indices of zero-variance columns seen during Fit.
func (s *Scaler) Constant() []int {
	return append([]int(nil), s.constant...)
}

// Means returns the fitted column means.
func (s *Scaler) Means() []float64 {
	return append([]float64(nil), s.means...)
}

// Scales returns the fitted column scales.
func (s *Scaler) Scales() []float64 {
	return append([]float64(nil), s.scales...)
}
