// Package profiling summarises the numeric columns of an upload, the
// counterpart of a dataframe describe().
package profiling

import (
	"fmt"

	"renovate/internal/dataset"
)

// DataProfiler profiles every modelled column of a dataset
type DataProfiler struct {
	analyzer *DistributionAnalyzer
}

// NewDataProfiler creates a new data profiler
func NewDataProfiler() *DataProfiler {
	return &DataProfiler{analyzer: NewDistributionAnalyzer()}
}

// ProfileColumn summarises a single column
func (dp *DataProfiler) ProfileColumn(name string, data []float64) (ColumnProfile, error) {
	summary, err := dp.analyzer.Summarize(data)
	if err != nil {
		return ColumnProfile{}, fmt.Errorf("profile column '%s': %w", name, err)
	}
	return ColumnProfile{Name: name, Summary: summary}, nil
}

// ProfileMatrix summarises each feature in header order followed by the target.
func (dp *DataProfiler) ProfileMatrix(m *dataset.Matrix, target string) ([]ColumnProfile, error) {
	profiles := make([]ColumnProfile, 0, len(m.FeatureNames)+1)
	col := make([]float64, len(m.X))
	for j, name := range m.FeatureNames {
		for i, row := range m.X {
			col[i] = row[j]
		}
		p, err := dp.ProfileColumn(name, col)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	p, err := dp.ProfileColumn(target, m.Y)
	if err != nil {
		return nil, err
	}
	p.IsTarget = true
	return append(profiles, p), nil
}
