package ports

import "context"

// RegressorPort is a trainable numeric model. Implementations must be
// deterministic for identical inputs and hyperparameters.
type RegressorPort interface {
	Fit(ctx context.Context, X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
	// FeatureImportances returns one non-negative score per training column.
	FeatureImportances() []float64
}
