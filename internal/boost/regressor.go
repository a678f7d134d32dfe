// Package boost implements gradient boosted regression trees with a
// second-order (gradient and hessian) split criterion and L2 regularised
// leaf weights.
package boost

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"renovate/internal/logging"
)

var (
	ErrEmptyInput    = errors.New("boost: empty training data")
	ErrShapeMismatch = errors.New("boost: shape mismatch")
	ErrInvalidValue  = errors.New("boost: NaN or infinite value")
	ErrNotFitted     = errors.New("boost: model is not fitted")
)

// minSplitGain is the smallest loss reduction that justifies a split.
const minSplitGain = 1e-6

// Config holds the booster hyperparameters.
type Config struct {
	Rounds         int
	LearningRate   float64
	MaxDepth       int
	Lambda         float64
	MinChildWeight float64
	BaseScore      float64
	// Seed is recorded with the model. The exact greedy learner without
	// row or column subsampling draws no random numbers.
	Seed int64
}

// DefaultConfig returns squared-error defaults: 100 rounds, eta 0.3, depth 6.
func DefaultConfig() Config {
	return Config{
		Rounds:         100,
		LearningRate:   0.3,
		MaxDepth:       6,
		Lambda:         1,
		MinChildWeight: 1,
		BaseScore:      0.5,
		Seed:           42,
	}
}

func (c Config) validate() error {
	switch {
	case c.Rounds <= 0:
		return fmt.Errorf("boost: rounds must be positive, got %d", c.Rounds)
	case c.LearningRate <= 0:
		return fmt.Errorf("boost: learning rate must be positive, got %g", c.LearningRate)
	case c.MaxDepth <= 0:
		return fmt.Errorf("boost: max depth must be positive, got %d", c.MaxDepth)
	case c.Lambda < 0:
		return fmt.Errorf("boost: lambda must not be negative, got %g", c.Lambda)
	}
	return nil
}

// Regressor is an additive ensemble of regression trees fitted to squared error.
type Regressor struct {
	cfg       Config
	trees     []*node
	nFeatures int
	gains     []float64
	fitted    bool
}

// NewRegressor returns an unfitted regressor.
func NewRegressor(cfg Config) *Regressor {
	return &Regressor{cfg: cfg}
}

// Config returns the hyperparameters the regressor was built with.
func (r *Regressor) Config() Config {
	return r.cfg
}

// Fit trains the ensemble on X (n rows by p features) and targets y.
// Calling Fit again discards the previous ensemble.
func (r *Regressor) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if err := r.cfg.validate(); err != nil {
		return err
	}
	p, err := checkMatrix(X)
	if err != nil {
		return err
	}
	if len(y) != len(X) {
		return fmt.Errorf("%w: %d rows but %d targets", ErrShapeMismatch, len(X), len(y))
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: target row %d", ErrInvalidValue, i)
		}
	}

	log := logging.With("boost")
	start := time.Now()

	n := len(X)
	b := newBuilder(r.cfg, X, p)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = r.cfg.BaseScore
	}

	trees := make([]*node, 0, r.cfg.Rounds)
	for round := 0; round < r.cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		// squared error: gradient pred - y, hessian 1
		for i := range pred {
			b.grad[i] = pred[i] - y[i]
			b.hess[i] = 1
		}
		tree, err := b.grow(ctx)
		if err != nil {
			return err
		}
		for i, row := range X {
			pred[i] += tree.predict(row)
		}
		trees = append(trees, tree)
	}

	r.trees = trees
	r.nFeatures = p
	r.gains = b.gains
	r.fitted = true

	log.Debug().
		Int("rows", n).
		Int("features", p).
		Int("trees", len(trees)).
		Dur("elapsed", time.Since(start)).
		Msg("ensemble fitted")
	return nil
}

// Predict returns one prediction per row of X.
func (r *Regressor) Predict(X [][]float64) ([]float64, error) {
	if !r.fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != r.nFeatures {
			return nil, fmt.Errorf("%w: row %d has %d features, model expects %d", ErrShapeMismatch, i, len(row), r.nFeatures)
		}
		sum := r.cfg.BaseScore
		for _, t := range r.trees {
			sum += t.predict(row)
		}
		out[i] = sum
	}
	return out, nil
}

// FeatureImportances returns each feature's share of the total split gain,
// summing to 1. Every entry is 0 when no tree ever split.
func (r *Regressor) FeatureImportances() []float64 {
	out := make([]float64, r.nFeatures)
	var total float64
	for _, g := range r.gains {
		total += g
	}
	if total <= 0 {
		return out
	}
	for j, g := range r.gains {
		out[j] = g / total
	}
	return out
}

// NumTrees reports the ensemble size.
func (r *Regressor) NumTrees() int {
	return len(r.trees)
}

func checkMatrix(X [][]float64) (int, error) {
	if len(X) == 0 || len(X[0]) == 0 {
		return 0, ErrEmptyInput
	}
	p := len(X[0])
	for i, row := range X {
		if len(row) != p {
			return 0, fmt.Errorf("%w: row %d has %d features, expected %d", ErrShapeMismatch, i, len(row), p)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, fmt.Errorf("%w: row %d feature %d", ErrInvalidValue, i, j)
			}
		}
	}
	return p, nil
}
