// Package pipeline turns a validated dataset into a trained model and its
// evaluation: split, standardise, fit, predict, score and rank features.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"renovate/internal/boost"
	"renovate/internal/config"
	"renovate/internal/dataset"
	"renovate/internal/logging"
	"renovate/internal/metrics"
	"renovate/internal/profiling"
	"renovate/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config controls one pipeline run.
type Config struct {
	Schema    dataset.Schema
	TestRatio float64
	Seed      int64
	TopK      int
	Model     boost.Config

	// NewModel builds the regressor. Nil means a boost.Regressor.
	NewModel func(boost.Config) ports.RegressorPort
}

// DefaultConfig returns an 80/20 split with seed 42, the default booster
// and the top three features.
func DefaultConfig() Config {
	return Config{
		Schema:    dataset.DefaultSchema(),
		TestRatio: 0.2,
		Seed:      42,
		TopK:      3,
		Model:     boost.DefaultConfig(),
	}
}

// FromAppConfig maps application settings onto a run configuration.
func FromAppConfig(c *config.Config) Config {
	cfg := DefaultConfig()
	cfg.Schema = dataset.Schema{IDColumn: c.Data.IDColumn, TargetColumn: c.Data.TargetColumn}
	cfg.TestRatio = c.Model.TestRatio
	cfg.Seed = c.Model.Seed
	cfg.TopK = c.Model.TopFeatures
	cfg.Model.Rounds = c.Model.Rounds
	cfg.Model.LearningRate = c.Model.LearningRate
	cfg.Model.MaxDepth = c.Model.MaxDepth
	cfg.Model.Seed = c.Model.Seed
	return cfg
}

func (c Config) model() ports.RegressorPort {
	if c.NewModel != nil {
		return c.NewModel(c.Model)
	}
	return boost.NewRegressor(c.Model)
}

// Result is everything the results screen displays for one run.
type Result struct {
	RunID            string
	Features         []string
	TrainRows        int
	TestRows         int
	ConstantFeatures []string
	TestActual       []float64
	TestPredicted    []float64
	MSE              float64
	Importances      []FeatureImportance // header order
	TopFeatures      []FeatureImportance
	TargetMin        float64
	TargetMax        float64
	Profiles         []profiling.ColumnProfile
	Elapsed          time.Duration
}

// FormattedMSE returns the error with two decimals.
func (r *Result) FormattedMSE() string {
	return FormatMSE(r.MSE)
}

// Run validates ds against the schema and executes every stage. Schema,
// type and size problems are returned before any model is fitted.
func Run(ctx context.Context, ds *dataset.Dataset, cfg Config) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := logging.With("pipeline").With().Str("run_id", runID).Str("dataset", ds.Name).Logger()

	res, err := run(ctx, ds, cfg, log)
	elapsed := time.Since(start)

	if err != nil {
		outcome := metrics.OutcomeFailure
		if dataset.IsUserError(err) {
			outcome = metrics.OutcomeUserError
			log.Warn().Err(err).Msg("dataset rejected")
		} else {
			log.Error().Err(err).Msg("pipeline failed")
		}
		metrics.RecordRun(outcome, elapsed, 0)
		return nil, err
	}

	res.RunID = runID
	res.Elapsed = elapsed
	metrics.RecordRun(metrics.OutcomeSuccess, elapsed, res.MSE)
	log.Info().
		Int("train_rows", res.TrainRows).
		Int("test_rows", res.TestRows).
		Float64("mse", res.MSE).
		Dur("elapsed", elapsed).
		Msg("model trained")
	return res, nil
}

func run(ctx context.Context, ds *dataset.Dataset, cfg Config, log zerolog.Logger) (*Result, error) {
	m, err := ds.Matrix(cfg.Schema)
	if err != nil {
		return nil, err
	}

	profiles, err := profiling.NewDataProfiler().ProfileMatrix(m, cfg.Schema.TargetColumn)
	if err != nil {
		return nil, err
	}

	train, test, err := Split(len(m.Y), cfg.TestRatio, cfg.Seed)
	if err != nil {
		return nil, err
	}

	scaler := NewScaler()
	xTrain, err := scaler.FitTransform(takeRows(m.X, train))
	if err != nil {
		return nil, fmt.Errorf("scale training rows: %w", err)
	}
	xTest, err := scaler.Transform(takeRows(m.X, test))
	if err != nil {
		return nil, fmt.Errorf("scale test rows: %w", err)
	}

	var constant []string
	for _, j := range scaler.Constant() {
		constant = append(constant, m.FeatureNames[j])
	}
	if len(constant) > 0 {
		log.Warn().Strs("features", constant).Msg("zero-variance features in training rows")
	}
	log.Debug().Int("train_rows", len(train)).Int("test_rows", len(test)).Msg("data split and scaled")

	yTrain := takeValues(m.Y, train)
	yTest := takeValues(m.Y, test)

	model := cfg.model()
	if err := model.Fit(ctx, xTrain, yTrain); err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}
	predicted, err := model.Predict(xTest)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	mse, err := MSE(yTest, predicted)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(mse) || math.IsInf(mse, 0) {
		return nil, errors.New("model produced a non-finite error")
	}

	// the reference line spans the full target column, not just the test rows
	target := profiles[len(profiles)-1].Summary

	importances := model.FeatureImportances()
	if len(importances) != len(m.FeatureNames) {
		return nil, fmt.Errorf("model returned %d importances for %d features", len(importances), len(m.FeatureNames))
	}
	all := make([]FeatureImportance, len(m.FeatureNames))
	for j, name := range m.FeatureNames {
		all[j] = FeatureImportance{Name: name, Importance: importances[j], Percent: importances[j] * 100}
	}
	return &Result{
		Features:         m.FeatureNames,
		TrainRows:        len(train),
		TestRows:         len(test),
		ConstantFeatures: constant,
		TestActual:       yTest,
		TestPredicted:    predicted,
		MSE:              mse,
		Importances:      all,
		TopFeatures:      TopImportances(m.FeatureNames, importances, cfg.TopK),
		TargetMin:        target.Min,
		TargetMax:        target.Max,
		Profiles:         profiles,
	}, nil
}
