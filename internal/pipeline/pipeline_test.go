package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"renovate/internal/boost"
	"renovate/internal/config"
	"renovate/internal/dataset"
	"renovate/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	noiseB   = []int{7, 2, 9, 4, 1, 8, 3, 6, 0, 5}
	shuffleA = []int{3, 8, 1, 6, 9, 0, 5, 2, 7, 4}
)

// buildingCSV writes ten rows where target = 3*feature_a + 5.
func buildingCSV(featureA func(i int) int) string {
	var b strings.Builder
	b.WriteString("id,feature_a,feature_b,building_renovation_percent\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "%d,%d,%d,%d\n", i+1, featureA(i), noiseB[i], 3*i+5)
	}
	return b.String()
}

func load(t *testing.T, src string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load("buildings.csv", strings.NewReader(src))
	require.NoError(t, err)
	return ds
}

type countingModel struct {
	ports.RegressorPort
	fits int
}

func (m *countingModel) Fit(ctx context.Context, X [][]float64, y []float64) error {
	m.fits++
	return m.RegressorPort.Fit(ctx, X, y)
}

func TestRunTenRows(t *testing.T) {
	ds := load(t, buildingCSV(func(i int) int { return i }))

	res, err := Run(context.Background(), ds, DefaultConfig())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 8, res.TrainRows)
	assert.Equal(t, 2, res.TestRows)
	assert.Len(t, res.TestActual, 2)
	assert.Len(t, res.TestPredicted, 2)
	assert.False(t, math.IsNaN(res.MSE))
	assert.GreaterOrEqual(t, res.MSE, 0.0)
	assert.Equal(t, []string{"feature_a", "feature_b"}, res.Features)
	assert.Equal(t, 5.0, res.TargetMin)
	assert.Equal(t, 32.0, res.TargetMax)
	assert.Equal(t, FormatMSE(res.MSE), res.FormattedMSE())

	require.Len(t, res.TopFeatures, 2)
	assert.Equal(t, "feature_a", res.TopFeatures[0].Name)
	assert.GreaterOrEqual(t, res.TopFeatures[0].Importance, res.TopFeatures[1].Importance)

	require.Len(t, res.Profiles, 3)
	assert.Equal(t, "building_renovation_percent", res.Profiles[2].Name)
	assert.True(t, res.Profiles[2].IsTarget)
	assert.Equal(t, 10, res.Profiles[0].Summary.Count)

	require.Len(t, res.Importances, 2)
	assert.Equal(t, "feature_a", res.Importances[0].Name)
	assert.InDelta(t, 1.0, res.Importances[0].Importance+res.Importances[1].Importance, 1e-9)
}

func TestRunIsDeterministic(t *testing.T) {
	src := buildingCSV(func(i int) int { return i })

	first, err := Run(context.Background(), load(t, src), DefaultConfig())
	require.NoError(t, err)
	second, err := Run(context.Background(), load(t, src), DefaultConfig())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.MSE, second.MSE)
	assert.Equal(t, first.TestActual, second.TestActual)
	assert.Equal(t, first.TestPredicted, second.TestPredicted)
	assert.Equal(t, first.TopFeatures, second.TopFeatures)
}

func TestSignalBeatsNoise(t *testing.T) {
	signal := load(t, buildingCSV(func(i int) int { return i }))
	noise := load(t, buildingCSV(func(i int) int { return shuffleA[i] }))

	var signalMSE, noiseMSE float64
	for seed := int64(1); seed <= 20; seed++ {
		cfg := DefaultConfig()
		cfg.Seed = seed

		res, err := Run(context.Background(), signal, cfg)
		require.NoError(t, err)
		signalMSE += res.MSE

		res, err = Run(context.Background(), noise, cfg)
		require.NoError(t, err)
		noiseMSE += res.MSE
	}
	assert.Less(t, signalMSE, noiseMSE)
}

func TestRunRejectsSchemaBeforeFitting(t *testing.T) {
	ds := load(t, "id,feature_a\n1,2\n2,3\n3,4\n")

	model := &countingModel{RegressorPort: boost.NewRegressor(boost.DefaultConfig())}
	cfg := DefaultConfig()
	cfg.NewModel = func(boost.Config) ports.RegressorPort { return model }

	_, err := Run(context.Background(), ds, cfg)
	var schemaErr *dataset.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"building_renovation_percent"}, schemaErr.Missing)
	assert.Equal(t, 0, model.fits)
}

func TestRunUsesInjectedModel(t *testing.T) {
	ds := load(t, buildingCSV(func(i int) int { return i }))

	model := &countingModel{RegressorPort: boost.NewRegressor(boost.DefaultConfig())}
	cfg := DefaultConfig()
	cfg.NewModel = func(boost.Config) ports.RegressorPort { return model }

	_, err := Run(context.Background(), ds, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, model.fits)
}

func TestRunInsufficientData(t *testing.T) {
	ds := load(t, "id,feature_a,building_renovation_percent\n1,2,3\n")

	_, err := Run(context.Background(), ds, DefaultConfig())
	assert.ErrorIs(t, err, dataset.ErrInsufficientData)
	assert.True(t, dataset.IsUserError(err))
}

func TestRunReportsConstantFeatures(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,feature_a,storeys,building_renovation_percent\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "%d,%d,2,%d\n", i, i, 2*i)
	}

	res, err := Run(context.Background(), load(t, b.String()), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"storeys"}, res.ConstantFeatures)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, load(t, buildingCSV(func(i int) int { return i })), DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, dataset.IsUserError(err))
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		Data: config.DataConfig{IDColumn: "building", TargetColumn: "score"},
		Model: config.ModelConfig{
			Seed: 7, Rounds: 10, LearningRate: 0.1, MaxDepth: 3, TestRatio: 0.25, TopFeatures: 5,
		},
	}

	cfg := FromAppConfig(app)
	assert.Equal(t, dataset.Schema{IDColumn: "building", TargetColumn: "score"}, cfg.Schema)
	assert.Equal(t, 0.25, cfg.TestRatio)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 10, cfg.Model.Rounds)
	assert.Equal(t, 0.1, cfg.Model.LearningRate)
	assert.Equal(t, 3, cfg.Model.MaxDepth)
	assert.Equal(t, 1.0, cfg.Model.Lambda)
}
