package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"renovate/internal/config"
	"renovate/internal/dataset"
	"renovate/internal/logging"
	"renovate/internal/pipeline"
	"renovate/internal/render"
	"renovate/internal/testkit"
	"renovate/ui"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// appConfig is loaded once before any subcommand runs.
var appConfig *config.Config

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "renovate",
		Short:         "Building renovation predictor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			appConfig = cfg
			logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
			return nil
		},
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newTrainCmd(),
		newSampleCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = appConfig.Server.Port
			}

			app, err := ui.NewApp(ui.Config{
				Port:           port,
				MaxUploadBytes: appConfig.MaxUploadBytes(),
				PreviewRows:    5,
				Pipeline:       pipeline.FromAppConfig(appConfig),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := app.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (default from PORT)")

	return cmd
}

type trainOptions struct {
	seed           int64
	rounds         int
	testRatio      float64
	scatterPath    string
	importancePath string
	previewRows    int
}

func newTrainCmd() *cobra.Command {
	opts := trainOptions{}

	cmd := &cobra.Command{
		Use:   "train [csv-file]",
		Short: "Train the model on a dataset and report its error",
		Long: `Train the gradient boosted model on a CSV or XLSX file, print a data preview,
the test-set mean squared error and the most important features.

Example: renovate train buildings.csv --seed 42 --scatter scatter.png --importance top3.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := pipeline.FromAppConfig(appConfig)
			if cmd.Flags().Changed("seed") {
				cfg.Seed = opts.seed
				cfg.Model.Seed = opts.seed
			}
			if cmd.Flags().Changed("rounds") {
				cfg.Model.Rounds = opts.rounds
			}
			if cmd.Flags().Changed("test-ratio") {
				cfg.TestRatio = opts.testRatio
			}
			return runTrain(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.seed, "seed", 42, "Random seed for the split and the model")
	cmd.Flags().IntVar(&opts.rounds, "rounds", 100, "Number of boosting rounds")
	cmd.Flags().Float64Var(&opts.testRatio, "test-ratio", 0.2, "Fraction of rows held out for testing")
	cmd.Flags().StringVar(&opts.scatterPath, "scatter", "", "Write the actual vs predicted scatter plot to this PNG file")
	cmd.Flags().StringVar(&opts.importancePath, "importance", "", "Write the top feature importance chart to this PNG file")
	cmd.Flags().IntVar(&opts.previewRows, "preview", 5, "Number of rows to preview")

	return cmd
}

func runTrain(ctx context.Context, out io.Writer, path string, cfg pipeline.Config, opts trainOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	ds, err := dataset.Load(filepath.Base(path), f)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Data Preview:")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(ds.Columns(), "\t"))
	for _, row := range ds.Preview(opts.previewRows) {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	res, err := pipeline.Run(ctx, ds, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Data has been split and scaled.")
	if len(res.ConstantFeatures) > 0 {
		fmt.Fprintf(out, "Warning: constant features in the training rows: %s\n", strings.Join(res.ConstantFeatures, ", "))
	}
	fmt.Fprintln(out, "Model has been trained successfully!")
	fmt.Fprintf(out, "Model Mean Squared Error: %s\n", res.FormattedMSE())
	fmt.Fprintln(out, "Top features:")
	for i, fi := range res.TopFeatures {
		fmt.Fprintf(out, "  %d. %s %.1f%%\n", i+1, fi.Name, fi.Percent)
	}

	if opts.scatterPath != "" {
		img, err := render.ScatterPNG(res.TestActual, res.TestPredicted, res.TargetMin, res.TargetMax)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.scatterPath, img, 0o644); err != nil {
			return fmt.Errorf("failed to write scatter plot: %w", err)
		}
	}
	if opts.importancePath != "" {
		img, err := render.ImportanceBarPNG(res.TopFeatures, cfg.TopK)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.importancePath, img, 0o644); err != nil {
			return fmt.Errorf("failed to write importance chart: %w", err)
		}
	}
	return nil
}

func newSampleCmd() *cobra.Command {
	genCfg := testkit.DefaultBuildingConfig()
	var output string

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a synthetic building dataset",
		Long: `Generate a synthetic building dataset in the upload format. The renovation share
depends on building age, heating system age, insulation and energy use; floor area is noise.

Example: renovate sample --rows 500 --seed 7 -o buildings.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if genCfg.Rows < 1 {
				return fmt.Errorf("rows must be positive, got %d", genCfg.Rows)
			}
			gen := testkit.NewBuildingDataGenerator(genCfg)
			if output == "" {
				return gen.WriteCSV(cmd.OutOrStdout())
			}
			return writeSample(output, gen)
		},
	}

	cmd.Flags().IntVar(&genCfg.Rows, "rows", genCfg.Rows, "Number of buildings")
	cmd.Flags().Int64Var(&genCfg.Seed, "seed", genCfg.Seed, "Random seed")
	cmd.Flags().Float64Var(&genCfg.NoiseStdDev, "noise", genCfg.NoiseStdDev, "Standard deviation of the label noise")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	return cmd
}

// writeSample writes the generated dataset to path. A failed close is
// reported because it can hide a failed flush.
func writeSample(path string, gen *testkit.BuildingDataGenerator) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := gen.WriteCSV(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
