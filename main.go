package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"renovate/internal/config"
	"renovate/internal/errors"
	"renovate/internal/logging"
	"renovate/internal/pipeline"
	"renovate/ui"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	envErr := godotenv.Load()

	appConfig, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Str("code", errors.GetCode(err)).Msg("failed to load configuration")
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  appConfig.Logging.Level,
		Format: appConfig.Logging.Format,
	})
	if envErr != nil {
		logging.Debug().Msg("no .env file found, using system environment variables")
	}

	app, err := ui.NewApp(ui.Config{
		Port:           appConfig.Server.Port,
		MaxUploadBytes: appConfig.MaxUploadBytes(),
		PreviewRows:    5,
		Pipeline:       pipeline.FromAppConfig(appConfig),
	})
	if err != nil {
		logging.Error().Err(err).Msg("failed to create UI app")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		logging.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
