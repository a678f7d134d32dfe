package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"renovate/internal/logging"
	"renovate/internal/metrics"
	"renovate/internal/pipeline"
	"renovate/internal/render"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html static/css/*.css content/*.md
var embeddedFiles embed.FS

// App represents the UI application
type App struct {
	router    *chi.Mux
	cfg       Config
	templates *template.Template
	homeCopy  template.HTML
	log       zerolog.Logger

	importanceChart func([]pipeline.FeatureImportance, int) ([]byte, error)
}

// Config holds UI application configuration
type Config struct {
	Port           string
	MaxUploadBytes int64
	PreviewRows    int
	Pipeline       pipeline.Config
}

// DefaultConfig listens on 8080 with a 50MB upload limit.
func DefaultConfig() Config {
	return Config{
		Port:           "8080",
		MaxUploadBytes: 50 << 20,
		PreviewRows:    5,
		Pipeline:       pipeline.DefaultConfig(),
	}
}

// NewApp creates a new UI application
func NewApp(cfg Config) (*App, error) {
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = 5
	}
	if cfg.Pipeline.TopK <= 0 {
		cfg.Pipeline.TopK = 3
	}

	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"num": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	home, err := embeddedFiles.ReadFile("content/home.md")
	if err != nil {
		return nil, fmt.Errorf("failed to read home page copy: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		cfg:       cfg,
		templates: templates,
		homeCopy:  render.Markdown(string(home)),
		log:       logging.With("ui"),

		importanceChart: render.ImportanceBarPNG,
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Post("/", a.handleUpload)

	a.router.Get("/healthz", a.handleHealth)
	a.router.Method(http.MethodGet, "/metrics", metrics.Handler())
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("starting renovate UI server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
