package ui

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// setupMiddleware configures HTTP middleware and static assets
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		a.log.Error().Err(err).Msg("static assets unavailable")
		return
	}
	a.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
}
