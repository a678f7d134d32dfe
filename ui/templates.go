package ui

import (
	"bytes"
	"net/http"
)

// renderTemplate executes a template into a buffer first so a failing
// template never leaves a half-written page behind.
func (a *App) renderTemplate(w http.ResponseWriter, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		a.log.Error().Err(err).Str("template", templateName).Msg("template rendering failed")
		http.Error(w, "Template rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		a.log.Warn().Err(err).Str("template", templateName).Msg("failed to write response")
	}
}
