package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", app.HomeHandler)
	r.Get("/ping", PingHandler)
	r.Get("/status", app.StatusHandler)
	r.Post("/capture", app.CaptureHandler)
	r.Put("/settings", app.SettingsHandler)
	r.Post("/shutdown", app.ShutdownHandler)

	if app.Metrics != nil {
		r.Handle("/metrics", app.Metrics.Handler())
	}

	return r
}
