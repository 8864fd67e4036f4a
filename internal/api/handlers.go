package api

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/kdimtricp/emotioncam/internal/metrics"
	"github.com/kdimtricp/emotioncam/internal/pipeline"
	"github.com/sirupsen/logrus"
)

// Runner is the part of the pipeline engine the handlers drive.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
	Snapshot() pipeline.Snapshot
	Settings() pipeline.Settings
	UpdateSettings(s pipeline.Settings)
}

type App struct {
	Engine   Runner
	Metrics  *metrics.Metrics
	Log      *logrus.Logger
	Shutdown func()
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head><title>EmotionCam</title></head>
<body>
<h1>EmotionCam</h1>
<p id="status">{{.Status}}</p>
<form method="post" action="/capture"><button type="submit">Capture</button></form>
<p>Remote logging: {{.Settings.RemoteLogging}} &middot; Local logging: {{.Settings.LocalLogging}}</p>
<pre id="results">{{.Results}}</pre>
</body>
</html>
`))

func (app *App) HomeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, app.Engine.Snapshot()); err != nil {
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
		return
	}
}

func (app *App) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, app.Engine.Snapshot())
}

type captureResponse struct {
	*pipeline.Result
	Error string `json:"error,omitempty"`
}

// CaptureHandler runs one cycle to completion even if the client goes away.
func (app *App) CaptureHandler(w http.ResponseWriter, r *http.Request) {
	res, err := app.Engine.Run(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, pipeline.ErrBusy):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case err != nil:
		app.Log.WithError(err).Warn("capture finished with error")
		if res == nil {
			res = &pipeline.Result{}
		}
		writeJSON(w, http.StatusUnprocessableEntity, captureResponse{Result: res, Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, captureResponse{Result: res})
	}
}

type settingsRequest struct {
	RemoteLogging *bool `json:"remoteLogging"`
	LocalLogging  *bool `json:"localLogging"`
}

// SettingsHandler updates the toggles present in the body and leaves the others alone.
func (app *App) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid settings body"})
		return
	}

	s := app.Engine.Settings()
	if req.RemoteLogging != nil {
		s.RemoteLogging = *req.RemoteLogging
	}
	if req.LocalLogging != nil {
		s.LocalLogging = *req.LocalLogging
	}
	app.Engine.UpdateSettings(s)

	writeJSON(w, http.StatusOK, s)
}

func (app *App) ShutdownHandler(w http.ResponseWriter, r *http.Request) {
	if app.Shutdown == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "shutdown is not available"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "shutting down"})
	app.Log.Info("shutdown requested")
	go app.Shutdown()
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
