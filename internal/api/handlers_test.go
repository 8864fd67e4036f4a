package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kdimtricp/emotioncam/internal/ai"
	"github.com/kdimtricp/emotioncam/internal/capture"
	"github.com/kdimtricp/emotioncam/internal/emotion"
	"github.com/kdimtricp/emotioncam/internal/metrics"
	"github.com/kdimtricp/emotioncam/internal/pipeline"
	"github.com/kdimtricp/emotioncam/internal/storage"
	"github.com/sirupsen/logrus"
)

type mockRunner struct {
	mu       sync.Mutex
	result   *pipeline.Result
	err      error
	settings pipeline.Settings
	snapshot pipeline.Snapshot
	runs     int
}

func (m *mockRunner) Run(ctx context.Context) (*pipeline.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	return m.result, m.err
}

func (m *mockRunner) Snapshot() pipeline.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.snapshot
	s.Settings = m.settings
	return s
}

func (m *mockRunner) Settings() pipeline.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

func (m *mockRunner) UpdateSettings(s pipeline.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
}

func newTestApp(runner *mockRunner) *App {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &App{Engine: runner, Metrics: metrics.New(), Log: l}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	rec := do(t, NewRouter(newTestApp(&mockRunner{})), http.MethodGet, "/ping", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestCaptureHandler(t *testing.T) {
	tests := []struct {
		name       string
		result     *pipeline.Result
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "success",
			result:     &pipeline.Result{Report: emotion.NoEmotionDetected, Status: "EmotionServiceClient.RecognizeAsync() succeeded!"},
			wantStatus: http.StatusOK,
			wantBody:   `"report":"No emotion is detected.`,
		},
		{
			name:       "busy",
			err:        pipeline.ErrBusy,
			wantStatus: http.StatusConflict,
			wantBody:   `"error":"a capture is already running"`,
		},
		{
			name:       "capture failed",
			result:     &pipeline.Result{Status: "Error taking picture: device busy"},
			err:        errors.New("device busy"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `"status":"Error taking picture: device busy"`,
		},
		{
			name:       "error without result",
			err:        errors.New("boom"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `"error":"boom"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{result: tt.result, err: tt.err}
			rec := do(t, NewRouter(newTestApp(runner)), http.MethodPost, "/capture", "")

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %s does not contain %s", rec.Body.String(), tt.wantBody)
			}
			if runner.runs != 1 {
				t.Errorf("runs = %d", runner.runs)
			}
		})
	}
}

func TestSettingsHandler(t *testing.T) {
	runner := &mockRunner{settings: pipeline.Settings{RemoteLogging: true, LocalLogging: false}}
	router := NewRouter(newTestApp(runner))

	rec := do(t, router, http.MethodPut, "/settings", `{"localLogging":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := runner.Settings(); !got.RemoteLogging || !got.LocalLogging {
		t.Errorf("settings = %+v", got)
	}

	rec = do(t, router, http.MethodPut, "/settings", `{"remoteLogging":false}`)
	var got pipeline.Settings
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.RemoteLogging || !got.LocalLogging {
		t.Errorf("response settings = %+v", got)
	}

	rec = do(t, router, http.MethodPut, "/settings", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d for invalid body", rec.Code)
	}
}

func TestStatusAndHome(t *testing.T) {
	runner := &mockRunner{
		snapshot: pipeline.Snapshot{Status: "Took Photo: EmotionPic.jpg", Results: "Face: 0\n"},
		settings: pipeline.Settings{RemoteLogging: true},
	}
	router := NewRouter(newTestApp(runner))

	rec := do(t, router, http.MethodGet, "/status", "")
	var snap pipeline.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if snap.Status != "Took Photo: EmotionPic.jpg" || !snap.Settings.RemoteLogging {
		t.Errorf("snapshot = %+v", snap)
	}

	rec = do(t, router, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Took Photo: EmotionPic.jpg") {
		t.Errorf("home page: %d %s", rec.Code, rec.Body.String())
	}
}

func TestShutdownHandler(t *testing.T) {
	called := make(chan struct{})
	app := newTestApp(&mockRunner{})
	app.Shutdown = func() { close(called) }

	rec := do(t, NewRouter(app), http.MethodPost, "/shutdown", "")
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d", rec.Code)
	}

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Error("shutdown was not triggered")
	}

	app.Shutdown = nil
	if rec := do(t, NewRouter(app), http.MethodPost, "/shutdown", ""); rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d without shutdown func", rec.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	app := newTestApp(&mockRunner{})
	app.Metrics.Captures.Inc()

	rec := do(t, NewRouter(app), http.MethodGet, "/metrics", "")
	if !strings.Contains(rec.Body.String(), "emotioncam_captures_total 1") {
		t.Errorf("metrics output missing counter:\n%s", rec.Body.String())
	}
}

type emptyAnalyzer struct{}

func (emptyAnalyzer) Analyze(ctx context.Context, imageData []byte) *ai.Analysis {
	return &ai.Analysis{}
}

func TestCaptureHandlerIgnoresClientCancel(t *testing.T) {
	src := filepath.Join(t.TempDir(), "face.jpg")
	if err := os.WriteFile(src, []byte("jpeg"), 0644); err != nil {
		t.Fatal(err)
	}
	photos, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	camera, err := capture.NewFileCamera(src, photos)
	if err != nil {
		t.Fatal(err)
	}

	app := newTestApp(&mockRunner{})
	app.Engine = pipeline.NewEngine(pipeline.Deps{
		Camera:   camera,
		Analyzer: emptyAnalyzer{},
		Metrics:  app.Metrics,
		Log:      app.Log,
	}, pipeline.Settings{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/capture", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	NewRouter(app).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"report":"No emotion is detected.`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
