// Package pipeline runs one capture, analysis, report and publish cycle at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kdimtricp/emotioncam/internal/ai"
	"github.com/kdimtricp/emotioncam/internal/capture"
	"github.com/kdimtricp/emotioncam/internal/emotion"
	"github.com/kdimtricp/emotioncam/internal/geo"
	"github.com/kdimtricp/emotioncam/internal/metrics"
	"github.com/kdimtricp/emotioncam/internal/publish"
	"github.com/sirupsen/logrus"
)

// ErrBusy is returned by Run while another run is in progress.
var ErrBusy = errors.New("a capture is already running")

// overlapWarning is the IoU below which a positional pair is logged as suspicious.
const overlapWarning = 0.3

type Analyzer interface {
	Analyze(ctx context.Context, imageData []byte) *ai.Analysis
}

type Archiver interface {
	Archive(ctx context.Context, photoPath string, deleteLocal bool) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, records []emotion.EmoFace, imageURI string, localLogging bool) (*publish.Result, error)
}

type Settings struct {
	RemoteLogging bool `json:"remoteLogging"`
	LocalLogging  bool `json:"localLogging"`
}

// Snapshot is what the user surface shows: the status line, the results text,
// the toggles and the last known position.
type Snapshot struct {
	Status   string       `json:"status"`
	Results  string       `json:"results"`
	Settings Settings     `json:"settings"`
	Location geo.Position `json:"location"`
	Located  bool         `json:"located"`
	Running  bool         `json:"running"`
	LastRun  time.Time    `json:"lastRun,omitempty"`
}

type Result struct {
	PhotoPath string            `json:"photoPath"`
	Records   []emotion.EmoFace `json:"records"`
	Report    string            `json:"report"`
	ImageURI  string            `json:"imageUri,omitempty"`
	EventID   string            `json:"eventId,omitempty"`
	Status    string            `json:"status"`
}

type Deps struct {
	Camera    capture.Camera
	Analyzer  Analyzer
	Archiver  Archiver
	Publisher EventPublisher
	Tracker   *geo.Tracker
	Metrics   *metrics.Metrics
	Log       *logrus.Logger
}

type Engine struct {
	camera    capture.Camera
	analyzer  Analyzer
	archiver  Archiver
	publisher EventPublisher
	tracker   *geo.Tracker
	metrics   *metrics.Metrics
	log       *logrus.Logger

	runMu sync.Mutex

	mu       sync.RWMutex
	settings Settings
	status   string
	results  string
	running  bool
	lastRun  time.Time
}

func NewEngine(deps Deps, settings Settings) *Engine {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if deps.Tracker == nil {
		deps.Tracker = geo.NewTracker(geo.StaticLocator{}, geo.Position{})
	}
	return &Engine{
		camera:    deps.Camera,
		analyzer:  deps.Analyzer,
		archiver:  deps.Archiver,
		publisher: deps.Publisher,
		tracker:   deps.Tracker,
		metrics:   deps.Metrics,
		log:       deps.Log,
		settings:  settings,
	}
}

func (e *Engine) Settings() Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

func (e *Engine) UpdateSettings(s Settings) {
	e.mu.Lock()
	e.settings = s
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{"remoteLogging": s.RemoteLogging, "localLogging": s.LocalLogging}).Info("settings updated")
}

// SetStatus replaces the status line, e.g. with a camera initialization error.
func (e *Engine) SetStatus(status string) {
	e.mu.Lock()
	e.status = status
	e.mu.Unlock()
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		Status:   e.status,
		Results:  e.results,
		Settings: e.settings,
		Location: e.tracker.Last(),
		Located:  e.tracker.Located(),
		Running:  e.running,
		LastRun:  e.lastRun,
	}
}

// Run takes a photo, analyzes it with both services and renders the report. With
// remote logging on, the photo is archived and an event published. Only a capture
// failure or a misaligned merge is returned as an error; every other failure ends
// up in the status line.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if !e.runMu.TryLock() {
		return nil, ErrBusy
	}
	defer e.runMu.Unlock()

	start := time.Now()
	settings := e.begin()
	defer e.finish(start)

	photoPath, err := e.camera.Capture(ctx)
	if err != nil {
		e.metrics.CaptureFailures.Inc()
		return e.fail(fmt.Sprintf("Error taking picture: %v", err), err)
	}
	e.metrics.Captures.Inc()
	e.setStatus(fmt.Sprintf("Took Photo: %s", filepath.Base(photoPath)))

	res := &Result{PhotoPath: photoPath}

	imageData, err := os.ReadFile(photoPath)
	if err != nil {
		e.metrics.CaptureFailures.Inc()
		return e.fail(fmt.Sprintf("Error taking picture: %v", err), err)
	}

	e.setStatus("Calling EmotionServiceClient.RecognizeAsync()...")
	analysis := e.analyzer.Analyze(ctx, imageData)
	e.countAnalysis("face", analysis.FaceErr)
	e.countAnalysis("emotion", analysis.EmotionErr)

	switch {
	case analysis.EmotionErr != nil:
		e.setStatus(analysis.EmotionErr.Error())
	case analysis.FaceErr != nil:
		e.setStatus(analysis.FaceErr.Error())
	default:
		e.setStatus("EmotionServiceClient.RecognizeAsync() succeeded!")
	}

	if idx := emotion.Disagreements(analysis.Emotions, analysis.Faces, overlapWarning); len(idx) > 0 {
		e.log.WithField("faces", idx).Warn("face and emotion rectangles do not overlap; pairing by position anyway")
	}

	records, err := emotion.Merge(analysis.Emotions, analysis.Faces)
	if err != nil {
		e.metrics.MergeFailures.Inc()
		res.Status = fmt.Sprintf("Error merging results: %v", err)
		res.Report = emotion.FormatFaces(analysis.Faces) + emotion.FormatEmotions(analysis.Emotions, e.tracker.Last())
		e.setStatus(res.Status)
		e.setResults(res.Report)
		e.log.WithError(err).Error("failed to merge results")
		return res, err
	}
	e.metrics.FacesMerged.Add(float64(len(records)))

	res.Records = records
	res.Report = emotion.FormatReport(records, e.tracker.Last())
	e.setResults(res.Report)

	if settings.RemoteLogging {
		e.publish(ctx, res, settings.LocalLogging)
	}

	res.Status = e.currentStatus()
	return res, nil
}

func (e *Engine) publish(ctx context.Context, res *Result, localLogging bool) {
	if e.archiver != nil {
		uri, err := e.archiver.Archive(ctx, res.PhotoPath, true)
		if err != nil {
			e.metrics.Uploads.WithLabelValues("error").Inc()
			e.log.WithError(err).Error("failed to upload photo")
			e.setStatus(fmt.Sprintf("Error uploading photo: %v", err))
		} else {
			e.metrics.Uploads.WithLabelValues("ok").Inc()
			res.ImageURI = uri
			e.setStatus(fmt.Sprintf("%s uploaded.", uri))
		}
	}

	if e.publisher == nil {
		return
	}

	pub, err := e.publisher.Publish(ctx, res.Records, res.ImageURI, localLogging)
	if pub != nil {
		res.EventID = pub.Envelope.EventID.String()
	}
	if err != nil {
		e.metrics.PublishFailures.Inc()
		e.log.WithError(err).Error("failed to publish event")
		e.setStatus(fmt.Sprintf("Error publishing event: %v", err))
		return
	}

	e.metrics.EventsPublished.Inc()
	e.setStatus(fmt.Sprintf("Event %s sent.", res.EventID))
}

func (e *Engine) begin() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = true
	return e.settings
}

func (e *Engine) finish(start time.Time) {
	e.metrics.PipelineDuration.Observe(time.Since(start).Seconds())

	e.mu.Lock()
	e.running = false
	e.lastRun = start
	e.mu.Unlock()
}

func (e *Engine) fail(status string, err error) (*Result, error) {
	e.setStatus(status)
	e.log.WithError(err).Error(status)
	return &Result{Status: status}, err
}

func (e *Engine) countAnalysis(service string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.metrics.Analyses.WithLabelValues(service, outcome).Inc()
}

func (e *Engine) setStatus(status string) {
	e.mu.Lock()
	e.status = status
	e.mu.Unlock()
	e.log.Debug(status)
}

func (e *Engine) setResults(results string) {
	e.mu.Lock()
	e.results = results
	e.mu.Unlock()
}

func (e *Engine) currentStatus() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}
