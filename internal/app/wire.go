// Package app builds the pipeline from configuration. It is shared by the server
// and the one-shot capture command.
package app

import (
	"context"
	"fmt"

	"github.com/kdimtricp/emotioncam/internal/ai"
	"github.com/kdimtricp/emotioncam/internal/capture"
	"github.com/kdimtricp/emotioncam/internal/config"
	"github.com/kdimtricp/emotioncam/internal/geo"
	"github.com/kdimtricp/emotioncam/internal/messaging"
	"github.com/kdimtricp/emotioncam/internal/metrics"
	"github.com/kdimtricp/emotioncam/internal/pipeline"
	"github.com/kdimtricp/emotioncam/internal/publish"
	"github.com/kdimtricp/emotioncam/internal/storage"
	"github.com/sirupsen/logrus"
)

type Components struct {
	Engine  *pipeline.Engine
	Metrics *metrics.Metrics
	Client  messaging.DeviceClient
}

func (c *Components) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

// Build wires every pipeline stage from cfg. sourceImage overrides the camera with a
// fixed image when set.
func Build(ctx context.Context, cfg *config.Config, sourceImage string, log *logrus.Logger) (*Components, error) {
	photos, err := storage.NewLocalStorage(cfg.PhotoDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize photo storage: %w", err)
	}
	events, err := storage.NewLocalStorage(cfg.EventDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event storage: %w", err)
	}

	analyzer, err := ai.NewAnalysisService(&ai.Config{
		FaceEndpoint:    cfg.FaceEndpoint,
		FaceKey:         cfg.FaceKey,
		EmotionEndpoint: cfg.EmotionEndpoint,
		EmotionKey:      cfg.EmotionKey,
	}, log)
	if err != nil {
		return nil, err
	}

	tracker := newTracker(ctx, cfg, log)

	blob, err := NewBlobStore(cfg)
	if err != nil {
		return nil, err
	}
	var archiver pipeline.Archiver
	if blob != nil {
		archiver = storage.NewPhotoArchiver(blob, photos, cfg.DeviceID, log)
	}

	client, err := NewDeviceClient(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("device messaging unavailable, events will not be sent")
		client = messaging.NopClient{}
	}

	m := metrics.New()
	camera, initErr := newCamera(cfg, sourceImage, photos, log)

	engine := pipeline.NewEngine(pipeline.Deps{
		Camera:    camera,
		Analyzer:  analyzer,
		Archiver:  archiver,
		Publisher: publish.NewPublisher(publish.NewBuilder(cfg.DeviceID), tracker, events, client, log),
		Tracker:   tracker,
		Metrics:   m,
		Log:       log,
	}, pipeline.Settings{
		RemoteLogging: cfg.RemoteLogging,
		LocalLogging:  cfg.LocalLogging,
	})

	if initErr != nil {
		engine.SetStatus(capture.InitError(initErr))
	} else {
		engine.SetStatus("Camera initialized...Waiting for input!")
	}

	return &Components{Engine: engine, Metrics: m, Client: client}, nil
}

func newCamera(cfg *config.Config, sourceImage string, photos *storage.LocalStorage, log *logrus.Logger) (capture.Camera, error) {
	if sourceImage == "" {
		sourceImage = cfg.CameraSourceFile
	}

	var (
		cam capture.Camera
		err error
	)
	if sourceImage != "" {
		cam, err = capture.NewFileCamera(sourceImage, photos)
	} else {
		cam, err = capture.NewFFmpegCamera(cfg.CameraDevice, cfg.CameraInputFormat, photos, log)
	}
	if err != nil {
		log.WithError(err).Error("Unable to initialize camera")
		return capture.UnavailableCamera{Cause: err}, err
	}
	return cam, nil
}

func newTracker(ctx context.Context, cfg *config.Config, log *logrus.Logger) *geo.Tracker {
	initial := geo.Position{Longitude: cfg.Longitude, Latitude: cfg.Latitude}

	var locator geo.Locator = geo.StaticLocator{Position: initial}
	if cfg.GeoLookupURL != "" {
		locator = geo.NewHTTPLocator(cfg.GeoLookupURL, cfg.GeoAccuracyMeter)
	}

	tracker := geo.NewTracker(locator, initial)
	if pos, err := tracker.Refresh(ctx); err != nil {
		log.WithError(err).Warn("initial geolocation failed, using configured position")
	} else {
		log.WithFields(logrus.Fields{"longitude": pos.Longitude, "latitude": pos.Latitude}).Info("device located")
	}
	return tracker
}

// NewBlobStore returns nil when no provider is configured.
func NewBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.BlobProvider {
	case config.BlobProviderMinIO:
		return storage.NewMinIOBlobStore(cfg.BlobEndpoint, cfg.BlobAccessKey, cfg.BlobSecretKey, cfg.BlobUseTLS, cfg.BlobContainer)
	case config.BlobProviderS3:
		return storage.NewS3BlobStore(cfg.BlobRegion, cfg.BlobAccessKey, cfg.BlobSecretKey, cfg.BlobContainer)
	default:
		return nil, nil
	}
}

func NewDeviceClient(ctx context.Context, cfg *config.Config, log *logrus.Logger) (messaging.DeviceClient, error) {
	switch cfg.MessagingTransport {
	case config.TransportKafka:
		return messaging.NewKafkaDeviceClient(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.DeviceID, log), nil
	default:
		if cfg.MQTTBrokerURL == "" {
			return nil, fmt.Errorf("no MQTT broker configured, set IOT_HUB_HOST or MQTT_BROKER_URL")
		}
		return messaging.NewMQTTDeviceClient(ctx, messaging.MQTTOptions{
			BrokerURL: cfg.MQTTBrokerURL,
			Host:      cfg.IoTHubHost,
			DeviceID:  cfg.DeviceID,
			DeviceKey: cfg.DeviceKey,
		}, log)
	}
}
