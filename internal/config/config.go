package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BlobProviderNone  = "none"
	BlobProviderMinIO = "minio"
	BlobProviderS3    = "s3"

	TransportMQTT  = "mqtt"
	TransportKafka = "kafka"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string
	LogDir   string

	DeviceID string

	FaceEndpoint    string
	FaceKey         string
	EmotionEndpoint string
	EmotionKey      string

	CameraDevice      string
	CameraInputFormat string
	CameraSourceFile  string
	PhotoDir          string
	EventDir          string

	BlobProvider  string
	BlobEndpoint  string
	BlobAccessKey string
	BlobSecretKey string
	BlobUseTLS    bool
	BlobRegion    string
	BlobContainer string

	MessagingTransport string
	IoTHubHost         string
	DeviceKey          string
	MQTTBrokerURL      string
	KafkaBrokers       []string
	KafkaTopic         string

	Longitude        float64
	Latitude         float64
	GeoLookupURL     string
	GeoAccuracyMeter int

	RemoteLogging bool
	LocalLogging  bool
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Port:     getenv("PORT", "8080"),
		AppEnv:   getenv("APP_ENV", "development"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		LogDir:   getenv("LOG_DIR", "./storage/logs"),

		DeviceID: getenv("DEVICE_ID", "myFirstDevice"),

		FaceEndpoint:    getenv("FACE_API_ENDPOINT", "https://westus.api.cognitive.microsoft.com"),
		FaceKey:         os.Getenv("FACE_API_KEY"),
		EmotionEndpoint: getenv("EMOTION_API_ENDPOINT", "https://westus.api.cognitive.microsoft.com"),
		EmotionKey:      os.Getenv("EMOTION_API_KEY"),

		CameraDevice:      getenv("CAMERA_DEVICE", "/dev/video0"),
		CameraInputFormat: getenv("CAMERA_INPUT_FORMAT", "v4l2"),
		CameraSourceFile:  os.Getenv("CAMERA_SOURCE_FILE"),
		PhotoDir:          getenv("PHOTO_DIR", "./pictures"),
		EventDir:          getenv("EVENT_DIR", "./pictures"),

		BlobProvider:  strings.ToLower(getenv("BLOB_PROVIDER", BlobProviderNone)),
		BlobEndpoint:  os.Getenv("BLOB_ENDPOINT"),
		BlobAccessKey: os.Getenv("BLOB_ACCESS_KEY"),
		BlobSecretKey: os.Getenv("BLOB_SECRET_KEY"),
		BlobUseTLS:    getenvBool("BLOB_USE_TLS", true),
		BlobRegion:    getenv("BLOB_REGION", "us-east-1"),
		BlobContainer: getenv("BLOB_CONTAINER", "iot"),

		MessagingTransport: strings.ToLower(getenv("MESSAGING_TRANSPORT", TransportMQTT)),
		IoTHubHost:         os.Getenv("IOT_HUB_HOST"),
		DeviceKey:          os.Getenv("DEVICE_KEY"),
		MQTTBrokerURL:      os.Getenv("MQTT_BROKER_URL"),
		KafkaBrokers:       splitList(getenv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:         getenv("KAFKA_TOPIC", "emotion-events"),

		Longitude:        getenvFloat("DEVICE_LONGITUDE", 0),
		Latitude:         getenvFloat("DEVICE_LATITUDE", 0),
		GeoLookupURL:     os.Getenv("GEO_LOOKUP_URL"),
		GeoAccuracyMeter: getenvInt("GEO_ACCURACY_METERS", 100),

		RemoteLogging: getenvBool("REMOTE_LOGGING", true),
		LocalLogging:  getenvBool("LOCAL_LOGGING", false),
	}

	if cfg.MQTTBrokerURL == "" && cfg.IoTHubHost != "" {
		cfg.MQTTBrokerURL = fmt.Sprintf("ssl://%s:8883", cfg.IoTHubHost)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DeviceID) == "" {
		return errors.New("DEVICE_ID must not be empty")
	}

	switch c.BlobProvider {
	case BlobProviderNone:
	case BlobProviderMinIO:
		if c.BlobEndpoint == "" {
			return errors.New("BLOB_ENDPOINT is required for the minio blob provider")
		}
	case BlobProviderS3:
		if c.BlobRegion == "" {
			return errors.New("BLOB_REGION is required for the s3 blob provider")
		}
	default:
		return fmt.Errorf("unsupported BLOB_PROVIDER: %s", c.BlobProvider)
	}

	switch c.MessagingTransport {
	case TransportMQTT:
	case TransportKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS must not be empty")
		}
	default:
		return fmt.Errorf("unsupported MESSAGING_TRANSPORT: %s", c.MessagingTransport)
	}

	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
