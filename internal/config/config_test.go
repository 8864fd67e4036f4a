package config

import (
	"os"
	"testing"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DEVICE_ID", "")
	t.Setenv("BLOB_PROVIDER", "")
	t.Setenv("MESSAGING_TRANSPORT", "")
	t.Setenv("REMOTE_LOGGING", "")
	t.Setenv("LOCAL_LOGGING", "")
	t.Setenv("GEO_ACCURACY_METERS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DeviceID != "myFirstDevice" {
		t.Errorf("expected default device id, got %q", cfg.DeviceID)
	}
	if cfg.BlobProvider != BlobProviderNone {
		t.Errorf("expected blob provider %q, got %q", BlobProviderNone, cfg.BlobProvider)
	}
	if cfg.BlobContainer != "iot" {
		t.Errorf("expected container iot, got %q", cfg.BlobContainer)
	}
	if !cfg.RemoteLogging {
		t.Error("expected remote logging on by default")
	}
	if cfg.LocalLogging {
		t.Error("expected local logging off by default")
	}
	if cfg.GeoAccuracyMeter != 100 {
		t.Errorf("expected 100m accuracy, got %d", cfg.GeoAccuracyMeter)
	}
}

func TestLoadDerivesMQTTBroker(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("IOT_HUB_HOST", "hub.example.net")
	t.Setenv("MQTT_BROKER_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MQTTBrokerURL != "ssl://hub.example.net:8883" {
		t.Errorf("unexpected broker url %q", cfg.MQTTBrokerURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "minimal",
			cfg:  Config{DeviceID: "dev", BlobProvider: BlobProviderNone, MessagingTransport: TransportMQTT},
		},
		{
			name:    "missing device id",
			cfg:     Config{BlobProvider: BlobProviderNone, MessagingTransport: TransportMQTT},
			wantErr: true,
		},
		{
			name:    "minio without endpoint",
			cfg:     Config{DeviceID: "dev", BlobProvider: BlobProviderMinIO, MessagingTransport: TransportMQTT},
			wantErr: true,
		},
		{
			name:    "unknown blob provider",
			cfg:     Config{DeviceID: "dev", BlobProvider: "ftp", MessagingTransport: TransportMQTT},
			wantErr: true,
		},
		{
			name:    "kafka without brokers",
			cfg:     Config{DeviceID: "dev", BlobProvider: BlobProviderNone, MessagingTransport: TransportKafka},
			wantErr: true,
		},
		{
			name: "kafka with brokers",
			cfg: Config{
				DeviceID:           "dev",
				BlobProvider:       BlobProviderNone,
				MessagingTransport: TransportKafka,
				KafkaBrokers:       []string{"localhost:9092"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a:1, ,b:2 ,")
	if len(got) != 2 || got[0] != "a:1" || got[1] != "b:2" {
		t.Errorf("unexpected split result: %v", got)
	}
}
