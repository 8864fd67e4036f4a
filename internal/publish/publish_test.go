package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kdimtricp/emotioncam/internal/ai"
	"github.com/kdimtricp/emotioncam/internal/emotion"
	"github.com/kdimtricp/emotioncam/internal/geo"
	"github.com/kdimtricp/emotioncam/internal/storage"
	"github.com/sirupsen/logrus"
)

var fixedID = uuid.MustParse("7f1c2e3d-4b5a-4c6d-8e9f-0a1b2c3d4e5f")

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func fixedBuilder() *Builder {
	return &Builder{
		DeviceID: "myFirstDevice",
		Now:      func() time.Time { return time.Date(2016, 3, 9, 14, 5, 7, 0, time.UTC) },
		NewID:    func() uuid.UUID { return fixedID },
	}
}

func sampleRecords() []emotion.EmoFace {
	return []emotion.EmoFace{{
		FaceID:         "c5c24a82-6845-4031-9d5d-978df9175426",
		FaceRectangle:  ai.Rectangle{Left: 68, Top: 97, Width: 118, Height: 118},
		FaceAttributes: &ai.FaceAttributes{Age: 24.4, Gender: "female", Smile: 0.9},
		Scores:         ai.Scores{Happiness: 0.97, Neutral: 0.03},
	}}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env := fixedBuilder().Build(sampleRecords(), "https://blob.example/iot/photos/x.jpg", geo.Position{Longitude: 10.75, Latitude: 59.91})

	data, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	for _, key := range []string{`"eventId":"7f1c2e3d-`, `"deviceId":"myFirstDevice"`, `"imageUri":`, `"location":{"longitude":10.75,"latitude":59.91}`, `"faces":[`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("encoded event missing %s: %s", key, data)
		}
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !reflect.DeepEqual(got, env) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, env)
	}
}

func TestBuildEmptyFaces(t *testing.T) {
	env := fixedBuilder().Build(nil, "", geo.Position{})
	data, _ := Encode(env)
	if !strings.Contains(string(data), `"faces":[]`) {
		t.Errorf("expected empty faces array, got %s", data)
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Error("expected decode error")
	}
}

type mockClient struct {
	err  error
	sent [][]byte
}

func (m *mockClient) SendEvent(ctx context.Context, payload []byte) error {
	m.sent = append(m.sent, payload)
	return m.err
}

func (m *mockClient) Close() error { return nil }

type failingLocator struct{}

func (failingLocator) Locate(ctx context.Context) (geo.Position, error) {
	return geo.Position{}, errors.New("gps off")
}

func TestPublisherPublish(t *testing.T) {
	tests := []struct {
		name         string
		localLogging bool
		sendErr      error
		wantSendErr  bool
		wantFile     bool
	}{
		{name: "send only", localLogging: false},
		{name: "send and write", localLogging: true, wantFile: true},
		{name: "send fails after write", localLogging: true, sendErr: errors.New("hub down"), wantSendErr: true, wantFile: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			events, err := storage.NewLocalStorage(dir)
			if err != nil {
				t.Fatal(err)
			}

			client := &mockClient{err: tt.sendErr}
			tracker := geo.NewTracker(geo.StaticLocator{Position: geo.Position{Longitude: 1, Latitude: 2}}, geo.Position{})
			p := NewPublisher(fixedBuilder(), tracker, events, client, quietLogger())

			res, err := p.Publish(context.Background(), sampleRecords(), "uri", tt.localLogging)
			if tt.wantSendErr {
				if !errors.Is(err, ErrSend) {
					t.Fatalf("expected ErrSend, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("Publish() error = %v", err)
			}

			if len(client.sent) != 1 {
				t.Fatalf("expected one send, got %d", len(client.sent))
			}
			if res.Sent == tt.wantSendErr {
				t.Errorf("Sent = %v", res.Sent)
			}
			if res.Envelope.Location != (geo.Position{Longitude: 1, Latitude: 2}) {
				t.Errorf("location not refreshed: %+v", res.Envelope.Location)
			}

			path := filepath.Join(dir, fixedID.String()+".json")
			data, statErr := os.ReadFile(path)
			if (statErr == nil) != tt.wantFile {
				t.Fatalf("event file exists = %v, want %v", statErr == nil, tt.wantFile)
			}
			if tt.wantFile && string(data) != string(client.sent[0]) {
				t.Errorf("local copy differs from sent payload")
			}
		})
	}
}

func TestPublisherKeepsLastLocation(t *testing.T) {
	events, _ := storage.NewLocalStorage(t.TempDir())
	last := geo.Position{Longitude: 5, Latitude: 6}
	tracker := geo.NewTracker(failingLocator{}, last)
	p := NewPublisher(fixedBuilder(), tracker, events, &mockClient{}, quietLogger())

	res, err := p.Publish(context.Background(), nil, "", false)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if res.Envelope.Location != last {
		t.Errorf("expected last known position, got %+v", res.Envelope.Location)
	}
}

func TestPublisherExistingEventFile(t *testing.T) {
	dir := t.TempDir()
	events, _ := storage.NewLocalStorage(dir)
	if err := os.WriteFile(filepath.Join(dir, fixedID.String()+".json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	client := &mockClient{}
	tracker := geo.NewTracker(geo.StaticLocator{}, geo.Position{})
	p := NewPublisher(fixedBuilder(), tracker, events, client, quietLogger())

	if _, err := p.Publish(context.Background(), nil, "", true); err == nil {
		t.Error("expected error when event file already exists")
	}
	if len(client.sent) != 0 {
		t.Error("event should not be sent when the local write fails")
	}
}
