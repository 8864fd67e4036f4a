package publish

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kdimtricp/emotioncam/internal/emotion"
	"github.com/kdimtricp/emotioncam/internal/geo"
)

// Envelope is the event sent to the device-messaging hub for one capture.
type Envelope struct {
	EventID   uuid.UUID         `json:"eventId"`
	DeviceID  string            `json:"deviceId"`
	Location  geo.Position      `json:"location"`
	Timestamp time.Time         `json:"timestamp"`
	ImageURI  string            `json:"imageUri"`
	Faces     []emotion.EmoFace `json:"faces"`
}

type Builder struct {
	DeviceID string
	Now      func() time.Time
	NewID    func() uuid.UUID
}

func NewBuilder(deviceID string) *Builder {
	return &Builder{
		DeviceID: deviceID,
		Now:      time.Now,
		NewID:    uuid.New,
	}
}

// Build stamps records with a fresh event id and the current time. Faces is never
// nil so an empty capture still encodes as [].
func (b *Builder) Build(records []emotion.EmoFace, imageURI string, loc geo.Position) Envelope {
	if records == nil {
		records = []emotion.EmoFace{}
	}
	return Envelope{
		EventID:   b.NewID(),
		DeviceID:  b.DeviceID,
		Location:  loc,
		Timestamp: b.Now(),
		ImageURI:  imageURI,
		Faces:     records,
	}
}

func Encode(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return data, nil
}

func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode event: %w", err)
	}
	return env, nil
}
