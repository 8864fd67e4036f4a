package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/kdimtricp/emotioncam/internal/emotion"
	"github.com/kdimtricp/emotioncam/internal/geo"
	"github.com/kdimtricp/emotioncam/internal/messaging"
	"github.com/sirupsen/logrus"
)

// ErrSend marks a failure to hand the event to the device-messaging hub.
var ErrSend = errors.New("failed to send event")

// EventWriter stores the local copy of an event.
type EventWriter interface {
	WriteNewFile(name string, data []byte) (string, error)
}

type Publisher struct {
	builder *Builder
	tracker *geo.Tracker
	events  EventWriter
	client  messaging.DeviceClient
	log     *logrus.Logger
}

func NewPublisher(builder *Builder, tracker *geo.Tracker, events EventWriter, client messaging.DeviceClient, log *logrus.Logger) *Publisher {
	return &Publisher{
		builder: builder,
		tracker: tracker,
		events:  events,
		client:  client,
		log:     log,
	}
}

// Result describes what Publish managed to do before it returned.
type Result struct {
	Envelope  Envelope
	LocalPath string
	Sent      bool
}

// Publish builds the event for records, writes <eventId>.json when localLogging is
// set, and sends it. A send failure is returned wrapped in ErrSend after the local
// copy has already been written.
func (p *Publisher) Publish(ctx context.Context, records []emotion.EmoFace, imageURI string, localLogging bool) (*Result, error) {
	loc, err := p.tracker.Refresh(ctx)
	if err != nil {
		p.log.WithError(err).Warn("failed to refresh location, using last known position")
	}

	env := p.builder.Build(records, imageURI, loc)
	data, err := Encode(env)
	if err != nil {
		return nil, err
	}

	res := &Result{Envelope: env}
	fields := logrus.Fields{"eventId": env.EventID, "faces": len(env.Faces)}

	if localLogging {
		path, err := p.events.WriteNewFile(env.EventID.String()+".json", data)
		if err != nil {
			return res, fmt.Errorf("failed to write event file: %w", err)
		}
		res.LocalPath = path
		p.log.WithFields(fields).WithField("path", path).Info("event written locally")
	}

	if err := p.client.SendEvent(ctx, data); err != nil {
		return res, fmt.Errorf("%w: %v", ErrSend, err)
	}
	res.Sent = true

	p.log.WithFields(fields).Info("event sent")
	return res, nil
}
