package messaging

import (
	"context"
	"errors"
)

// DeviceClient sends device-to-cloud event messages.
type DeviceClient interface {
	SendEvent(ctx context.Context, payload []byte) error
	Close() error
}

var ErrNotConnected = errors.New("device client is not connected")

// NopClient drops every event. It is used when no hub is configured.
type NopClient struct{}

func (NopClient) SendEvent(ctx context.Context, payload []byte) error { return nil }

func (NopClient) Close() error { return nil }
