package messaging

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

const (
	hubAPIVersion  = "2021-04-12"
	eventQoS       = 1
	tokenLifetime  = 24 * time.Hour
	connectTimeout = 30 * time.Second
)

type MQTTOptions struct {
	BrokerURL string
	Host      string
	DeviceID  string
	DeviceKey string
}

// Username is the IoT-hub style MQTT user name for the device.
func (o MQTTOptions) Username() string {
	return fmt.Sprintf("%s/%s/?api-version=%s", o.Host, o.DeviceID, hubAPIVersion)
}

// Topic is where device-to-cloud events are published.
func (o MQTTOptions) Topic() string {
	return fmt.Sprintf("devices/%s/messages/events/", o.DeviceID)
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTDeviceClient publishes events to an IoT hub over MQTT.
type MQTTDeviceClient struct {
	client mqtt.Client
	pub    publisher
	topic  string
	log    *logrus.Logger
}

func NewMQTTDeviceClient(ctx context.Context, o MQTTOptions, log *logrus.Logger) (*MQTTDeviceClient, error) {
	opts, err := clientOptions(o, log)
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client := mqtt.NewClient(opts)
	if err := waitToken(connectCtx, client.Connect()); err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("failed to connect to %s: %w", o.BrokerURL, err)
	}

	log.WithFields(logrus.Fields{"broker": o.BrokerURL, "deviceId": o.DeviceID}).Info("IoT Hub connection is up.")

	return &MQTTDeviceClient{
		client: client,
		pub:    client,
		topic:  o.Topic(),
		log:    log,
	}, nil
}

// clientOptions reconnects on its own after a broker drop. The SAS password is
// signed again on every (re)connect so it never outlives tokenLifetime.
func clientOptions(o MQTTOptions, log *logrus.Logger) (*mqtt.ClientOptions, error) {
	if o.DeviceKey != "" {
		if _, err := SASToken(o.Host, o.DeviceID, o.DeviceKey, time.Now()); err != nil {
			return nil, err
		}
	}

	opts := mqtt.NewClientOptions().
		AddBroker(o.BrokerURL).
		SetClientID(o.DeviceID).
		SetCleanSession(false).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetProtocolVersion(4)

	opts.SetCredentialsProvider(func() (string, string) {
		return o.credentials(time.Now())
	})

	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		log.WithError(err).Warn("mqtt connection lost, reconnecting")
	}
	opts.OnReconnecting = func(c mqtt.Client, co *mqtt.ClientOptions) {
		log.WithField("broker", o.BrokerURL).Info("mqtt reconnecting")
	}

	return opts, nil
}

// credentials returns the user name and a SAS token valid from now for tokenLifetime.
func (o MQTTOptions) credentials(now time.Time) (string, string) {
	var username, password string
	if o.Host != "" {
		username = o.Username()
	}
	if o.DeviceKey != "" {
		password, _ = SASToken(o.Host, o.DeviceID, o.DeviceKey, now.Add(tokenLifetime))
	}
	return username, password
}

func (c *MQTTDeviceClient) SendEvent(ctx context.Context, payload []byte) error {
	if c.client != nil && !c.client.IsConnected() {
		return ErrNotConnected
	}

	if err := waitToken(ctx, c.pub.Publish(c.topic, eventQoS, false, payload)); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", c.topic, err)
	}

	c.log.WithFields(logrus.Fields{"topic": c.topic, "bytes": len(payload)}).Debug("event published")
	return nil
}

func (c *MQTTDeviceClient) Close() error {
	if c.client != nil {
		c.client.Disconnect(250)
	}
	return nil
}

func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
