// Package mqttconn builds paho MQTT clients with the reconnect and keepalive
// settings shared by sources and sinks.
package mqttconn

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options identifies a broker connection.
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// NewClientFunc creates a paho client. Tests substitute a fake.
type NewClientFunc func(opts *mqtt.ClientOptions) mqtt.Client

// ClientOptions returns paho options for o. An empty ClientID gets a random
// suffix so two processes never collide on the broker.
func ClientOptions(o Options, logger *zap.SugaredLogger) *mqtt.ClientOptions {
	clientID := o.ClientID
	if clientID == "" {
		clientID = "rfxweather-" + uuid.NewString()[:8]
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(clientID)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Infow("mqtt connected", "broker", o.Broker, "client_id", clientID)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warnw("mqtt connection lost", "broker", o.Broker, "error", err)
	})

	return opts
}

// Connect starts a connection attempt and waits for it, giving up when ctx ends.
func Connect(ctx context.Context, client mqtt.Client) error {
	token := client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			client.Disconnect(0)
			return ctx.Err()
		default:
		}
	}
}

// Wait blocks until token completes or timeout passes and returns its error.
func Wait(token mqtt.Token, timeout time.Duration, what string) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%s: timed out after %s", what, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
