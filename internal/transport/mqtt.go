// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package transport carries fixes and logging control signals over MQTT.
package transport

import (
	"bytes"
	"encoding/json"
	"strconv"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/gps_publisher/internal/gps"
)

// Client wraps a connected paho client.
type Client struct {
	c      mqtt.Client
	logger *zap.SugaredLogger
}

// Connect dials broker (e.g. "tcp://localhost:1883").
func Connect(broker, clientID string, logger *zap.SugaredLogger) (*Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "connect to MQTT broker %s", broker)
	}
	logger.Infow("connected to MQTT broker", "broker", broker, "client_id", clientID)
	return NewClient(client, logger), nil
}

// NewClient wraps an already connected client.
func NewClient(c mqtt.Client, logger *zap.SugaredLogger) *Client {
	return &Client{c: c, logger: logger}
}

// Disconnect waits up to 250ms for in-flight work and closes the connection.
func (c *Client) Disconnect() {
	c.c.Disconnect(250)
}

func (c *Client) publish(topic string, retained bool, payload []byte) error {
	token := c.c.Publish(topic, 0, retained, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "publish %s", topic)
	}
	return nil
}

func (c *Client) subscribe(topic string, handler mqtt.MessageHandler) error {
	token := c.c.Subscribe(topic, 0, handler)
	token.Wait()
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "subscribe %s", topic)
	}
	c.logger.Infow("subscribed", "topic", topic)
	return nil
}

// FixPublisher publishes fixes as JSON on a single topic. Fixes are
// retained so late subscribers see the latest one.
type FixPublisher struct {
	client *Client
	topic  string
}

func (c *Client) FixPublisher(topic string) *FixPublisher {
	return &FixPublisher{client: c, topic: topic}
}

// Publish implements gps.Publisher.
func (p *FixPublisher) Publish(fix gps.Fix) error {
	payload, err := json.Marshal(fix)
	if err != nil {
		return errors.Wrap(err, "encode fix")
	}
	return p.client.publish(p.topic, true, payload)
}

// SubscribeFixes calls fn for every fix published on topic. Payloads that
// are not fixes are logged and dropped.
func (c *Client) SubscribeFixes(topic string, fn func(gps.Fix)) error {
	return c.subscribe(topic, func(_ mqtt.Client, msg mqtt.Message) {
		var f gps.Fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			c.logger.Warnw("fix unmarshal error", "topic", msg.Topic(), "error", err)
			return
		}
		fn(f)
	})
}

// SubscribeControl calls fn with every boolean received on topic.
func (c *Client) SubscribeControl(topic string, fn func(bool)) error {
	return c.subscribe(topic, func(_ mqtt.Client, msg mqtt.Message) {
		active, err := ParseControl(msg.Payload())
		if err != nil {
			c.logger.Warnw("invalid logging control payload", "topic", msg.Topic(), "error", err)
			return
		}
		fn(active)
	})
}

// PublishControl sends a logging control signal. Control signals are never
// retained, otherwise every reconnect would append another log line.
func (c *Client) PublishControl(topic string, active bool) error {
	return c.publish(topic, false, []byte(strconv.FormatBool(active)))
}

// ParseControl accepts "true"/"false", "1"/"0" and the std_msgs/Bool JSON
// shape {"data": true}.
func ParseControl(payload []byte) (bool, error) {
	s := string(bytes.TrimSpace(payload))
	if v, err := strconv.ParseBool(s); err == nil {
		return v, nil
	}

	var msg struct {
		Data *bool `json:"data"`
	}
	if err := json.Unmarshal([]byte(s), &msg); err != nil || msg.Data == nil {
		return false, errors.Errorf("not a boolean: %q", s)
	}
	return *msg.Data, nil
}
