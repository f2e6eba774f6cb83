// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.viam.com/test"

	"github.com/relabs-tech/gps_publisher/internal/gps"
)

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	retained bool
	payload  string
}

// fakeClient records publishes and keeps subscription handlers so tests can
// deliver messages. Methods not overridden panic through the nil interface.
type fakeClient struct {
	mqtt.Client
	pubErr   error
	sent     []published
	handlers map[string]mqtt.MessageHandler
}

func (f *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	f.sent = append(f.sent, published{topic: topic, retained: retained, payload: string(payload.([]byte))})
	return fakeToken{err: f.pubErr}
}

func (f *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	if f.handlers == nil {
		f.handlers = map[string]mqtt.MessageHandler{}
	}
	f.handlers[topic] = cb
	return fakeToken{}
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

func (f *fakeClient) deliver(topic, payload string) {
	f.handlers[topic](f, fakeMessage{topic: topic, payload: []byte(payload)})
}

func TestFixPublisher_Publish(t *testing.T) {
	fc := &fakeClient{}
	pub := NewClient(fc, zap.NewNop().Sugar()).FixPublisher("gps_data")

	err := pub.Publish(gps.Fix{Latitude: "37.1", Longitude: "-122.4", Altitude: "10.0"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fc.sent, test.ShouldResemble, []published{{
		topic:    "gps_data",
		retained: true,
		payload:  `{"Latitude":"37.1","Longitude":"-122.4","Altitude":"10.0"}`,
	}})
}

func TestFixPublisher_PublishError(t *testing.T) {
	errBroker := errors.New("not connected")
	fc := &fakeClient{pubErr: errBroker}
	pub := NewClient(fc, zap.NewNop().Sugar()).FixPublisher("gps_data")

	err := pub.Publish(gps.Fix{})
	test.That(t, errors.Is(err, errBroker), test.ShouldBeTrue)
}

func TestSubscribeControl(t *testing.T) {
	fc := &fakeClient{}
	c := NewClient(fc, zap.NewNop().Sugar())

	var got []bool
	test.That(t, c.SubscribeControl("gps_logging_control", func(v bool) { got = append(got, v) }), test.ShouldBeNil)

	for _, payload := range []string{"true", "0", "nonsense", `{"data": true}`, `{"other": 1}`} {
		fc.deliver("gps_logging_control", payload)
	}
	test.That(t, got, test.ShouldResemble, []bool{true, false, true})
}

func TestSubscribeFixes(t *testing.T) {
	fc := &fakeClient{}
	c := NewClient(fc, zap.NewNop().Sugar())

	var got []gps.Fix
	test.That(t, c.SubscribeFixes("gps_data", func(f gps.Fix) { got = append(got, f) }), test.ShouldBeNil)

	fc.deliver("gps_data", `{"Latitude":"1","Longitude":"2","Altitude":"3"}`)
	fc.deliver("gps_data", `not json`)
	test.That(t, got, test.ShouldResemble, []gps.Fix{{Latitude: "1", Longitude: "2", Altitude: "3"}})
}

func TestPublishControl_NotRetained(t *testing.T) {
	fc := &fakeClient{}
	c := NewClient(fc, zap.NewNop().Sugar())

	test.That(t, c.PublishControl("gps_logging_control", true), test.ShouldBeNil)
	test.That(t, fc.sent, test.ShouldResemble, []published{{topic: "gps_logging_control", payload: "true"}})
}

func TestParseControl(t *testing.T) {
	for payload, want := range map[string]bool{
		"true":            true,
		" True\n":         true,
		"1":               true,
		"false":           false,
		`{"data": false}`: false,
		`{"data":true}`:   true,
	} {
		got, err := ParseControl([]byte(payload))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldEqual, want)
	}

	for _, payload := range []string{"", "yes", `{"data": "true"}`, `{}`} {
		_, err := ParseControl([]byte(payload))
		test.That(t, err, test.ShouldNotBeNil)
	}
}
