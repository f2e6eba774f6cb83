// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.viam.com/test"

	"github.com/relabs-tech/gps_publisher/internal/gps"
)

func newTestWebServer(t *testing.T, requestLog func() error) (*httptest.Server, *fixHub) {
	t.Helper()
	hub := newFixHub()
	srv := httptest.NewServer(newWebHandler(hub, requestLog, zap.NewNop().Sugar()))
	t.Cleanup(srv.Close)
	return srv, hub
}

func TestWeb_LatestFix(t *testing.T) {
	srv, hub := newTestWebServer(t, func() error { return nil })

	resp, err := http.Get(srv.URL + "/api/fix")
	test.That(t, err, test.ShouldBeNil)
	resp.Body.Close()
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusServiceUnavailable)

	hub.Update(gps.Fix{Latitude: "37.1", Longitude: "-122.4", Altitude: "10.0"})

	resp, err = http.Get(srv.URL + "/api/fix")
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusOK)

	body, err := io.ReadAll(resp.Body)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.TrimSpace(string(body)), test.ShouldEqual, wantPayload)
}

func TestWeb_LoggingRequest(t *testing.T) {
	var calls atomic.Int32
	srv, _ := newTestWebServer(t, func() error {
		calls.Add(1)
		return nil
	})

	resp, err := http.Post(srv.URL+"/api/logging", "text/plain", bytes.NewReader(nil))
	test.That(t, err, test.ShouldBeNil)
	resp.Body.Close()
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusAccepted)
	test.That(t, calls.Load(), test.ShouldEqual, int32(1))

	resp, err = http.Get(srv.URL + "/api/logging")
	test.That(t, err, test.ShouldBeNil)
	resp.Body.Close()
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusMethodNotAllowed)
	test.That(t, calls.Load(), test.ShouldEqual, int32(1))
}

func TestWeb_LoggingRequestFails(t *testing.T) {
	srv, _ := newTestWebServer(t, func() error { return errors.New("broker down") })

	resp, err := http.Post(srv.URL+"/api/logging", "text/plain", bytes.NewReader(nil))
	test.That(t, err, test.ShouldBeNil)
	resp.Body.Close()
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusBadGateway)
}

func TestWeb_WebsocketStream(t *testing.T) {
	srv, hub := newTestWebServer(t, func() error { return nil })
	first := gps.Fix{Latitude: "1", Longitude: "2", Altitude: "3"}
	second := gps.Fix{Latitude: "4", Longitude: "5", Altitude: "6"}
	hub.Update(first)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	test.That(t, err, test.ShouldBeNil)
	defer conn.Close()
	test.That(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)), test.ShouldBeNil)

	var got gps.Fix
	test.That(t, conn.ReadJSON(&got), test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, first)

	hub.Update(second)
	test.That(t, conn.ReadJSON(&got), test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, second)
}

func TestFixHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := newFixHub()
	_, unsubscribe := hub.subscribe()
	defer unsubscribe()

	for i := 0; i < 100; i++ {
		hub.Update(gps.Fix{Latitude: strconv.Itoa(i % 10)})
	}
	latest, ok := hub.Latest()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, latest.Latitude, test.ShouldEqual, "9")
}
