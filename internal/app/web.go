// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/gps_publisher/internal/config"
	"github.com/relabs-tech/gps_publisher/internal/gps"
	"github.com/relabs-tech/gps_publisher/internal/transport"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// fixHub keeps the latest fix and fans new ones out to websocket clients.
type fixHub struct {
	mu     sync.RWMutex
	latest gps.Fix
	have   bool
	subs   map[chan gps.Fix]struct{}
}

func newFixHub() *fixHub {
	return &fixHub{subs: map[chan gps.Fix]struct{}{}}
}

// Update stores f and hands it to every subscriber. Slow subscribers miss
// fixes rather than blocking MQTT delivery.
func (h *fixHub) Update(f gps.Fix) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = f
	h.have = true
	for ch := range h.subs {
		select {
		case ch <- f:
		default:
		}
	}
}

func (h *fixHub) Latest() (gps.Fix, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.have
}

func (h *fixHub) subscribe() (<-chan gps.Fix, func()) {
	ch := make(chan gps.Fix, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

// newWebHandler serves:
//
//	GET  /api/fix      latest fix as JSON (503 until one arrives)
//	GET  /ws           websocket stream of fixes, latest first
//	POST /api/logging  ask the publisher to append the latest fix to its log
func newWebHandler(hub *fixHub, requestLog func() error, logger *zap.SugaredLogger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/fix", func(w http.ResponseWriter, r *http.Request) {
		fix, ok := hub.Latest()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(fix); err != nil {
			logger.Warnw("json encode error", "error", err)
		}
	})

	mux.HandleFunc("/api/logging", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := requestLog(); err != nil {
			logger.Errorw("logging request failed", "error", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warnw("websocket upgrade error", "error", err)
			return
		}
		defer conn.Close()

		fixes, unsubscribe := hub.subscribe()
		defer unsubscribe()

		// Reader goroutine only exists to notice the client going away.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						logger.Debugw("websocket read error", "error", err)
					}
					return
				}
			}
		}()

		if fix, ok := hub.Latest(); ok {
			if err := conn.WriteJSON(fix); err != nil {
				return
			}
		}
		for {
			select {
			case <-closed:
				return
			case fix := <-fixes:
				if err := conn.WriteJSON(fix); err != nil {
					logger.Debugw("websocket write error", "error", err)
					return
				}
			}
		}
	})

	return mux
}

// RunWeb serves the latest fix over HTTP and websocket, and forwards
// logging requests to the publisher over MQTT.
func RunWeb(cfg *config.Config, logger *zap.SugaredLogger) error {
	client, err := transport.Connect(cfg.MQTTBroker, cfg.MQTTClientIDWeb, logger.Named("mqtt"))
	if err != nil {
		return err
	}
	defer client.Disconnect()

	hub := newFixHub()
	if err := client.SubscribeFixes(cfg.TopicGPS, hub.Update); err != nil {
		return err
	}

	requestLog := func() error {
		return client.PublishControl(cfg.TopicGPSLoggingControl, true)
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	logger.Infow("web server listening", "addr", addr)
	return http.ListenAndServe(addr, newWebHandler(hub, requestLog, logger))
}
