// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Format selects how raw receiver lines are decoded.
type Format string

const (
	FormatKeyValue Format = "keyvalue"
	FormatNMEA     Format = "nmea"
)

// Publisher delivers completed fixes, typically to an MQTT topic.
type Publisher interface {
	Publish(Fix) error
}

// Assembler merges field readings into a PartialFix and, once all three
// fields are present, publishes the fix, caches it as the latest one and
// starts over with an empty accumulator.
//
// It is safe for concurrent use: the poll loop and the MQTT control callback
// run on different goroutines.
type Assembler struct {
	pub    Publisher
	format Format
	logger *zap.SugaredLogger

	mu      sync.Mutex
	partial PartialFix
	latest  Fix
	have    bool
}

// NewAssembler returns an Assembler decoding lines as format.
func NewAssembler(pub Publisher, format Format, logger *zap.SugaredLogger) *Assembler {
	if format == "" {
		format = FormatKeyValue
	}
	return &Assembler{pub: pub, format: format, logger: logger}
}

// HandleLine decodes one raw line and merges it. Malformed lines and unknown
// keys are logged and dropped without touching state. It reports whether a
// fix was published.
func (a *Assembler) HandleLine(line string) bool {
	var readings []Reading
	switch a.format {
	case FormatNMEA:
		rs, err := ParseNMEA(line)
		if err != nil {
			a.warnParse(err, line)
			return false
		}
		readings = rs
	default:
		r, err := ParseLine(line)
		if err != nil {
			a.warnParse(err, line)
			return false
		}
		readings = []Reading{r}
	}
	return a.HandleReadings(readings...)
}

func (a *Assembler) warnParse(err error, line string) {
	switch {
	case errors.Is(err, ErrUnknownKey):
		a.logger.Warnw("unexpected data key", "line", line)
	default:
		a.logger.Warnw("unexpected data format", "line", line, "error", err)
	}
}

// HandleReadings merges already-parsed readings in order, checking for a
// complete fix after each one.
func (a *Assembler) HandleReadings(readings ...Reading) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	published := false
	for _, r := range readings {
		if !r.Field.Valid() {
			a.logger.Warnw("unexpected data key", "key", string(r.Field))
			continue
		}
		a.partial.Set(r.Field, r.Value)
		if !a.partial.Complete() {
			continue
		}

		fix := a.partial.Fix()
		if err := a.pub.Publish(fix); err != nil {
			a.logger.Errorw("publish failed", "fix", fix, "error", err)
		} else {
			a.logger.Infow("published fix", "latitude", fix.Latitude, "longitude", fix.Longitude, "altitude", fix.Altitude)
		}
		a.latest = fix
		a.have = true
		a.partial.Reset()
		published = true
	}
	return published
}

// Latest returns the most recently completed fix.
func (a *Assembler) Latest() (Fix, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest, a.have
}

// Partial returns a copy of the in-progress accumulator.
func (a *Assembler) Partial() PartialFix {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.partial
}
