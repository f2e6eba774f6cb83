// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"fmt"
	"math"
	"time"
)

type mockSource struct {
	start   time.Time
	now     func() time.Time
	lat     float64
	lon     float64
	altM    float64
	stopped bool
}

// NewMockSource creates a simulated receiver that circles around the given
// centre, reporting one full fix per poll in the key:value line format.
func NewMockSource(lat, lon, altM float64) LineSource {
	return newMockSource(lat, lon, altM, time.Now)
}

func newMockSource(lat, lon, altM float64, now func() time.Time) *mockSource {
	return &mockSource{start: now(), now: now, lat: lat, lon: lon, altM: altM}
}

func (m *mockSource) Poll() ([]string, error) {
	if m.stopped {
		return nil, ErrClosed
	}
	elapsed := m.now().Sub(m.start).Seconds()

	return []string{
		fmt.Sprintf("Latitude: %.6f", m.lat+0.001*math.Sin(elapsed*0.1)),
		fmt.Sprintf("Longitude: %.6f", m.lon+0.001*math.Cos(elapsed*0.1)),
		fmt.Sprintf("Altitude: %.1f M", m.altM+5*math.Sin(elapsed*0.05)),
	}, nil
}

func (m *mockSource) Close() error {
	m.stopped = true
	return nil
}
