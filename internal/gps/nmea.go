// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/pkg/errors"
)

// ParseNMEA turns a GGA sentence into the three readings the assembler
// expects. Altitude is rendered as "<meters> M" so it goes through the same
// unit stripping as key:value input. Other sentence types, and GGA sentences
// without a position fix, yield no readings.
func ParseNMEA(line string) ([]Reading, error) {
	// NMEA sentences usually start with '$'
	if !strings.HasPrefix(line, "$") {
		return nil, errors.Wrapf(ErrMalformedLine, "%q", line)
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedLine, "%q: %v", line, err)
	}

	if sentence.DataType() != nmea.TypeGGA {
		return nil, nil
	}
	m := sentence.(nmea.GGA)
	if m.FixQuality == nmea.Invalid {
		return nil, nil
	}

	return []Reading{
		{Field: Latitude, Value: strconv.FormatFloat(m.Latitude, 'f', 6, 64)},
		{Field: Longitude, Value: strconv.FormatFloat(m.Longitude, 'f', 6, 64)},
		{Field: Altitude, Value: fmt.Sprintf("%.1f M", m.Altitude)},
	}, nil
}
