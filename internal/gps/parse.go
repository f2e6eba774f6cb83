// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedLine is returned for lines without a "key: value" shape.
	ErrMalformedLine = errors.New("malformed line")
	// ErrUnknownKey is returned for well-formed lines naming a field outside
	// Latitude, Longitude and Altitude.
	ErrUnknownKey = errors.New("unknown key")
)

// Reading is one parsed field value.
type Reading struct {
	Field Field
	Value string
}

// ParseLine splits a "<Key>: <Value>" line. A line must contain exactly one
// colon; values holding a second colon are rejected as malformed.
func ParseLine(line string) (Reading, error) {
	parts := strings.Split(line, ":")
	if len(parts) != 2 {
		return Reading{}, errors.Wrapf(ErrMalformedLine, "%q", line)
	}

	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])

	field := Field(key)
	if !field.Valid() {
		return Reading{}, errors.Wrapf(ErrUnknownKey, "%q", key)
	}
	return Reading{Field: field, Value: value}, nil
}
