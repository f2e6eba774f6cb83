// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import "strings"

// Field names one of the values a receiver reports as "<Field>: <value>".
type Field string

const (
	Latitude  Field = "Latitude"
	Longitude Field = "Longitude"
	Altitude  Field = "Altitude"
)

// Fields lists every field a fix needs, in publish order.
var Fields = []Field{Latitude, Longitude, Altitude}

// Valid reports whether f is one of the fixed field names.
func (f Field) Valid() bool {
	switch f {
	case Latitude, Longitude, Altitude:
		return true
	}
	return false
}

// Fix is a complete position reading, published on MQTT and appended to the
// fix log. Values are kept as the receiver sent them.
type Fix struct {
	Latitude  string `json:"Latitude"`
	Longitude string `json:"Longitude"`
	Altitude  string `json:"Altitude"` // unit suffix stripped
}

// PartialFix accumulates raw field values until all three are present.
type PartialFix struct {
	Latitude  string
	Longitude string
	Altitude  string
}

// Set stores value under field. Unknown fields are ignored.
func (p *PartialFix) Set(field Field, value string) {
	switch field {
	case Latitude:
		p.Latitude = value
	case Longitude:
		p.Longitude = value
	case Altitude:
		p.Altitude = value
	}
}

// Get returns the raw value stored under field ("" when absent).
func (p PartialFix) Get(field Field) string {
	switch field {
	case Latitude:
		return p.Latitude
	case Longitude:
		return p.Longitude
	case Altitude:
		return p.Altitude
	}
	return ""
}

// Complete reports whether every field holds a non-empty value.
func (p PartialFix) Complete() bool {
	return p.Latitude != "" && p.Longitude != "" && p.Altitude != ""
}

// Empty reports whether no field has been received yet.
func (p PartialFix) Empty() bool {
	return p.Latitude == "" && p.Longitude == "" && p.Altitude == ""
}

// Reset clears every field.
func (p *PartialFix) Reset() {
	*p = PartialFix{}
}

// Fix snapshots the accumulated values. The altitude keeps only its first
// whitespace-delimited token, so "123.4 M" becomes "123.4".
func (p PartialFix) Fix() Fix {
	return Fix{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Altitude:  stripUnit(p.Altitude),
	}
}

func stripUnit(raw string) string {
	if tokens := strings.Fields(raw); len(tokens) > 0 {
		return tokens[0]
	}
	return raw
}
