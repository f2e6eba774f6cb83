// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gps assembles position fixes from a receiver that reports one
// field per line:
//
//	Latitude: 37.1
//	Longitude: -122.4
//	Altitude: 10.0 M
//
// Once all three fields have arrived the fix is published, remembered as the
// latest fix and the accumulator starts over. GGA sentences from NMEA
// receivers can be fed through the same path (see ParseNMEA).
package gps
