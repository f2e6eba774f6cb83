// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package fixlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.viam.com/test"

	"github.com/relabs-tech/gps_publisher/internal/gps"
)

var sampleFix = gps.Fix{Latitude: "37.1", Longitude: "-122.4", Altitude: "10.0"}

const sampleLine = `{"Latitude":"37.1","Longitude":"-122.4","Altitude":"10.0"}`

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	test.That(t, err, test.ShouldBeNil)
	return strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
}

func newController(t *testing.T, fix *gps.Fix) (*Controller, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	latest := func() (gps.Fix, bool) {
		if fix == nil {
			return gps.Fix{}, false
		}
		return *fix, true
	}
	return NewController(latest, NewWriter(path), zap.NewNop().Sugar()), path
}

func TestHandleControl_AppendsLatest(t *testing.T) {
	c, path := newController(t, &sampleFix)

	out, err := c.HandleControl(true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, OutcomeLogged)
	test.That(t, readLines(t, path), test.ShouldResemble, []string{sampleLine})
}

func TestHandleControl_NothingToLog(t *testing.T) {
	c, path := newController(t, nil)

	out, err := c.HandleControl(true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, OutcomeNothingToLog)

	_, statErr := os.Stat(path)
	test.That(t, os.IsNotExist(statErr), test.ShouldBeTrue)
}

func TestHandleControl_FalseIsNoop(t *testing.T) {
	c, path := newController(t, &sampleFix)

	out, err := c.HandleControl(false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, OutcomeDisabled)
	test.That(t, readLines(t, path), test.ShouldBeEmpty)
}

func TestHandleControl_RepeatedSignalsNotDeduplicated(t *testing.T) {
	c, path := newController(t, &sampleFix)

	for i := 0; i < 2; i++ {
		_, err := c.HandleControl(true)
		test.That(t, err, test.ShouldBeNil)
	}
	test.That(t, readLines(t, path), test.ShouldResemble, []string{sampleLine, sampleLine})
}

func TestHandleControl_AppendsToExistingFile(t *testing.T) {
	c, path := newController(t, &sampleFix)
	test.That(t, os.WriteFile(path, []byte("previous\n"), 0o644), test.ShouldBeNil)

	_, err := c.HandleControl(true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readLines(t, path), test.ShouldResemble, []string{"previous", sampleLine})
}

func TestHandleControl_WriteFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing", "dir")
	latest := func() (gps.Fix, bool) { return sampleFix, true }
	c := NewController(latest, NewWriter(filepath.Join(dir, DefaultFileName)), zap.NewNop().Sugar())

	out, err := c.HandleControl(true)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, out, test.ShouldEqual, OutcomeFailed)
	test.That(t, out.String(), test.ShouldEqual, "failed")
}
