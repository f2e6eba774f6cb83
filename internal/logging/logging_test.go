// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestNew(t *testing.T) {
	logger, err := New("warn", "gps")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logger.Desugar().Core().Enabled(zapcore.WarnLevel), test.ShouldBeTrue)
	test.That(t, logger.Desugar().Core().Enabled(zapcore.InfoLevel), test.ShouldBeFalse)

	_, err = New("chatty", "gps")
	test.That(t, err, test.ShouldNotBeNil)
}
