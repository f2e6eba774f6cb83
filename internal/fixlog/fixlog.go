// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package fixlog appends the latest published fix to a JSON-lines file when
// asked to over the logging control topic.
package fixlog

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/relabs-tech/gps_publisher/internal/gps"
)

// DefaultFileName is created under the user's home directory when no path
// is configured.
const DefaultFileName = "gps_data.log"

// Writer appends fixes to a file, one JSON object per line.
type Writer struct {
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the file fixes are appended to.
func (w *Writer) Path() string {
	return w.path
}

// Append writes fix as a single line. The file is opened in append mode
// and created if missing.
func (w *Writer) Append(fix gps.Fix) (err error) {
	line, err := json.Marshal(fix)
	if err != nil {
		return errors.Wrap(err, "encode fix")
	}
	line = append(line, '\n')

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", w.path)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if _, err := f.Write(line); err != nil {
		return errors.Wrapf(err, "write %s", w.path)
	}
	return nil
}

// Outcome reports what a control signal did.
type Outcome int

const (
	OutcomeDisabled Outcome = iota
	OutcomeNothingToLog
	OutcomeLogged
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDisabled:
		return "disabled"
	case OutcomeNothingToLog:
		return "nothing to log"
	case OutcomeLogged:
		return "logged"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// LatestFunc returns the most recent fix, if any.
type LatestFunc func() (gps.Fix, bool)

// Controller handles logging control signals.
type Controller struct {
	latest LatestFunc
	w      *Writer
	logger *zap.SugaredLogger
}

func NewController(latest LatestFunc, w *Writer, logger *zap.SugaredLogger) *Controller {
	return &Controller{latest: latest, w: w, logger: logger}
}

// HandleControl appends the latest fix when active is true. Repeated signals
// append the same fix again. A failed write leaves the cached fix in place so
// a later signal can retry.
func (c *Controller) HandleControl(active bool) (Outcome, error) {
	if !active {
		c.logger.Info("logging control disabled")
		return OutcomeDisabled, nil
	}

	fix, ok := c.latest()
	if !ok {
		c.logger.Info("no data available to log")
		return OutcomeNothingToLog, nil
	}

	if err := c.w.Append(fix); err != nil {
		c.logger.Errorw("error writing to file", "path", c.w.Path(), "error", err)
		return OutcomeFailed, err
	}
	c.logger.Infow("logged latest data to file", "path", c.w.Path(), "fix", fix)
	return OutcomeLogged, nil
}
