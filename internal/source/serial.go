// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	serial "github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// MockPort selects the simulated receiver instead of a serial device.
const MockPort = "mock"

// OpenSerial opens the GPS serial port (8N1) and starts reading lines.
// NOTE: adjust the port to match your setup: /dev/ttyUSB0, /dev/serial0, /dev/ttyACM0, etc.
func OpenSerial(port string, baud int, logger *zap.SugaredLogger) (*Reader, error) {
	if port == "" {
		return nil, errors.New("serial port is required")
	}
	if baud <= 0 {
		return nil, errors.Errorf("invalid baud rate %d", baud)
	}

	serialOpts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	dev, err := serial.Open(serialOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", port)
	}
	return NewReader(dev, DefaultBuffer, logger), nil
}
