// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/relabs-tech/gps_publisher/internal/config"
	"github.com/relabs-tech/gps_publisher/internal/fixlog"
	"github.com/relabs-tech/gps_publisher/internal/gps"
	"github.com/relabs-tech/gps_publisher/internal/source"
	"github.com/relabs-tech/gps_publisher/internal/transport"
)

// Centre of the simulated receiver's track.
const (
	mockLatitude  = 37.1
	mockLongitude = -122.4
	mockAltitudeM = 10.0
)

// NodeOptions configures a GPSNode.
type NodeOptions struct {
	Format       gps.Format
	LogFile      string
	PollInterval time.Duration
	Clock        clock.Clock // defaults to the wall clock
}

// GPSNode owns everything the poll loop and the logging control callback
// share: the line source, the fix assembler and the fix log.
type GPSNode struct {
	src      source.LineSource
	asm      *gps.Assembler
	ctl      *fixlog.Controller
	clock    clock.Clock
	interval time.Duration
	logger   *zap.SugaredLogger
}

// NewGPSNode wires a node reading from src and publishing through pub.
func NewGPSNode(src source.LineSource, pub gps.Publisher, opts NodeOptions, logger *zap.SugaredLogger) *GPSNode {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = time.Second
	}

	asm := gps.NewAssembler(pub, opts.Format, logger.Named("assembler"))
	ctl := fixlog.NewController(asm.Latest, fixlog.NewWriter(opts.LogFile), logger.Named("fixlog"))

	return &GPSNode{
		src:      src,
		asm:      asm,
		ctl:      ctl,
		clock:    clk,
		interval: interval,
		logger:   logger,
	}
}

// Poll runs one poll cycle and returns how many fixes were published. A
// source error skips the cycle and leaves the partial fix untouched.
func (n *GPSNode) Poll() int {
	lines, err := n.src.Poll()
	if err != nil {
		n.logger.Errorw("error reading GPS source", "error", err)
		return 0
	}

	published := 0
	for _, line := range lines {
		n.logger.Debugw("received raw data", "line", line)
		if n.asm.HandleLine(line) {
			published++
		}
	}
	return published
}

// HandleControl handles one logging control signal.
func (n *GPSNode) HandleControl(active bool) (fixlog.Outcome, error) {
	return n.ctl.HandleControl(active)
}

// Latest returns the last published fix.
func (n *GPSNode) Latest() (gps.Fix, bool) {
	return n.asm.Latest()
}

// Run polls the source every interval until ctx is done.
func (n *GPSNode) Run(ctx context.Context) error {
	ticker := n.clock.Ticker(n.interval)
	defer ticker.Stop()

	n.logger.Infow("polling GPS source", "interval", n.interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n.Poll()
		}
	}
}

// openSource opens the configured receiver, or the simulator for "mock".
func openSource(cfg *config.Config, logger *zap.SugaredLogger) (source.LineSource, error) {
	if cfg.GPSSerialPort == source.MockPort {
		return source.NewMockSource(mockLatitude, mockLongitude, mockAltitudeM), nil
	}
	return source.OpenSerial(cfg.GPSSerialPort, cfg.GPSBaudRate, logger)
}

// RunGPSPublisher opens the GPS receiver, publishes completed fixes as JSON
// to cfg.TopicGPS and appends the latest fix to cfg.GPSLogFile whenever true
// arrives on cfg.TopicGPSLoggingControl. It returns on SIGINT/SIGTERM.
func RunGPSPublisher(cfg *config.Config, logger *zap.SugaredLogger) (err error) {
	// ---- 1) Connect to MQTT broker ----
	client, err := transport.Connect(cfg.MQTTBroker, cfg.MQTTClientIDGPS, logger.Named("mqtt"))
	if err != nil {
		return err
	}
	defer client.Disconnect()

	// ---- 2) Open GPS source ----
	src, err := openSource(cfg, logger.Named("source"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, src.Close())
	}()
	logger.Infow("GPS source opened", "port", cfg.GPSSerialPort, "baud", cfg.GPSBaudRate, "format", cfg.GPSInputFormat)

	node := NewGPSNode(src, client.FixPublisher(cfg.TopicGPS), NodeOptions{
		Format:       cfg.GPSInputFormat,
		LogFile:      cfg.GPSLogFile,
		PollInterval: cfg.PollInterval(),
	}, logger)

	// ---- 3) Logging control ----
	if err := client.SubscribeControl(cfg.TopicGPSLoggingControl, func(active bool) {
		_, _ = node.HandleControl(active)
	}); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = node.Run(ctx)
	logger.Info("GPS publisher shutting down")
	return err
}
