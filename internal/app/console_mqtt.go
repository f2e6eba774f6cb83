// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/relabs-tech/gps_publisher/internal/config"
	"github.com/relabs-tech/gps_publisher/internal/gps"
	"github.com/relabs-tech/gps_publisher/internal/transport"
)

func printFix(w io.Writer, f gps.Fix) {
	fmt.Fprintf(w, "[GPS ]  lat=%s lon=%s alt=%s\n", f.Latitude, f.Longitude, f.Altitude)
}

// RunConsoleMQTT prints every fix published on cfg.TopicGPS until Ctrl+C.
func RunConsoleMQTT(cfg *config.Config, logger *zap.SugaredLogger) error {
	client, err := transport.Connect(cfg.MQTTBroker, cfg.MQTTClientIDConsole, logger.Named("mqtt"))
	if err != nil {
		return err
	}
	defer client.Disconnect()

	if err := client.SubscribeFixes(cfg.TopicGPS, func(f gps.Fix) {
		printFix(os.Stdout, f)
	}); err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("console: shutting down")
	return nil
}
