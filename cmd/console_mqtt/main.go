// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gps_publisher/internal/app"
	"github.com/relabs-tech/gps_publisher/internal/config"
	"github.com/relabs-tech/gps_publisher/internal/logging"
)

func main() {
	configPath := flag.String("config", "./gps_config.txt", "path to configuration file")
	flag.Parse()

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting GPS console (MQTT subscriber)")

	if err := app.RunConsoleMQTT(cfg, logger); err != nil {
		logger.Fatalf("fatal: %v", err)
	}
}
