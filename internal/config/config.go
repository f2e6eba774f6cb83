// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/relabs-tech/gps_publisher/internal/fixlog"
	"github.com/relabs-tech/gps_publisher/internal/gps"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDGPS     string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	MQTTClientIDDisplay string

	// Topics
	TopicGPS               string
	TopicGPSLoggingControl string

	// GPS receiver
	GPSSerialPort   string // "mock" selects the simulated receiver
	GPSBaudRate     int
	GPSInputFormat  gps.Format
	GPSPollInterval int // milliseconds

	// Fix log
	GPSLogFile string

	// Logging
	LogLevel string

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds
}

// Defaults returns the configuration used for keys absent from the file.
func Defaults() *Config {
	return &Config{
		MQTTBroker:             "tcp://localhost:1883",
		MQTTClientIDGPS:        "gps-publisher",
		MQTTClientIDConsole:    "gps-console",
		MQTTClientIDWeb:        "gps-web",
		MQTTClientIDDisplay:    "gps-display",
		TopicGPS:               "gps_data",
		TopicGPSLoggingControl: "gps_logging_control",
		GPSSerialPort:          "/dev/ttyUSB0",
		GPSBaudRate:            9600,
		GPSInputFormat:         gps.FormatKeyValue,
		GPSPollInterval:        1000,
		GPSLogFile:             filepath.Join("~", fixlog.DefaultFileName),
		LogLevel:               "info",
		WebServerPort:          8080,
		DisplayUpdateInterval:  500,
	}
}

// PollInterval is GPSPollInterval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.GPSPollInterval) * time.Millisecond
}

// DisplayInterval is DisplayUpdateInterval as a duration.
func (c *Config) DisplayInterval() time.Duration {
	return time.Duration(c.DisplayUpdateInterval) * time.Millisecond
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal/Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access; Get() takes the read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct. Keys missing
// from the file keep their defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Defaults when the file
// does not exist.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := Defaults()
		if err := cfg.finish(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(configPath)
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_GPS":
		c.TopicGPS = value
	case "TOPIC_GPS_LOGGING_CONTROL":
		c.TopicGPSLoggingControl = value

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate
	case "GPS_INPUT_FORMAT":
		c.GPSInputFormat = gps.Format(strings.ToLower(value))
	case "GPS_POLL_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_POLL_INTERVAL %q: %w", value, err)
		}
		c.GPSPollInterval = interval
	case "GPS_LOG_FILE":
		c.GPSLogFile = value

	// Logging
	case "LOG_LEVEL":
		c.LogLevel = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// finish expands the log path and validates the result.
func (c *Config) finish() error {
	path, err := expandHome(c.GPSLogFile)
	if err != nil {
		return err
	}
	c.GPSLogFile = path
	return c.validate()
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicGPS == "" {
		return fmt.Errorf("TOPIC_GPS is required")
	}
	if c.TopicGPSLoggingControl == "" {
		return fmt.Errorf("TOPIC_GPS_LOGGING_CONTROL is required")
	}
	if c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required")
	}
	if c.GPSBaudRate <= 0 {
		return fmt.Errorf("GPS_BAUD_RATE must be positive, got %d", c.GPSBaudRate)
	}
	if c.GPSPollInterval <= 0 {
		return fmt.Errorf("GPS_POLL_INTERVAL must be positive, got %d", c.GPSPollInterval)
	}
	switch c.GPSInputFormat {
	case gps.FormatKeyValue, gps.FormatNMEA:
	default:
		return fmt.Errorf("GPS_INPUT_FORMAT must be %q or %q, got %q", gps.FormatKeyValue, gps.FormatNMEA, c.GPSInputFormat)
	}
	if c.GPSLogFile == "" {
		return fmt.Errorf("GPS_LOG_FILE is required")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive, got %d", c.DisplayUpdateInterval)
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for GPS_LOG_FILE: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// InitGlobal initializes the global configuration from file, falling back to
// defaults when the file is missing.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = LoadOrDefault(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
