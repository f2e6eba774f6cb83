// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gps_publisher/internal/config"
	"github.com/relabs-tech/gps_publisher/internal/gps"
	"github.com/relabs-tech/gps_publisher/internal/transport"
)

const (
	displayWidth  = 128
	displayHeight = 64
)

// RunDisplay shows the latest published fix on an SSD1306 OLED.
func RunDisplay(cfg *config.Config, logger *zap.SugaredLogger) error {
	// Initialize periph
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize periph")
	}

	// Open I2C bus ("" picks the first one)
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return errors.Wrapf(err, "failed to open I2C bus %q", cfg.DisplayI2CBus)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return errors.Wrap(err, "failed to initialize display")
	}
	logger.Infow("display initialized", "bus", cfg.DisplayI2CBus)

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		logger.Warnw("error showing splash", "error", err)
	}

	client, err := transport.Connect(cfg.MQTTBroker, cfg.MQTTClientIDDisplay, logger.Named("mqtt"))
	if err != nil {
		return err
	}
	defer client.Disconnect()

	hub := newFixHub()
	if err := client.SubscribeFixes(cfg.TopicGPS, hub.Update); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.DisplayInterval())
	defer ticker.Stop()

	logger.Info("display: starting update loop")
	runDisplayLoop(ctx, ticker.C, hub.Latest, func(img image.Image) error {
		return dev.Draw(dev.Bounds(), img, image.Point{})
	}, logger)
	logger.Info("display: shutting down")
	return nil
}

// runDisplayLoop redraws the latest fix on every tick until ctx is done.
func runDisplayLoop(ctx context.Context, tick <-chan time.Time, latest func() (gps.Fix, bool), draw func(image.Image) error, logger *zap.SugaredLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			fix, have := latest()
			if err := draw(renderFix(fix, have)); err != nil {
				logger.Warnw("error updating display", "error", err)
			}
		}
	}
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func renderSplash() image.Image {
	img, drawer := newFrame()
	drawer.Dot = fixed.P(10, 26)
	drawer.DrawString("GPS Publisher")
	drawer.Dot = fixed.P(5, 43)
	drawer.DrawString("Looking for")
	drawer.Dot = fixed.P(25, 56)
	drawer.DrawString("sats")
	return img
}

// renderFix draws one text row per field, or a waiting message before the
// first fix.
func renderFix(fix gps.Fix, have bool) *image1bit.VerticalLSB {
	img, drawer := newFrame()

	if !have {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawString("GPS Position")
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawString("Waiting...")
		return img
	}

	for i, row := range fixRows(fix) {
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(row)
	}
	return img
}

// fixRows formats a fix for the 128x64 screen: hemispheres instead of signs,
// altitude in whole meters. Values that are not numbers are shown as sent.
func fixRows(fix gps.Fix) []string {
	return []string{
		hemisphere(fix.Latitude, "N", "S"),
		hemisphere(fix.Longitude, "E", "W"),
		"Alt: " + wholeMeters(fix.Altitude),
	}
}

func hemisphere(raw, pos, neg string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}
	dir := pos
	if v < 0 {
		dir = neg
		v = -v
	}
	return fmt.Sprintf("%.4f%s", v, dir)
}

func wholeMeters(raw string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%.0fm", v)
}
