// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrClosed is returned by Poll after Close.
var ErrClosed = errors.New("source closed")

// LineSource hands out receiver lines on every poll cycle.
// Later you could add: replay from a capture file, TCP bridge, etc.
type LineSource interface {
	// Poll returns the lines received since the previous call without
	// blocking. An empty result with a nil error means nothing arrived.
	Poll() ([]string, error)
	Close() error
}

// DefaultBuffer is the number of lines a Reader holds between polls.
const DefaultBuffer = 64

// MaxLineLength bounds a receiver line, newline included. Longer lines are
// discarded whole and reading carries on with the next one.
const MaxLineLength = 4096

// Reader splits a byte stream into trimmed text lines on a background
// goroutine so Poll never blocks on the device.
type Reader struct {
	rc     io.ReadCloser
	logger *zap.SugaredLogger
	lines  chan string
	quit   chan struct{}
	done   chan struct{}

	mu  sync.Mutex
	err error

	closeOnce sync.Once
	closeErr  error
}

// NewReader starts reading rc. buffer bounds how many lines wait between
// polls; when full the reader stops pulling from rc until the next poll.
func NewReader(rc io.ReadCloser, buffer int, logger *zap.SugaredLogger) *Reader {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	r := &Reader{
		rc:     rc,
		logger: logger,
		lines:  make(chan string, buffer),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Reader) run() {
	defer close(r.done)

	br := bufio.NewReaderSize(r.rc, MaxLineLength)
	for {
		raw, dropped, err := readLine(br)
		if dropped > 0 {
			r.logger.Warnw("discarding oversized receiver line", "bytes", dropped, "limit", MaxLineLength)
		} else if !r.send(raw) {
			r.setErr(ErrClosed)
			return
		}
		if err != nil {
			r.setErr(errors.Wrap(err, "read receiver"))
			return
		}
	}
}

// readLine returns the next line from br. A line that does not fit in br's
// buffer is consumed up to its newline and reported as dropped bytes instead.
func readLine(br *bufio.Reader) (line []byte, dropped int, err error) {
	for {
		var chunk []byte
		chunk, err = br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			dropped += len(chunk)
			continue
		}
		if dropped > 0 {
			return nil, dropped + len(chunk), err
		}
		return chunk, 0, err
	}
}

// send queues one trimmed line. It reports false once the reader is closed.
func (r *Reader) send(raw []byte) bool {
	line := strings.TrimSpace(strings.ToValidUTF8(string(raw), "\uFFFD"))
	if line == "" {
		return true
	}
	select {
	case r.lines <- line:
		return true
	case <-r.quit:
		return false
	}
}

func (r *Reader) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

// Poll drains buffered lines. Once the underlying stream fails, lines read
// before the failure are still returned first; after that every call
// reports the read error.
func (r *Reader) Poll() ([]string, error) {
	select {
	case <-r.quit:
		return nil, ErrClosed
	default:
	}

	if out := r.drain(); len(out) > 0 {
		return out, nil
	}

	select {
	case <-r.done:
		// Lines queued just before the reader stopped come before its error.
		if out := r.drain(); len(out) > 0 {
			return out, nil
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		return nil, r.err
	default:
		return nil, nil
	}
}

func (r *Reader) drain() []string {
	var out []string
	for {
		select {
		case line := <-r.lines:
			out = append(out, line)
		default:
			return out
		}
	}
}

// Close stops the reader and closes the underlying stream.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		close(r.quit)
		r.closeErr = r.rc.Close()
	})
	return r.closeErr
}
