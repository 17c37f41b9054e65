// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
)

// =============================================================================
// FRAMING CONSTANTS
// =============================================================================

// DataPrefix marks a data frame. Frames without it are ignored.
const DataPrefix = "data: "

// DoneSentinel is the payload the backend sends as its last frame.
const DoneSentinel = "[DONE]"

// DefaultMaxFrameSize bounds a single buffered frame (1MB). Itinerary
// documents are the largest payloads and stay well below this.
const DefaultMaxFrameSize = 1024 * 1024

// readChunkSize is how much the Decoder asks the underlying reader for.
const readChunkSize = 4096

var frameDelimiter = []byte("\n\n")

// ErrFrameTooLarge is returned when a frame grows past the configured limit
// without a terminating blank line.
var ErrFrameTooLarge = errors.New("sse: frame exceeds maximum size")

// =============================================================================
// FRAME
// =============================================================================

// Frame is one complete data payload with the "data: " prefix removed.
type Frame struct {
	Data string
}

// IsDone reports whether the frame is the end-of-stream sentinel.
func (f Frame) IsDone() bool {
	return f.Data == DoneSentinel
}

// =============================================================================
// SPLITTER
// =============================================================================

// Splitter is a push-style frame splitter. Callers hand it byte chunks as
// they arrive; it keeps the unterminated tail between calls.
//
// The frame boundary is pure ASCII, so a boundary can never fall inside a
// multi-byte character: buffering raw bytes until a boundary is enough to
// keep split characters intact. Decoding happens per complete frame.
type Splitter struct {
	buf     []byte
	maxSize int
}

// NewSplitter creates a splitter. maxSize <= 0 uses DefaultMaxFrameSize.
func NewSplitter(maxSize int) *Splitter {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}
	return &Splitter{maxSize: maxSize}
}

// Feed appends chunk to the pending buffer and returns every frame that is
// now complete, in stream order. Segments that do not carry the data prefix
// are dropped silently.
func (s *Splitter) Feed(chunk []byte) ([]Frame, error) {
	if s.maxSize == 0 {
		s.maxSize = DefaultMaxFrameSize
	}
	s.buf = append(s.buf, chunk...)

	var frames []Frame
	for {
		idx := bytes.Index(s.buf, frameDelimiter)
		if idx < 0 {
			break
		}
		raw := s.buf[:idx]
		s.buf = s.buf[idx+len(frameDelimiter):]

		if frame, ok := parseFrame(raw); ok {
			frames = append(frames, frame)
		}
	}

	// Compact so a long stream does not pin the whole history.
	if len(s.buf) == 0 {
		s.buf = nil
	} else {
		s.buf = append([]byte(nil), s.buf...)
	}

	if len(s.buf) > s.maxSize {
		s.buf = nil
		return frames, fmt.Errorf("%w (%d bytes)", ErrFrameTooLarge, s.maxSize)
	}
	return frames, nil
}

// Pending returns the number of buffered bytes that do not yet form a frame.
func (s *Splitter) Pending() int {
	return len(s.buf)
}

// Reset discards any buffered partial frame.
func (s *Splitter) Reset() {
	s.buf = nil
}

// parseFrame strips the data prefix and decodes the payload as UTF-8,
// replacing invalid sequences with U+FFFD.
func parseFrame(raw []byte) (Frame, bool) {
	if !bytes.HasPrefix(raw, []byte(DataPrefix)) {
		return Frame{}, false
	}
	payload, err := unicode.UTF8.NewDecoder().Bytes(raw[len(DataPrefix):])
	if err != nil {
		// The UTF-8 decoder replaces rather than fails; keep the raw bytes
		// if it ever does.
		payload = raw[len(DataPrefix):]
	}
	return Frame{Data: string(payload)}, true
}

// =============================================================================
// DECODER
// =============================================================================

// Decoder yields frames lazily from an io.Reader.
type Decoder struct {
	r        io.Reader
	splitter *Splitter
	queue    []Frame
	chunk    []byte
	err      error
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return NewDecoderSize(r, DefaultMaxFrameSize)
}

// NewDecoderSize creates a decoder with a custom frame size limit.
func NewDecoderSize(r io.Reader, maxFrameSize int) *Decoder {
	return &Decoder{
		r:        r,
		splitter: NewSplitter(maxFrameSize),
		chunk:    make([]byte, readChunkSize),
	}
}

// Next returns the next frame. It returns io.EOF once the reader is
// exhausted; an unterminated trailing frame is discarded. Any other read
// error is returned as-is and is sticky.
func (d *Decoder) Next() (Frame, error) {
	for len(d.queue) == 0 {
		if d.err != nil {
			return Frame{}, d.err
		}

		n, err := d.r.Read(d.chunk)
		if n > 0 {
			frames, ferr := d.splitter.Feed(d.chunk[:n])
			d.queue = append(d.queue, frames...)
			if ferr != nil {
				d.err = ferr
			}
		}
		if err != nil {
			if d.err == nil {
				d.err = err
			}
			d.splitter.Reset()
		}
	}

	frame := d.queue[0]
	d.queue = d.queue[1:]
	return frame, nil
}

// Pending reports how many bytes of an incomplete frame are buffered.
func (d *Decoder) Pending() int {
	return d.splitter.Pending()
}
