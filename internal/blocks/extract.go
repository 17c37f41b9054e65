// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package blocks

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// FENCE CONVENTION
// =============================================================================

const (
	// OpenFence starts a structured block.
	OpenFence = "```html"

	// CloseFence ends a structured block.
	CloseFence = "```"

	// DefaultNoiseThreshold is the rune length a fence-free buffer must
	// exceed before it is released. Shorter fragments are usually the
	// start of a fence or stray whitespace.
	DefaultNoiseThreshold = 4
)

var fencePattern = regexp.MustCompile("(?s)```html\\s*(.*?)\\s*```")

// =============================================================================
// SEGMENTS
// =============================================================================

// SegmentKind tells the renderer how to present a segment.
type SegmentKind int

const (
	// Typed segments are narrative text, revealed character by character.
	Typed SegmentKind = iota

	// Raw segments are structured block contents, inserted whole.
	Raw
)

// Segment is a piece of output ready for rendering.
type Segment struct {
	Kind SegmentKind
	Text string
}

// Block is a complete fenced block located in a buffer.
type Block struct {
	// Inner is the block content with surrounding whitespace removed.
	Inner string

	// Start and End are byte offsets of the whole fence in the buffer.
	Start, End int
}

// FindBlock returns the first complete fenced block in buf.
func FindBlock(buf string) (Block, bool) {
	loc := fencePattern.FindStringSubmatchIndex(buf)
	if loc == nil {
		return Block{}, false
	}
	return Block{
		Inner: strings.TrimSpace(buf[loc[2]:loc[3]]),
		Start: loc[0],
		End:   loc[1],
	}, true
}

// =============================================================================
// EXTRACTION
// =============================================================================

// Extract splits buf into segments that are ready now and the remainder
// that must wait for more input. It has no side effects.
//
// Complete blocks are taken in order: text before each block becomes a
// Typed segment if it is not blank, and the block content becomes a Raw
// segment. What is left is released as Typed text when it contains no
// opening fence and is longer than noiseThreshold runes; otherwise it is
// returned as the remainder. A trailing partial opening fence (for example
// "``" or "```ht") is always held back.
func Extract(buf string, noiseThreshold int) ([]Segment, string) {
	var segs []Segment

	for buf != "" {
		blk, ok := FindBlock(buf)
		if !ok {
			break
		}
		if before := buf[:blk.Start]; strings.TrimSpace(before) != "" {
			segs = append(segs, Segment{Kind: Typed, Text: before})
		}
		if blk.Inner != "" {
			segs = append(segs, Segment{Kind: Raw, Text: blk.Inner})
		}
		buf = buf[blk.End:]
	}

	if buf == "" || strings.Contains(buf, OpenFence) {
		return segs, buf
	}

	ready, held := splitPartialFence(buf)
	if strings.TrimSpace(ready) != "" && utf8.RuneCountInString(ready) > noiseThreshold {
		segs = append(segs, Segment{Kind: Typed, Text: ready})
		return segs, held
	}
	return segs, buf
}

// splitPartialFence separates a trailing proper prefix of OpenFence from
// the rest of s.
func splitPartialFence(s string) (ready, held string) {
	for n := len(OpenFence) - 1; n > 0; n-- {
		if strings.HasSuffix(s, OpenFence[:n]) {
			return s[:len(s)-n], s[len(s)-n:]
		}
	}
	return s, ""
}

// =============================================================================
// ACCUMULATOR
// =============================================================================

// Accumulator holds the not-yet-released text of one assistant turn.
type Accumulator struct {
	pending        string
	noiseThreshold int
}

// NewAccumulator creates an accumulator. A negative threshold uses
// DefaultNoiseThreshold.
func NewAccumulator(noiseThreshold int) *Accumulator {
	if noiseThreshold < 0 {
		noiseThreshold = DefaultNoiseThreshold
	}
	return &Accumulator{noiseThreshold: noiseThreshold}
}

// Push appends a content delta and returns the segments now ready.
func (a *Accumulator) Push(delta string) []Segment {
	a.pending += delta
	segs, rest := Extract(a.pending, a.noiseThreshold)
	a.pending = rest
	return segs
}

// Flush releases whatever is left at the end of a stream. Complete blocks
// are extracted as usual; leftover non-blank text, including short
// fragments and an unterminated fence, is returned as typed text.
func (a *Accumulator) Flush() []Segment {
	segs, rest := Extract(a.pending, a.noiseThreshold)
	if strings.TrimSpace(rest) != "" {
		segs = append(segs, Segment{Kind: Typed, Text: rest})
	}
	a.pending = ""
	return segs
}

// Pending returns the held-back text.
func (a *Accumulator) Pending() string {
	return a.pending
}

// InBlock reports whether an opening fence is waiting for its close.
func (a *Accumulator) InBlock() bool {
	return strings.Contains(a.pending, OpenFence)
}

// Reset discards held-back text.
func (a *Accumulator) Reset() {
	a.pending = ""
}
