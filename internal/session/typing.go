// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/tripplan-tui/internal/blocks"
	"github.com/jeranaias/tripplan-tui/internal/surface"
	"github.com/jeranaias/tripplan-tui/internal/typewriter"
)

// Mode is what the assistant slot currently shows.
type Mode int

const (
	// ModeContent: the slot shows the answer being written.
	ModeContent Mode = iota

	// ModeStatus: the slot shows a transient status line.
	ModeStatus
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeStatus {
		return "status"
	}
	return "content"
}

// statusMarker is implemented by surfaces that style status lines.
type statusMarker interface {
	MarkStatus(status bool)
}

// TypingSession is the rendering state of one assistant turn.
type TypingSession struct {
	ID string

	ctx    context.Context
	cancel context.CancelFunc

	surface  surface.Surface
	acc      *blocks.Accumulator
	animator *typewriter.Animator
	onBlock  func()

	mu       sync.Mutex
	mode     Mode
	revealed bool
	wrote    bool
}

func newTypingSession(parent context.Context, surf surface.Surface, animator *typewriter.Animator, noiseThreshold int) *TypingSession {
	ctx, cancel := context.WithCancel(parent)
	return &TypingSession{
		ID:       uuid.NewString(),
		ctx:      ctx,
		cancel:   cancel,
		surface:  surf,
		acc:      blocks.NewAccumulator(noiseThreshold),
		animator: animator,
	}
}

// Mode returns the current display mode.
func (ts *TypingSession) Mode() Mode {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.mode
}

// InStructuredBlock reports whether an opened fence is still waiting for
// its closing marker.
func (ts *TypingSession) InStructuredBlock() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.acc.InBlock()
}

// Done is closed when the session is cancelled.
func (ts *TypingSession) Done() <-chan struct{} {
	return ts.ctx.Done()
}

// Cancel stops the session: the running typewriter halts at the next
// character and no further writes reach the surface.
func (ts *TypingSession) Cancel() {
	ts.cancel()
}

func (ts *TypingSession) live() bool {
	return ts.ctx.Err() == nil
}

func (ts *TypingSession) reveal() {
	if !ts.revealed {
		ts.surface.SetVisible(true)
		ts.revealed = true
	}
}

// showStatus replaces the slot with a status line.
func (ts *TypingSession) showStatus(text string) error {
	if !ts.live() {
		return ts.ctx.Err()
	}
	ts.mu.Lock()
	ts.mode = ModeStatus
	ts.acc.Reset()
	ts.mu.Unlock()

	ts.reveal()
	ts.surface.Clear()
	ts.wrote = false
	if m, ok := ts.surface.(statusMarker); ok {
		m.MarkStatus(true)
	}
	return ts.animator.Type(ts.ctx, text, ts.surface)
}

// appendContent feeds a content delta through the block extractor and
// renders whatever is ready.
func (ts *TypingSession) appendContent(delta string) error {
	if !ts.live() {
		return ts.ctx.Err()
	}
	ts.mu.Lock()
	leavingStatus := ts.mode == ModeStatus
	ts.mode = ModeContent
	segs := ts.acc.Push(delta)
	ts.mu.Unlock()

	ts.reveal()
	if leavingStatus {
		ts.surface.Clear()
		ts.wrote = false
		if m, ok := ts.surface.(statusMarker); ok {
			m.MarkStatus(false)
		}
	}
	return ts.render(segs)
}

// flush renders text still held by the extractor at end of stream.
func (ts *TypingSession) flush() error {
	ts.mu.Lock()
	if ts.mode == ModeStatus {
		ts.acc.Reset()
		ts.mu.Unlock()
		return nil
	}
	segs := ts.acc.Flush()
	ts.mu.Unlock()

	if len(segs) > 0 {
		ts.reveal()
	}
	return ts.render(segs)
}

// typeMessage shows a notice (usually an error) after whatever is on screen.
func (ts *TypingSession) typeMessage(text string) error {
	if !ts.live() {
		return ts.ctx.Err()
	}
	ts.reveal()

	ts.mu.Lock()
	wasStatus := ts.mode == ModeStatus
	ts.mode = ModeContent
	ts.acc.Reset()
	ts.mu.Unlock()

	if wasStatus {
		ts.surface.Clear()
		if m, ok := ts.surface.(statusMarker); ok {
			m.MarkStatus(false)
		}
	} else if ts.wrote {
		text = "\n\n" + text
	}
	return ts.animator.Type(ts.ctx, text, ts.surface)
}

func (ts *TypingSession) render(segs []blocks.Segment) error {
	for _, seg := range segs {
		if !ts.live() {
			return ts.ctx.Err()
		}
		ts.wrote = true
		switch seg.Kind {
		case blocks.Raw:
			ts.surface.AppendRawBlock(seg.Text)
			if ts.onBlock != nil {
				ts.onBlock()
			}
		default:
			if err := ts.animator.Type(ts.ctx, seg.Text, ts.surface); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ts *TypingSession) setActive(active bool) {
	ts.surface.SetActive(active)
}
