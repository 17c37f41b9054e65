// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package surface defines what the streaming pipeline needs from whatever
// displays an assistant turn, and an in-memory implementation of it.
package surface

import (
	"strings"
	"sync"
)

// Surface is the display target of one assistant turn.
type Surface interface {
	// AppendText appends narrative text to the end of the turn.
	AppendText(s string)

	// AppendRawBlock inserts a structured block verbatim.
	AppendRawBlock(block string)

	// Clear removes everything shown so far.
	Clear()

	// SetVisible shows or hides the turn.
	SetVisible(visible bool)

	// SetActive toggles the "still streaming" indicator.
	SetActive(active bool)
}

// Op names a recorded operation.
type Op string

const (
	OpText    Op = "text"
	OpBlock   Op = "block"
	OpClear   Op = "clear"
	OpVisible Op = "visible"
	OpHidden  Op = "hidden"
	OpActive  Op = "active"
	OpIdle    Op = "idle"
)

// Call is one recorded operation.
type Call struct {
	Op   Op
	Text string
}

// Recorder is a Surface that remembers every call and the resulting
// content. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	calls   []Call
	content strings.Builder
	blocks  []string
	visible bool
	active  bool
}

// AppendText implements Surface.
func (r *Recorder) AppendText(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: OpText, Text: s})
	r.content.WriteString(s)
}

// AppendRawBlock implements Surface.
func (r *Recorder) AppendRawBlock(block string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: OpBlock, Text: block})
	r.blocks = append(r.blocks, block)
	r.content.WriteString(block)
}

// Clear implements Surface.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: OpClear})
	r.content.Reset()
	r.blocks = nil
}

// SetVisible implements Surface.
func (r *Recorder) SetVisible(visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op := OpHidden
	if visible {
		op = OpVisible
	}
	r.calls = append(r.calls, Call{Op: op})
	r.visible = visible
}

// SetActive implements Surface.
func (r *Recorder) SetActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op := OpIdle
	if active {
		op = OpActive
	}
	r.calls = append(r.calls, Call{Op: op})
	r.active = active
}

// Content returns the text and blocks currently shown, in order.
func (r *Recorder) Content() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.content.String()
}

// Blocks returns the raw blocks currently shown.
func (r *Recorder) Blocks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.blocks...)
}

// Calls returns every recorded call.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Visible reports the last SetVisible value.
func (r *Recorder) Visible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

// Active reports the last SetActive value.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}
