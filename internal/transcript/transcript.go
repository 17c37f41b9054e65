// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/tripplan-tui/internal/surface"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the ordered list of chat messages. It is safe for
// concurrent use.
type Transcript struct {
	mu       sync.RWMutex
	entries  []*entry
	version  uint64
	onChange func()
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// OnChange registers fn to be called after every modification. fn runs
// without the transcript lock held.
func (t *Transcript) OnChange(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// mutate applies fn under the write lock, bumps the version and notifies.
func (t *Transcript) mutate(fn func()) {
	t.mu.Lock()
	fn()
	t.version++
	notify := t.onChange
	t.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// AppendUserMessage adds a user message with the given text.
func (t *Transcript) AppendUserMessage(text string) {
	t.mutate(func() {
		t.entries = append(t.entries, &entry{
			id:        uuid.NewString(),
			role:      RoleUser,
			timestamp: time.Now(),
			parts:     []Part{{Kind: PartText, Text: text}},
			visible:   true,
		})
	})
}

// StartAssistantTurn adds a hidden, empty assistant message and returns
// the slot that writes into it.
func (t *Transcript) StartAssistantTurn() surface.Surface {
	return t.NewSlot()
}

// NewSlot is StartAssistantTurn with the concrete return type.
func (t *Transcript) NewSlot() *Slot {
	e := &entry{
		id:        uuid.NewString(),
		role:      RoleAssistant,
		timestamp: time.Now(),
	}
	t.mutate(func() {
		t.entries = append(t.entries, e)
	})
	return &Slot{t: t, e: e}
}

// Snapshot returns a copy of every message.
func (t *Transcript) Snapshot() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.snapshot()
	}
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Version increases on every modification.
func (t *Transcript) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// Clear removes every message. Outstanding slots are detached.
func (t *Transcript) Clear() {
	t.mutate(func() {
		for _, e := range t.entries {
			e.detached = true
		}
		t.entries = nil
	})
}

// =============================================================================
// SLOT
// =============================================================================

// Slot is the writable assistant message of one turn. It implements
// surface.Surface.
type Slot struct {
	t *Transcript
	e *entry
}

var _ surface.Surface = (*Slot)(nil)

// ID returns the message ID.
func (s *Slot) ID() string {
	return s.e.id
}

func (s *Slot) write(fn func(e *entry)) {
	s.t.mutate(func() {
		if s.e.detached {
			return
		}
		fn(s.e)
	})
}

// AppendText appends narrative text to the tail of the message.
func (s *Slot) AppendText(text string) {
	if text == "" {
		return
	}
	s.write(func(e *entry) {
		e.appendText(text)
	})
}

// AppendRawBlock inserts a structured block as its own part.
func (s *Slot) AppendRawBlock(block string) {
	s.write(func(e *entry) {
		e.sealText()
		e.parts = append(e.parts, Part{Kind: PartBlock, Text: block})
	})
}

// Clear removes the message content.
func (s *Slot) Clear() {
	s.write(func(e *entry) {
		e.parts = nil
		e.text = nil
		e.status = false
	})
}

// SetVisible shows or hides the message.
func (s *Slot) SetVisible(visible bool) {
	s.write(func(e *entry) {
		e.visible = visible
	})
}

// SetActive toggles the streaming indicator.
func (s *Slot) SetActive(active bool) {
	s.write(func(e *entry) {
		e.active = active
	})
}

// RevealIfHidden makes the message visible.
func (s *Slot) RevealIfHidden() {
	s.SetVisible(true)
}

// SetStatus replaces the content with a transient status line.
func (s *Slot) SetStatus(text string) {
	s.write(func(e *entry) {
		e.parts = nil
		e.text = nil
		e.status = true
		e.visible = true
		e.appendText(text)
	})
}

// ClearStatus removes a status line set by SetStatus, if any.
func (s *Slot) ClearStatus() {
	s.write(func(e *entry) {
		if e.status {
			e.parts = nil
			e.text = nil
			e.status = false
		}
	})
}

// MarkStatus flags the current content as a status line without changing
// it. Used when the status text is revealed progressively.
func (s *Slot) MarkStatus(status bool) {
	s.write(func(e *entry) {
		e.status = status
	})
}

// Detach stops the slot from changing the transcript. Later writes are
// ignored.
func (s *Slot) Detach() {
	s.t.mu.Lock()
	s.e.detached = true
	s.t.mu.Unlock()
}

// Message returns a snapshot of the slot's message.
func (s *Slot) Message() Message {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	return s.e.snapshot()
}
