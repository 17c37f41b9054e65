// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"strings"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Planner"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// PartKind distinguishes narrative text from structured blocks.
type PartKind int

const (
	PartText PartKind = iota
	PartBlock
)

// Part is a contiguous piece of a message.
type Part struct {
	Kind PartKind
	Text string
}

// Message is an immutable snapshot of a transcript entry.
type Message struct {
	ID        string
	Role      Role
	Timestamp time.Time
	Parts     []Part

	// Visible is false for an assistant turn that has produced nothing yet.
	Visible bool

	// Active is set while the turn is still streaming.
	Active bool

	// Status is set while the message shows a transient status line
	// instead of content.
	Status bool
}

// PlainText joins all parts.
func (m Message) PlainText() string {
	var b strings.Builder
	for _, p := range m.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// IsEmpty reports whether the message has no content.
func (m Message) IsEmpty() bool {
	for _, p := range m.Parts {
		if p.Text != "" {
			return false
		}
	}
	return true
}

// entry is the mutable form of Message, owned by a Transcript.
type entry struct {
	id        string
	role      Role
	timestamp time.Time
	parts     []Part
	text      *strings.Builder
	visible   bool
	active    bool
	status    bool
	detached  bool
}

func (e *entry) appendText(s string) {
	if e.text == nil {
		e.text = &strings.Builder{}
	}
	e.text.WriteString(s)
}

// sealText moves the text being built into parts.
func (e *entry) sealText() {
	if e.text != nil && e.text.Len() > 0 {
		e.parts = append(e.parts, Part{Kind: PartText, Text: e.text.String()})
	}
	e.text = nil
}

func (e *entry) snapshot() Message {
	parts := make([]Part, 0, len(e.parts)+1)
	parts = append(parts, e.parts...)
	if e.text != nil && e.text.Len() > 0 {
		parts = append(parts, Part{Kind: PartText, Text: e.text.String()})
	}
	return Message{
		ID:        e.id,
		Role:      e.role,
		Timestamp: e.timestamp,
		Parts:     parts,
		Visible:   e.visible,
		Active:    e.active,
		Status:    e.status,
	}
}
