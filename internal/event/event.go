// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package event

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jeranaias/tripplan-tui/internal/itinerary"
	"github.com/jeranaias/tripplan-tui/internal/util"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// Graph node names the backend reports while it works.
const (
	NodeGenerateItinerary  = "generate_itinerary"
	NodeModifyPlan         = "modify_plan"
	NodeCollectPreferences = "collect_preferences"
)

// MessageTypeAI marks a message authored by the assistant.
const MessageTypeAI = "ai"

// DoneSentinel is the payload of the final frame.
const DoneSentinel = "[DONE]"

// StreamEvent is one decoded payload. Every field is optional.
type StreamEvent struct {
	Status    string          `json:"status,omitempty"`
	Node      string          `json:"node,omitempty"`
	Message   *Message        `json:"message,omitempty"`
	Itinerary json.RawMessage `json:"itinerary,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Message is the assistant's (or user's) utterance attached to an update.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// UnmarshalJSON accepts an object, and treats a bare string or null as an
// empty message. The backend sends "message": "" for nodes with nothing
// to say.
func (m *Message) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*m = Message{}
		return nil
	}
	type plain Message
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Message(p)
	return nil
}

// IsAI reports whether the message is assistant output.
func (m *Message) IsAI() bool {
	return m != nil && m.Type == MessageTypeAI
}

// HasItinerary reports whether the event carries a non-null itinerary.
func (e *StreamEvent) HasItinerary() bool {
	trimmed := bytes.TrimSpace(e.Itinerary)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// ItineraryJSON returns the itinerary document bytes. The backend
// serializes the document to a string before embedding it; an inline
// object is accepted too.
func (e *StreamEvent) ItineraryJSON() ([]byte, error) {
	trimmed := bytes.TrimSpace(e.Itinerary)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return trimmed, nil
}

// =============================================================================
// ACTIONS
// =============================================================================

// Kind identifies an action.
type Kind int

const (
	KindStatusUpdate Kind = iota + 1
	KindItineraryLoadingStarted
	KindContentDelta
	KindItineraryLoadingEnded
	KindItineraryReady
	KindStreamEnd
)

// String returns a readable name for logs.
func (k Kind) String() string {
	switch k {
	case KindStatusUpdate:
		return "status_update"
	case KindItineraryLoadingStarted:
		return "itinerary_loading_started"
	case KindContentDelta:
		return "content_delta"
	case KindItineraryLoadingEnded:
		return "itinerary_loading_ended"
	case KindItineraryReady:
		return "itinerary_ready"
	case KindStreamEnd:
		return "stream_end"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// EndReason says why a stream ended.
type EndReason int

const (
	EndNormal EndReason = iota
	EndError
)

// Action is one thing the presentation layer must do.
type Action struct {
	Kind Kind

	// Text is the status line, content delta, or backend error message.
	Text string

	// Document is set for KindItineraryReady.
	Document *itinerary.Document

	// Reason is set for KindStreamEnd.
	Reason EndReason
}

// IsTerminal reports whether the action ends the stream.
func (a Action) IsTerminal() bool {
	return a.Kind == KindStreamEnd
}

// =============================================================================
// ERRORS
// =============================================================================

// maxPayloadInError keeps log lines readable.
const maxPayloadInError = 200

// DecodeError reports a payload (or embedded itinerary) that could not be
// decoded. It is recoverable: the caller logs it and moves on.
type DecodeError struct {
	Payload string
	Err     error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode stream event %q: %v", util.TruncateRunes(e.Payload, maxPayloadInError), e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
