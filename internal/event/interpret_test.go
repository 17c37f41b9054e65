// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package event

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tripplan-tui/internal/itinerary"
)

func kinds(actions []Action) []Kind {
	out := make([]Kind, len(actions))
	for i, a := range actions {
		out[i] = a.Kind
	}
	return out
}

const miniItinerary = `{"departure_location":"Taipei","destination":"Tokyo","duration":"3 days","start_date":"2025-04-01","features":"food","days":[{"daily_theme":"Arrival","segments":[]}]}`

func stringified(t *testing.T, doc string) string {
	t.Helper()
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(b)
}

// =============================================================================
// DISPATCH TESTS
// =============================================================================

func TestInterpret_Done(t *testing.T) {
	actions, err := NewInterpreter().Interpret("[DONE]")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, KindStreamEnd, actions[0].Kind)
	assert.Equal(t, EndNormal, actions[0].Reason)
	assert.True(t, actions[0].IsTerminal())
}

func TestInterpret_Branches(t *testing.T) {
	in := NewInterpreter()
	tests := []struct {
		name    string
		payload string
		want    []Kind
		text    string
	}{
		{
			name:    "status only",
			payload: `{"status":"AI is thinking..."}`,
			want:    []Kind{KindStatusUpdate},
			text:    "AI is thinking...",
		},
		{
			name:    "plain ai content",
			payload: `{"node":"chat","message":{"type":"ai","content":"Hello"}}`,
			want:    []Kind{KindContentDelta},
			text:    "Hello",
		},
		{
			name:    "collect preferences routes to status",
			payload: `{"node":"collect_preferences","message":{"type":"ai","content":"Where to?"}}`,
			want:    []Kind{KindStatusUpdate},
			text:    "Where to?",
		},
		{
			name:    "modify plan starts loading and routes to status",
			payload: `{"node":"modify_plan","message":{"type":"ai","content":"Updating"}}`,
			want:    []Kind{KindItineraryLoadingStarted, KindStatusUpdate},
		},
		{
			name:    "generate itinerary starts loading",
			payload: `{"node":"generate_itinerary","message":"","itinerary":null}`,
			want:    []Kind{KindItineraryLoadingStarted},
		},
		{
			name:    "human message ignored",
			payload: `{"node":"chat","message":{"type":"human","content":"hi"}}`,
			want:    nil,
		},
		{
			name:    "error ends stream",
			payload: `{"error":"boom"}`,
			want:    []Kind{KindStreamEnd},
			text:    "boom",
		},
		{
			name:    "empty object",
			payload: `{}`,
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions, err := in.Interpret(tt.payload)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, actions)
				return
			}
			assert.Equal(t, tt.want, kinds(actions))
			if tt.text != "" {
				assert.Equal(t, tt.text, actions[len(actions)-1].Text)
			}
		})
	}
}

func TestInterpret_ErrorReason(t *testing.T) {
	actions, err := NewInterpreter().Interpret(`{"error":"backend exploded"}`)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, EndError, actions[0].Reason)
}

func TestInterpret_AllBranchesInOrder(t *testing.T) {
	payload := `{"status":"s","node":"generate_itinerary","message":{"type":"ai","content":"c"},"itinerary":` +
		stringified(t, miniItinerary) + `,"error":"e"}`

	actions, err := NewInterpreter().Interpret(payload)
	require.NoError(t, err)
	assert.Equal(t, []Kind{
		KindStatusUpdate,
		KindItineraryLoadingStarted,
		KindContentDelta,
		KindItineraryLoadingEnded,
		KindItineraryReady,
		KindStreamEnd,
	}, kinds(actions))
}

func TestInterpret_ItineraryAsString(t *testing.T) {
	payload := `{"node":"generate_itinerary","message":"","itinerary":` + stringified(t, miniItinerary) + `}`
	actions, err := NewInterpreter().Interpret(payload)
	require.NoError(t, err)
	require.Equal(t, []Kind{KindItineraryLoadingStarted, KindItineraryLoadingEnded, KindItineraryReady}, kinds(actions))

	doc := actions[2].Document
	require.NotNil(t, doc)
	assert.Equal(t, "Tokyo", doc.Destination)
	require.Len(t, doc.Days, 1)
}

func TestInterpret_ItineraryAsObject(t *testing.T) {
	actions, err := NewInterpreter().Interpret(`{"itinerary":` + miniItinerary + `}`)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "Taipei", actions[1].Document.DepartureLocation)
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestInterpret_MalformedPayload(t *testing.T) {
	actions, err := NewInterpreter().Interpret(`{"status": "unterminated`)
	assert.Empty(t, actions)

	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Contains(t, decErr.Payload, "unterminated")
}

func TestInterpret_MalformedItineraryStillEndsLoading(t *testing.T) {
	actions, err := NewInterpreter().Interpret(`{"itinerary":"{not json","error":"also failed"}`)
	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.ErrorIs(t, err, itinerary.ErrInvalidDocument)
	assert.Equal(t, []Kind{KindItineraryLoadingEnded, KindStreamEnd}, kinds(actions))
}

func TestInterpret_CustomNodeSets(t *testing.T) {
	in := &Interpreter{LoadingNodes: []string{"plan"}, StatusNodes: []string{"ask"}}

	actions, err := in.Interpret(`{"node":"plan"}`)
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindItineraryLoadingStarted}, kinds(actions))

	actions, err = in.Interpret(`{"node":"generate_itinerary","message":{"type":"ai","content":"x"}}`)
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindContentDelta}, kinds(actions))
}

func TestMessage_UnmarshalTolerance(t *testing.T) {
	tests := []struct {
		raw  string
		isAI bool
	}{
		{`{"message":{"type":"ai","content":"x"}}`, true},
		{`{"message":""}`, false},
		{`{"message":null}`, false},
		{`{"message":"plain"}`, false},
	}
	for _, tt := range tests {
		var ev StreamEvent
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &ev), tt.raw)
		assert.Equal(t, tt.isAI, ev.Message.IsAI(), tt.raw)
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "content_delta", KindContentDelta.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
