// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package event

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/jeranaias/tripplan-tui/internal/itinerary"
)

// Interpreter maps payloads to actions. The node sets are configurable so a
// backend with different graph node names can be supported without code
// changes.
type Interpreter struct {
	// LoadingNodes start the itinerary loading indicator.
	LoadingNodes []string

	// StatusNodes route AI messages to the status line instead of content.
	StatusNodes []string
}

// NewInterpreter returns an interpreter with the backend's node names.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		LoadingNodes: []string{NodeGenerateItinerary, NodeModifyPlan},
		StatusNodes:  []string{NodeCollectPreferences, NodeModifyPlan},
	}
}

// Interpret converts one payload into actions.
//
// On a malformed payload it returns no actions and a *DecodeError. When
// only the embedded itinerary is malformed, the other actions are still
// returned (loading is ended, the error branch still fires) together
// with the *DecodeError.
func (in *Interpreter) Interpret(payload string) ([]Action, error) {
	if strings.TrimSpace(payload) == DoneSentinel {
		return []Action{{Kind: KindStreamEnd, Reason: EndNormal}}, nil
	}

	var ev StreamEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return nil, &DecodeError{Payload: payload, Err: err}
	}

	var (
		actions []Action
		decErr  error
	)

	if ev.Status != "" {
		actions = append(actions, Action{Kind: KindStatusUpdate, Text: ev.Status})
	}

	if ev.Node != "" && slices.Contains(in.LoadingNodes, ev.Node) {
		actions = append(actions, Action{Kind: KindItineraryLoadingStarted})
	}

	if ev.Message.IsAI() {
		kind := KindContentDelta
		if slices.Contains(in.StatusNodes, ev.Node) {
			kind = KindStatusUpdate
		}
		actions = append(actions, Action{Kind: kind, Text: ev.Message.Content})
	}

	if ev.HasItinerary() {
		actions = append(actions, Action{Kind: KindItineraryLoadingEnded})
		doc, err := parseItinerary(&ev)
		if err != nil {
			decErr = &DecodeError{Payload: string(ev.Itinerary), Err: err}
		} else {
			actions = append(actions, Action{Kind: KindItineraryReady, Document: doc})
		}
	}

	if ev.Error != "" {
		actions = append(actions, Action{Kind: KindStreamEnd, Reason: EndError, Text: ev.Error})
	}

	return actions, decErr
}

func parseItinerary(ev *StreamEvent) (*itinerary.Document, error) {
	data, err := ev.ItineraryJSON()
	if err != nil {
		return nil, err
	}
	return itinerary.Parse(data)
}
