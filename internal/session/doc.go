// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives one chat turn at a time against the planning
// backend.
//
// A turn moves through Idle -> Sending -> Streaming and ends Completed or
// Failed. While streaming, a reader goroutine decodes frames and the
// controller renders them strictly in order: status lines, typed
// narrative, structured blocks and itinerary updates. Typed text is
// revealed by a typewriter and the next frame is not rendered until the
// previous one is fully shown.
//
// Submitting a new message cancels the turn in progress. The cancelled
// turn's typewriter stops, its stream is closed, and it never writes to
// the transcript again.
//
// # Key Types
//
//   - Controller: the per-conversation state machine
//   - TypingSession: rendering state of the active turn
//   - TurnError: why a turn failed
//
// # Usage
//
//	ctrl := session.NewController(client, tr, panel, session.Options{
//	    UserID: "1",
//	    PlanID: "1",
//	})
//	if err := ctrl.Submit(ctx, "Plan three days in Tokyo"); err != nil {
//	    log.Printf("turn failed: %v", err)
//	}
package session
