// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package event interprets decoded stream payloads from the planning
// backend and turns each one into an ordered list of UI actions.
//
// A single payload may carry several fields at once (a node name, an AI
// message and a finished itinerary, for example). Every applicable branch
// fires, always in the same order:
//
//  1. status                       -> StatusUpdate
//  2. node in the loading set      -> ItineraryLoadingStarted
//  3. message.type == "ai"         -> StatusUpdate or ContentDelta
//  4. itinerary                    -> ItineraryLoadingEnded, ItineraryReady
//  5. error                        -> StreamEnd(error)
//
// The "[DONE]" sentinel maps to StreamEnd(normal). Payloads that are not
// valid JSON produce a *DecodeError; the stream continues with the next
// frame.
package event
