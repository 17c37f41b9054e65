// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen planner TUI.
//
// The screen is split into the chat transcript on the left and the
// itinerary panel on the right, with the input line and a status bar
// underneath. Turns run on the session controller in a background
// command; the model polls the transcript and panel version counters on a
// short tick and redraws only when something changed.
//
// # Key Bindings
//
//   - Enter: send the message (or toggle the selected day when the panel has focus)
//   - Tab: move focus between the input and the itinerary panel
//   - Esc: stop the turn in flight
//   - Ctrl+S: save the itinerary as planned (asks first)
//   - Ctrl+E: export the itinerary to a file
//   - Ctrl+B: show structured blocks as text or as highlighted HTML
//   - PgUp/PgDn: scroll the transcript
//   - ?: toggle help
//   - Ctrl+C: quit
package chat
