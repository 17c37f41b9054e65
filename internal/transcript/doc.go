// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript is the headless model of the chat transcript.
//
// User messages are appended whole. Each assistant turn gets a Slot that
// starts hidden and empty; the streaming pipeline writes into it through
// the surface.Surface interface while views read immutable snapshots.
//
// # Key Types
//
//   - Transcript: ordered messages plus a change counter
//   - Slot: the writable assistant message of one turn
//   - Scroller / Follow: keep the view pinned to the bottom only when the
//     user has not scrolled away
package transcript
