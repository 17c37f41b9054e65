// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package typewriter reveals text one character at a time at a fixed pace.
//
// A run belongs to a context: cancelling the context stops the run before
// the next character, and no goroutine is left behind. Runs on the same
// sink must be serialized by the caller; Type blocks until the run is
// finished, which is the simplest way to do that.
package typewriter
