// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/tripplan-tui/internal/config"
)

// =============================================================================
// TURN MESSAGES
// =============================================================================

// TurnDoneMsg is sent when a Submit call returns.
type TurnDoneMsg struct {
	Err error
}

// redrawTickMsg drives the version poll.
type redrawTickMsg time.Time

// =============================================================================
// PLAN MESSAGES
// =============================================================================

// CommitResultMsg is sent when a save request finishes.
type CommitResultMsg struct {
	Err error
}

// ExportResultMsg is sent when an export finishes.
type ExportResultMsg struct {
	Path string
	Err  error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a config file that changed on disk.
// Err is set when the new file could not be loaded.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// =============================================================================
// NOTICE MESSAGES
// =============================================================================

// noticeExpiredMsg clears the notice with the given sequence number.
type noticeExpiredMsg struct {
	seq int
}
