// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the tripplan TUI.
//
// Colors are lipgloss.AdaptiveColor values. NewTheme decides light or dark
// from the configured theme name, falling back to termenv's background
// detection for "auto".
//
// # Usage
//
//	theme := styles.NewTheme(cfg.UI.Theme)
//	theme.SetSize(width, height)
//	line := theme.RenderNotice(styles.NoticeSuccess, "Plan saved")
package styles
