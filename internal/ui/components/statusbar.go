// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/tripplan-tui/internal/ui/styles"
	"github.com/jeranaias/tripplan-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Hint is a key binding shown on the right of the status bar.
type Hint struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line of the chat screen.
type StatusBar struct {
	Width int

	// State is the turn state label ("ready", "streaming", ...).
	State string

	// Spinner is drawn before State while a turn is busy.
	Spinner string

	// Notice is a transient message after the state.
	Notice     string
	NoticeKind styles.NoticeKind

	Hints []Hint
}

// Render draws the bar. Hints are dropped from the end until the bar fits.
func (s StatusBar) Render(theme *styles.Theme) string {
	if s.Width <= 0 {
		return ""
	}
	inner := s.Width - theme.StatusBar.GetHorizontalPadding()

	left := s.State
	if s.Spinner != "" {
		left = s.Spinner + " " + left
	}
	if s.Notice != "" {
		left += "  " + theme.RenderNotice(s.NoticeKind, s.Notice)
	}

	hints := s.Hints
	var right string
	for {
		right = renderHints(theme, hints)
		if len(hints) == 0 || lipgloss.Width(left)+lipgloss.Width(right)+2 <= inner {
			break
		}
		hints = hints[:len(hints)-1]
	}

	if lipgloss.Width(left) > inner {
		left = util.TruncateWidth(s.plainLeft(), inner)
		right = ""
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}

// plainLeft is the left side without styling, used when truncating.
func (s StatusBar) plainLeft() string {
	left := s.State
	if s.Notice != "" {
		left += "  " + s.Notice
	}
	return left
}

func renderHints(theme *styles.Theme, hints []Hint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, theme.ShortcutKey.Render(h.Key)+" "+theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
