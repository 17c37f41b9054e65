// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted in the config.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeAuto  = "auto"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Name is the configured theme ("dark", "light" or "auto").
	Name string

	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderMeta  lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	UserLabel      lipgloss.Style
	UserMessage    lipgloss.Style
	PlannerLabel   lipgloss.Style
	PlannerMessage lipgloss.Style
	StatusLine     lipgloss.Style
	Timestamp      lipgloss.Style
	Cursor         lipgloss.Style
	Block          lipgloss.Style
	BlockBadge     lipgloss.Style

	// ==========================================================================
	// ITINERARY PANEL
	// ==========================================================================

	Panel        lipgloss.Style
	PanelFocused lipgloss.Style
	PanelTitle   lipgloss.Style
	PanelEmpty   lipgloss.Style
	Loading      lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS BAR
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	StatusBar      lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style

	// ==========================================================================
	// OVERLAYS AND NOTICES
	// ==========================================================================

	ConfirmBox   lipgloss.Style
	ConfirmTitle lipgloss.Style
	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	InfoStyle    lipgloss.Style
}

// NewTheme creates a theme. name is "dark", "light" or "auto"; anything
// else is treated as "auto".
func NewTheme(name string) *Theme {
	colorProfile := termenv.ColorProfile()

	name = strings.ToLower(strings.TrimSpace(name))
	var isDark bool
	switch name {
	case ThemeDark:
		isDark = true
	case ThemeLight:
		isDark = false
	default:
		name = ThemeAuto
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		Name:         name,
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// GlamourStyle resolves the "auto" panel style against the theme.
func (t *Theme) GlamourStyle(configured string) string {
	if configured == "" || configured == ThemeAuto {
		if t.IsDark {
			return ThemeDark
		}
		return ThemeLight
	}
	return configured
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextSecondary)

	// Transcript
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(UserBubbleBorder)

	t.UserMessage = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(UserBubbleBorder).
		PaddingLeft(1)

	t.PlannerLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.PlannerMessage = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(AssistantBubbleBorder).
		PaddingLeft(1)

	t.StatusLine = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Cursor = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.Block = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(BlockBorder).
		Padding(0, 1)

	t.BlockBadge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(BlockBorder).
		Padding(0, 1)

	// Itinerary panel
	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay)

	t.PanelFocused = t.Panel.
		BorderForeground(Purple)

	t.PanelTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		Padding(0, 1)

	t.PanelEmpty = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		Padding(1, 2)

	t.Loading = lipgloss.NewStyle().
		Foreground(Amber).
		Padding(0, 1)

	// Input and status bar
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Overlays and notices
	t.ConfirmBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Amber).
		Padding(1, 3)

	t.ConfirmTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Amber)

	t.SuccessStyle = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.ErrorStyle = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.WarningStyle = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.InfoStyle = lipgloss.NewStyle().Foreground(Cyan)
}

// RenderNotice renders a one-line notice with an ASCII indicator.
func (t *Theme) RenderNotice(kind NoticeKind, message string) string {
	switch kind {
	case NoticeSuccess:
		return t.SuccessStyle.Render(StatusIndicators.Success + " " + message)
	case NoticeError:
		return t.ErrorStyle.Render(StatusIndicators.Error + " " + message)
	case NoticeWarning:
		return t.WarningStyle.Render(StatusIndicators.Warning + " " + message)
	default:
		return t.InfoStyle.Render(StatusIndicators.Info + " " + message)
	}
}

// NoticeKind selects the notice style.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

// =============================================================================
// LAYOUT
// =============================================================================

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns: panel replaces the transcript when focused
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
