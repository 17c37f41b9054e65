// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/jeranaias/tripplan-tui/internal/ui/components"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the planner screen.
type KeyMap struct {
	Submit      key.Binding
	Cancel      key.Binding
	Quit        key.Binding
	Focus       key.Binding
	PanelUp     key.Binding
	PanelDown   key.Binding
	ToggleDay   key.Binding
	Save        key.Binding
	Export      key.Binding
	ToggleBlock key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Help        key.Binding
	Confirm     key.Binding
	Decline     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "stop"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "panel"),
		),
		PanelUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous day"),
		),
		PanelDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next day"),
		),
		ToggleDay: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("Enter", "open/close day"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "save plan"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "export plan"),
		),
		ToggleBlock: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("C-b", "html/text"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		Decline: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Focus, k.Save, k.Cancel, k.Help, k.Quit}
}

// FullHelp returns all bindings grouped for the help overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Cancel, k.Save, k.Export, k.Quit},
		{k.Focus, k.PanelUp, k.PanelDown, k.ToggleDay},
		{k.PageUp, k.PageDown, k.ToggleBlock, k.Help},
	}
}

// hints converts bindings to status bar hints.
func hints(bindings []key.Binding) []components.Hint {
	out := make([]components.Hint, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, components.Hint{Key: h.Key, Desc: h.Desc})
	}
	return out
}
