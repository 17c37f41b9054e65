// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI pieces for the tripplan TUI.

# Components

HTMLBlock (block.go) - Structured blocks from the planner, either as
syntax-highlighted HTML source (Chroma) or reduced to readable text
(bluemonday). The line-mode chat client uses BlockText directly.

StatusBar (statusbar.go) - Bottom bar with turn state, notice and key hints.

All components take a *styles.Theme:

	theme := styles.NewTheme("auto")
	block := components.NewHTMLBlock(html)
	view := block.Render(theme, 80)
*/
package components
