// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"html"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/muesli/termenv"

	"github.com/jeranaias/tripplan-tui/internal/ui/styles"
)

// =============================================================================
// HTML BLOCK RENDERER
// =============================================================================

// BlockMode selects how a structured block is shown.
type BlockMode int

const (
	// BlockModeText shows the block as readable text.
	BlockModeText BlockMode = iota

	// BlockModeSource shows the highlighted HTML source.
	BlockModeSource
)

// HTMLBlock is a structured block emitted by the planner.
type HTMLBlock struct {
	HTML string
	Mode BlockMode
}

// NewHTMLBlock creates a block shown as text.
func NewHTMLBlock(content string) HTMLBlock {
	return HTMLBlock{HTML: content}
}

// Render renders the block inside a bordered frame no wider than width.
func (b HTMLBlock) Render(theme *styles.Theme, width int) string {
	inner := width - 4
	if inner < 20 {
		inner = 20
	}

	var body, badge string
	if b.Mode == BlockModeSource {
		body = HighlightHTML(b.HTML, theme)
		badge = "html"
	} else {
		body = BlockText(b.HTML)
		badge = "plan"
	}

	header := theme.BlockBadge.Render(badge)
	return theme.Block.
		MaxWidth(width).
		Width(inner).
		Render(header + "\n" + body)
}

// =============================================================================
// TEXT RENDERING (bluemonday)
// =============================================================================

var (
	blockBreak  = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|tr|li|h[1-6]|table|thead|tbody|ul|ol)>`)
	cellBreak   = regexp.MustCompile(`(?i)</t[dh]>\s*<t[dh][^>]*>`)
	spaceRun    = regexp.MustCompile(`[ \t\x{00A0}]+`)
	stripPolicy = bluemonday.StrictPolicy()
)

// BlockText reduces an HTML fragment to plain lines: block-level elements
// end lines, adjacent table cells are joined with " | ", and all markup
// is removed.
func BlockText(fragment string) string {
	s := cellBreak.ReplaceAllString(fragment, " | ")
	s = blockBreak.ReplaceAllString(s, "\n")
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// HighlightHTML returns the fragment with ANSI syntax highlighting. The
// input is returned unchanged when highlighting fails.
func HighlightHTML(code string, theme *styles.Theme) string {
	lexer := lexers.Get("html")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "monokai"
	if theme != nil && !theme.IsDark {
		styleName = "github"
	}
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatterName := "terminal256"
	if theme != nil && theme.ColorProfile == termenv.TrueColor {
		formatterName = "terminal16m"
	}
	formatter := formatters.Get(formatterName)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, strings.TrimSpace(code))
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
