// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jeranaias/tripplan-tui/internal/itinerary"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports itineraries to a standalone HTML page with embedded CSS.
type HTMLExporter struct {
	options  *Options
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{
		options:  opts,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:   bluemonday.UGCPolicy(),
	}
}

// Export converts an itinerary to HTML.
func (e *HTMLExporter) Export(doc *itinerary.Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}

	var body bytes.Buffer
	if err := e.markdown.Convert([]byte(itinerary.DocumentMarkdown(doc)), &body); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	// Plan text is untrusted.
	content := e.policy.SanitizeBytes(body.Bytes())

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(title(doc)))
	sb.WriteString("    <meta name=\"generator\" content=\"tripplan\">\n")
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", theme)
	sb.WriteString("    <div class=\"container\">\n")
	sb.Write(content)
	if e.options.IncludeMetadata {
		fmt.Fprintf(&sb, "        <footer class=\"footer\">Exported %s</footer>\n",
			html.EscapeString(formatTimestamp(e.options.now())))
	}
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

const css = `    <style>
        :root { --accent: #7c6cf2; }
        body { margin: 0; font-family: -apple-system, "Segoe UI", Roboto, sans-serif; line-height: 1.6; }
        .dark-theme { background: #1e1e2e; color: #cdd6f4; }
        .light-theme { background: #ffffff; color: #1e1e2e; }
        .container { max-width: 820px; margin: 0 auto; padding: 2rem 1.5rem; }
        h2 { color: var(--accent); border-bottom: 2px solid var(--accent); padding-bottom: .3rem; }
        h3 { margin-top: 2rem; }
        h4 { margin-bottom: .3rem; opacity: .8; }
        hr { border: none; border-top: 1px solid #585b70; }
        a { color: var(--accent); }
        .footer { margin-top: 3rem; font-size: .85rem; opacity: .6; }
    </style>
`
