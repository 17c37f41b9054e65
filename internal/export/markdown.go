// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/tripplan-tui/internal/itinerary"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports itineraries to Markdown with every day expanded.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts an itinerary to Markdown.
func (e *MarkdownExporter) Export(doc *itinerary.Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}

	var sb strings.Builder
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(title(doc)))
		fmt.Fprintf(&sb, "destination: %s\n", escapeYAML(doc.Destination))
		if doc.StartDate != "" {
			fmt.Fprintf(&sb, "start_date: %s\n", escapeYAML(doc.StartDate))
		}
		if doc.Status != "" {
			fmt.Fprintf(&sb, "status: %s\n", escapeYAML(doc.Status))
		}
		fmt.Fprintf(&sb, "exported: %s\n", escapeYAML(formatTimestamp(e.options.now())))
		sb.WriteString("---\n\n")
	}
	sb.WriteString(itinerary.DocumentMarkdown(doc))
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// escapeYAML quotes a front matter value when it would not parse as a
// plain scalar.
func escapeYAML(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, ":#{}[],&*?|<>=!%@`'\"\n") || strings.TrimSpace(s) != s {
		return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s) + `"`
	}
	return s
}
