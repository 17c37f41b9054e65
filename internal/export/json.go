// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"

	"github.com/jeranaias/tripplan-tui/internal/itinerary"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports the document as the planner produced it. Fields
// the client does not model are kept, so the file can be sent back to
// the backend unchanged.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter. Metadata and theme options
// do not apply to JSON.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts an itinerary to indented JSON.
func (e *JSONExporter) Export(doc *itinerary.Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}

	raw := []byte(doc.Raw())
	if len(raw) == 0 {
		return json.MarshalIndent(doc, "", "  ")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
