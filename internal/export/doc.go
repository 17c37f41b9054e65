// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes an itinerary to a file a user can keep or share.
//
// # Formats
//
//   - Markdown: every day expanded, with an optional front matter header
//   - JSON: the document exactly as the planner produced it, indented
//   - HTML: a standalone page with embedded CSS
//
// # Usage
//
//	opts := export.DefaultOptions()
//	opts.OutputDir = "~/trips"
//	path, err := export.ToFile(doc, export.NewMarkdownExporter(opts), opts)
//
// Files are named itinerary_<destination>_<timestamp>.<ext>.
package export
