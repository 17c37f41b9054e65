// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across tripplan.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis (log payloads)
//   - TruncateWidth, StringWidth, PadRight: terminal column math for CJK text
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	display := util.TruncateWidth(title, 40)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
