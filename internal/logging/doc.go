// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the application's zap logger.
//
// The TUI owns the terminal, so logs always go to a file
// (~/.tripplan/tripplan.log unless configured otherwise).
package logging
