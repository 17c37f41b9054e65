// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the tripplan command line.
//
// # Commands
//
//	tripplan                     Open the planner screen (default)
//	tripplan chat                Line-mode planning session
//	tripplan replay FILE|-       Render a captured event stream offline
//	tripplan config show         Print the effective configuration
//	tripplan config path         Print the config file location
//	tripplan config init         Write a default config file
//	tripplan config get KEY      Print one setting
//	tripplan config set KEY VAL  Change one setting
//
// # Global Flags
//
//	--config PATH        Config file (default ~/.tripplan/config.toml)
//	--base-url URL       Planning service URL
//	--user-id ID         User ID sent with every turn
//	--plan-id ID         Plan to continue and save to
//	--typing-ms N        Milliseconds per revealed character (-1 for instant)
//	--metrics-addr ADDR  Serve Prometheus metrics on ADDR
//	-v, --verbose        Log at debug level
//
// Logs go to ~/.tripplan/tripplan.log so they never mix with terminal
// output.
package cli
