// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for tripplan.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, validation, and live reload.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: Planning service URL, endpoints and identity
//   - StreamConfig: Typewriter pace, fence noise threshold, frame limit
//   - UIConfig: Theme, panel style and layout
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command line flags (applied by the cli package)
//   - Environment variables (TRIPPLAN_*)
//   - ~/.tripplan/config.toml
//   - ~/.tripplan/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	done, err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
//	    // apply cfg.TypingInterval(), cfg.UI.Theme ...
//	})
package config
