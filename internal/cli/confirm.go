// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// CONFIRMATION HANDLING
// =============================================================================

// ErrConfirmationRequired is returned when a question cannot be asked and
// --yes was not given.
var ErrConfirmationRequired = errors.New("confirmation required: run in a terminal or pass --yes")

// Confirmer asks yes/no questions on the terminal.
//
// Confirmation flow:
//  1. If Yes is set (--yes), confirm without asking
//  2. If the terminal cannot prompt, return ErrConfirmationRequired
//  3. Otherwise ask and accept "y" or "yes"; anything else declines
type Confirmer struct {
	Yes bool

	// CanPrompt reports whether a question can be asked. Nil means IsTTY.
	CanPrompt func() bool

	// Ask shows the prompt and returns the answer line.
	Ask func(prompt string) (string, error)
}

// Confirm implements itinerary.Confirmer.
func (c Confirmer) Confirm(prompt string) (bool, error) {
	if c.Yes {
		return true, nil
	}
	canPrompt := c.CanPrompt
	if canPrompt == nil {
		canPrompt = IsTTY
	}
	if !canPrompt() || c.Ask == nil {
		return false, ErrConfirmationRequired
	}

	answer, err := c.Ask(prompt + " [y/N]: ")
	if err != nil {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	return isYes(answer), nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
