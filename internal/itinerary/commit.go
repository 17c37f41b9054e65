// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package itinerary

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CommitPrompt is the question put to the user before a plan is saved.
const CommitPrompt = "Mark this itinerary as planned and save it?"

// Commit errors.
var (
	ErrInvalidPlanID  = errors.New("plan ID is invalid; cannot save the itinerary")
	ErrNoDocument     = errors.New("no itinerary to save yet")
	ErrCommitDeclined = errors.New("save cancelled")
)

// PlanStore persists plan status updates. The backend client implements it.
type PlanStore interface {
	UpdatePlanStatus(ctx context.Context, planID string, body []byte) error
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(prompt string) (bool, error) {
	return f(prompt)
}

// Confirmed is a Confirmer for callers that already asked.
var Confirmed Confirmer = ConfirmFunc(func(string) (bool, error) { return true, nil })

// Commit saves the current document with status "planned".
//
// Nothing is sent unless the user confirms. The in-memory document is only
// stamped after the store accepts the update; a failed request leaves it
// exactly as it was and returns the store's error.
func (p *Panel) Commit(ctx context.Context, planID string, store PlanStore, confirm Confirmer) error {
	if strings.TrimSpace(planID) == "" {
		return ErrInvalidPlanID
	}

	p.mu.RLock()
	doc := p.doc
	p.mu.RUnlock()
	if doc == nil {
		return ErrNoDocument
	}

	ok, err := confirm.Confirm(CommitPrompt)
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		return ErrCommitDeclined
	}

	p.mu.RLock()
	body, err := doc.WithStatus(StatusPlanned)
	p.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode itinerary: %w", err)
	}

	if err := store.UpdatePlanStatus(ctx, planID, body); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// A newer document may have arrived while the request was in flight.
	if p.doc == doc {
		doc.Status = StatusPlanned
		doc.raw = body
		p.version++
	}
	return nil
}
