// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package itinerary holds the structured trip document produced by the
// planning backend and the side panel that displays it.
//
// # Key Types
//
//   - Document: the full itinerary (summary fields plus ordered days)
//   - Panel: loading indicator, current document, per-day card state
//   - PlanStore / Confirmer: collaborators used when committing a plan
//
// # Usage
//
//	doc, err := itinerary.Parse(raw)
//	if err != nil {
//	    return err
//	}
//	panel.Render(doc)
//	panel.Toggle(0)
//	fmt.Println(panel.View(80))
//
// Documents are validated against a JSON Schema before decoding, so a
// payload with the wrong shape is rejected as a whole instead of
// rendering half a plan.
package itinerary
