// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

// DefaultFollowThreshold is how many lines from the bottom still count as
// "at the bottom".
const DefaultFollowThreshold = 3

// Scroller is a scrollable view of the transcript.
type Scroller interface {
	// ScrollOffset is the index of the first visible line.
	ScrollOffset() int

	// VisibleHeight is the number of lines on screen.
	VisibleHeight() int

	// ContentHeight is the total number of lines.
	ContentHeight() int

	// ScrollToBottom shows the last line.
	ScrollToBottom()
}

// NearBottom reports whether the view is within threshold lines of the end.
func NearBottom(s Scroller, threshold int) bool {
	hidden := s.ContentHeight() - s.VisibleHeight() - s.ScrollOffset()
	return hidden <= threshold
}

// Follow runs mutate and then scrolls to the bottom, but only if the view
// was near the bottom before the mutation. A user reading older messages
// is never pulled down.
func Follow(s Scroller, threshold int, mutate func()) {
	wasNear := NearBottom(s, threshold)
	mutate()
	if wasNear {
		s.ScrollToBottom()
	}
}
