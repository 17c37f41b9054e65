// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package blocks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typedText(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Kind == Typed {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

func rawBlocks(segs []Segment) []string {
	var out []string
	for _, s := range segs {
		if s.Kind == Raw {
			out = append(out, s.Text)
		}
	}
	return out
}

func pushAll(a *Accumulator, deltas ...string) []Segment {
	var segs []Segment
	for _, d := range deltas {
		segs = append(segs, a.Push(d)...)
	}
	return segs
}

// =============================================================================
// EXTRACT TESTS
// =============================================================================

func TestFindBlock(t *testing.T) {
	blk, ok := FindBlock("intro ```html\n  <p>hi</p>\n``` outro")
	require.True(t, ok)
	assert.Equal(t, "<p>hi</p>", blk.Inner)
	assert.Equal(t, 6, blk.Start)

	_, ok = FindBlock("```html <p>unterminated")
	assert.False(t, ok)
}

func TestExtract_IsPure(t *testing.T) {
	buf := "text ```html\n<p>x</p>\n``` tail text"
	s1, r1 := Extract(buf, DefaultNoiseThreshold)
	s2, r2 := Extract(buf, DefaultNoiseThreshold)
	assert.Equal(t, s1, s2)
	assert.Equal(t, r1, r2)
}

func TestExtract_Cases(t *testing.T) {
	tests := []struct {
		name      string
		buf       string
		wantTyped string
		wantRaw   []string
		wantRest  string
	}{
		{
			name:      "plain text released",
			buf:       "Hello there",
			wantTyped: "Hello there",
		},
		{
			name:     "short text held as noise",
			buf:      "Hi!",
			wantRest: "Hi!",
		},
		{
			name:     "whitespace held",
			buf:      "\n\n   \n",
			wantRest: "\n\n   \n",
		},
		{
			name:     "open fence waits",
			buf:      "Plan:\n```html\n<table>",
			wantRest: "Plan:\n```html\n<table>",
		},
		{
			name:      "complete block",
			buf:       "Plan:\n```html\n<table></table>\n```",
			wantTyped: "Plan:\n",
			wantRaw:   []string{"<table></table>"},
		},
		{
			name:      "back to back blocks",
			buf:       "```html\n<a/>\n``````html\n<b/>\n```",
			wantRaw:   []string{"<a/>", "<b/>"},
		},
		{
			name:      "blank text between blocks dropped",
			buf:       "```html<a/>```\n\n```html<b/>```",
			wantRaw:   []string{"<a/>", "<b/>"},
		},
		{
			name:      "partial fence suffix held",
			buf:       "Your plan is ready ``",
			wantTyped: "Your plan is ready ",
			wantRest:  "``",
		},
		{
			name:      "partial fence with language prefix held",
			buf:       "Your plan is ready ```ht",
			wantTyped: "Your plan is ready ",
			wantRest:  "```ht",
		},
		{
			name:      "other code fence is plain text",
			buf:       "```python\nprint(1)\n```",
			wantTyped: "```python\nprint(1)\n",
			wantRest:  "```",
		},
		{
			name:      "empty block produces nothing raw",
			buf:       "```html\n\n``` after the block",
			wantTyped: " after the block",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, rest := Extract(tt.buf, DefaultNoiseThreshold)
			assert.Equal(t, tt.wantTyped, typedText(segs))
			assert.Equal(t, tt.wantRaw, rawBlocks(segs))
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestExtract_ThresholdCountsRunes(t *testing.T) {
	// Five CJK runes are fifteen bytes but only five characters.
	segs, rest := Extract("東京大阪京", 4)
	assert.Equal(t, "東京大阪京", typedText(segs))
	assert.Empty(t, rest)

	segs, rest = Extract("東京大阪", 4)
	assert.Empty(t, segs)
	assert.Equal(t, "東京大阪", rest)
}

// =============================================================================
// ACCUMULATOR TESTS
// =============================================================================

func TestAccumulator_FenceSplitAcrossDeltas(t *testing.T) {
	a := NewAccumulator(DefaultNoiseThreshold)
	deltas := []string{
		"Here is ",
		"your plan:\n```ht",
		"ml\n<table>…</table>\n``",
		"`\nEnjoy!",
	}

	var segs []Segment
	for i, d := range deltas {
		got := a.Push(d)
		if i < len(deltas)-1 {
			assert.Empty(t, rawBlocks(got), "delta %d emitted a block before the fence closed", i)
		} else {
			assert.Equal(t, []string{"<table>…</table>"}, rawBlocks(got))
		}
		segs = append(segs, got...)
	}

	assert.Equal(t, "Here is your plan:\n\nEnjoy!", typedText(segs))
	assert.Equal(t, []string{"<table>…</table>"}, rawBlocks(segs))
	assert.Empty(t, a.Pending())
	assert.False(t, a.InBlock())

	for _, s := range segs {
		if s.Kind == Typed {
			assert.NotContains(t, s.Text, "`", "no fence characters are ever typed")
		}
	}
}

func TestAccumulator_InBlockWhileOpen(t *testing.T) {
	a := NewAccumulator(DefaultNoiseThreshold)
	segs := pushAll(a, "```html\n<ul>", "<li>Day 1</li>")
	assert.Empty(t, segs)
	assert.True(t, a.InBlock())

	segs = a.Push("</ul>\n```")
	assert.Equal(t, []string{"<ul><li>Day 1</li></ul>"}, rawBlocks(segs))
	assert.False(t, a.InBlock())
}

// The block is reconstructed identically however the deltas are cut.
func TestAccumulator_SplitInvariance(t *testing.T) {
	full := "Intro text.\n```html\n<div>東京</div>\n```\nClosing words here."
	runes := []rune(full)

	for i := 1; i < len(runes); i++ {
		for j := i + 1; j < len(runes); j++ {
			a := NewAccumulator(DefaultNoiseThreshold)
			segs := pushAll(a, string(runes[:i]), string(runes[i:j]), string(runes[j:]))
			segs = append(segs, a.Flush()...)

			if !assert.Equal(t, []string{"<div>東京</div>"}, rawBlocks(segs), "cut at %d,%d", i, j) {
				return
			}
			// Blank text directly before a block is dropped, so only the
			// words are compared.
			typed := strings.Fields(typedText(segs))
			if !assert.Equal(t, strings.Fields("Intro text. Closing words here."), typed, "cut at %d,%d", i, j) {
				return
			}
		}
	}
}

func TestAccumulator_FlushReleasesShortTail(t *testing.T) {
	a := NewAccumulator(DefaultNoiseThreshold)
	assert.Empty(t, a.Push("Ok!"))
	segs := a.Flush()
	assert.Equal(t, "Ok!", typedText(segs))
	assert.Empty(t, a.Pending())
}

func TestAccumulator_FlushBlankTail(t *testing.T) {
	a := NewAccumulator(DefaultNoiseThreshold)
	a.Push("\n\n")
	assert.Empty(t, a.Flush())
}

func TestAccumulator_Reset(t *testing.T) {
	a := NewAccumulator(-1)
	a.Push("```html <p>")
	require.True(t, a.InBlock())
	a.Reset()
	assert.False(t, a.InBlock())
	assert.Empty(t, a.Pending())
}
