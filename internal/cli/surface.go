// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jeranaias/tripplan-tui/internal/itinerary"
	"github.com/jeranaias/tripplan-tui/internal/surface"
	"github.com/jeranaias/tripplan-tui/internal/ui/components"
)

// =============================================================================
// LINE-MODE OUTPUT
// =============================================================================

// clearLine returns the cursor to column 0 and erases the line.
const clearLine = "\r\x1b[2K"

// lineWriter serializes writes from overlapping turns and remembers
// whether the output currently ends a line.
type lineWriter struct {
	mu      sync.Mutex
	out     io.Writer
	ansi    bool
	midLine bool
}

func newLineWriter(out io.Writer, ansi bool) *lineWriter {
	return &lineWriter{out: out, ansi: ansi}
}

func (w *lineWriter) write(s string) {
	if s == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	io.WriteString(w.out, s)
	w.midLine = !strings.HasSuffix(s, "\n")
}

// endLine starts a new line unless the output is already at one.
func (w *lineWriter) endLine() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.midLine {
		io.WriteString(w.out, "\n")
		w.midLine = false
	}
}

// println writes a full line, first ending any partial one.
func (w *lineWriter) println(s string) {
	w.endLine()
	w.write(s + "\n")
}

func (w *lineWriter) style(render func(...string) string, s string) string {
	if !w.ansi {
		return s
	}
	return render(s)
}

// =============================================================================
// TERMINAL TRANSCRIPT
// =============================================================================

// terminalTranscript prints turns to a terminal as they stream.
type terminalTranscript struct {
	w        *lineWriter
	width    int
	echoUser bool
}

func newTerminalTranscript(w *lineWriter, width int, echoUser bool) *terminalTranscript {
	return &terminalTranscript{w: w, width: width, echoUser: echoUser}
}

// AppendUserMessage implements session.Transcript. In the REPL the user
// has just typed the line, so it is only echoed for replays.
func (t *terminalTranscript) AppendUserMessage(text string) {
	if t.echoUser {
		t.w.println(t.w.style(PromptStyle.Render, "You: ") + text)
	}
}

// StartAssistantTurn implements session.Transcript.
func (t *terminalTranscript) StartAssistantTurn() surface.Surface {
	return &terminalSurface{w: t.w, width: t.width}
}

// terminalSurface is one assistant turn in line mode. Text is printed
// as it arrives; Clear can only erase the current line, which is enough
// for the one-line status messages it is used for.
type terminalSurface struct {
	w     *lineWriter
	width int

	mu      sync.Mutex
	visible bool
	status  bool
	dirty   bool
}

// AppendText implements surface.Surface.
func (s *terminalSurface) AppendText(text string) {
	s.mu.Lock()
	status := s.status
	s.dirty = true
	s.mu.Unlock()

	if status {
		text = s.w.style(DimStyle.Render, text)
	}
	s.w.write(text)
}

// AppendRawBlock implements surface.Surface.
func (s *terminalSurface) AppendRawBlock(block string) {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()

	body := components.BlockText(block)
	if body == "" {
		return
	}
	s.w.println(BlockStyle.Width(max(s.width-4, 20)).Render(body))
}

// Clear implements surface.Surface.
func (s *terminalSurface) Clear() {
	s.mu.Lock()
	dirty := s.dirty
	s.dirty = false
	s.mu.Unlock()

	if !dirty {
		return
	}
	if s.w.ansi {
		s.w.mu.Lock()
		io.WriteString(s.w.out, clearLine)
		s.w.midLine = false
		s.w.mu.Unlock()
		return
	}
	s.w.endLine()
}

// SetVisible implements surface.Surface.
func (s *terminalSurface) SetVisible(visible bool) {
	s.mu.Lock()
	first := visible && !s.visible
	s.visible = visible
	s.mu.Unlock()

	if first {
		s.w.println(s.w.style(PlannerStyle.Render, "Planner:"))
	}
}

// SetActive implements surface.Surface.
func (s *terminalSurface) SetActive(active bool) {
	if !active {
		s.w.endLine()
	}
}

// MarkStatus dims status lines.
func (s *terminalSurface) MarkStatus(status bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// =============================================================================
// TERMINAL PANEL
// =============================================================================

// terminalPanel keeps the itinerary in memory and announces changes.
type terminalPanel struct {
	*itinerary.Panel
	w *lineWriter
}

// ShowLoading implements session.ItineraryPanel.
func (p terminalPanel) ShowLoading() {
	if !p.Panel.Loading() {
		p.w.println(p.w.style(DimStyle.Render, "[i] Building your itinerary..."))
	}
	p.Panel.ShowLoading()
}

// Render implements session.ItineraryPanel.
func (p terminalPanel) Render(doc *itinerary.Document) {
	p.Panel.Render(doc)
	if doc == nil {
		return
	}
	msg := fmt.Sprintf("[OK] Itinerary ready: %s. Type /plan to view it.", doc.Destination)
	p.w.println(p.w.style(SuccessStyle.Render, msg))
}
