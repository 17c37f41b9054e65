// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package itinerary

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"
)

// =============================================================================
// PANEL
// =============================================================================

// Panel is the itinerary side panel: a loading flag, the current document
// and the open/closed state of each day card. It is safe for concurrent use;
// the session goroutine writes while the UI reads.
type Panel struct {
	mu       sync.RWMutex
	loading  bool
	doc      *Document
	open     []bool
	selected int
	style    string
	version  uint64
}

// NewPanel creates an empty panel rendered with the given glamour style
// ("dark", "light", "notty", ...). An empty style means "dark".
func NewPanel(style string) *Panel {
	if style == "" {
		style = "dark"
	}
	return &Panel{style: style}
}

// SetStyle changes the glamour style used by View.
func (p *Panel) SetStyle(style string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if style != "" && style != p.style {
		p.style = style
		p.version++
	}
}

// ShowLoading displays the loading indicator.
func (p *Panel) ShowLoading() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loading {
		p.loading = true
		p.version++
	}
}

// HideLoading removes the loading indicator.
func (p *Panel) HideLoading() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loading {
		p.loading = false
		p.version++
	}
}

// Loading reports whether the loading indicator is shown.
func (p *Panel) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

// Render replaces the panel content with doc. Every day card starts closed.
func (p *Panel) Render(doc *Document) {
	if doc == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc = doc
	p.open = make([]bool, len(doc.Days))
	p.selected = 0
	p.version++
}

// Document returns a copy of the current document, or nil.
func (p *Panel) Document() *Document {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.doc.Clone()
}

// HasDocument reports whether a document has been rendered.
func (p *Panel) HasDocument() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.doc != nil
}

// Version increases on every visible change.
func (p *Panel) Version() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.version
}

// =============================================================================
// CARDS
// =============================================================================

// Toggle flips the open state of day card i and returns the new state.
// Other cards are unaffected. Out-of-range indexes are ignored.
func (p *Panel) Toggle(i int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.open) {
		return false
	}
	p.open[i] = !p.open[i]
	p.version++
	return p.open[i]
}

// IsOpen reports whether day card i is expanded.
func (p *Panel) IsOpen(i int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return i >= 0 && i < len(p.open) && p.open[i]
}

// Selected returns the index of the highlighted card.
func (p *Panel) Selected() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.selected
}

// MoveSelection moves the highlight by delta cards, clamped to the list.
func (p *Panel) MoveSelection(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.open) == 0 {
		return
	}
	next := p.selected + delta
	if next < 0 {
		next = 0
	}
	if next >= len(p.open) {
		next = len(p.open) - 1
	}
	if next != p.selected {
		p.selected = next
		p.version++
	}
}

// ToggleSelected flips the highlighted card.
func (p *Panel) ToggleSelected() bool {
	return p.Toggle(p.Selected())
}

// =============================================================================
// RENDERING
// =============================================================================

const (
	noneLabel        = "None"
	notProvidedLabel = "Not provided"
	maxTitleWidth    = 60
)

// Markdown renders the panel as markdown: a summary header followed by
// one card per day. Closed cards show only their title.
func (p *Panel) Markdown() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var b strings.Builder
	if p.loading {
		b.WriteString("_Generating itinerary..._\n\n")
	}
	if p.doc == nil {
		if !p.loading {
			b.WriteString("_No itinerary yet. Describe your trip to get started._\n")
		}
		return b.String()
	}

	writeSummary(&b, p.doc)

	for i, day := range p.doc.Days {
		marker := "▸"
		if p.open[i] {
			marker = "▾"
		}
		cursor := ""
		if i == p.selected {
			cursor = "› "
		}
		title := runewidth.Truncate(dayTitle(i, day), maxTitleWidth, "...")
		fmt.Fprintf(&b, "### %s%s %s\n\n", cursor, marker, title)
		if p.open[i] {
			writeDay(&b, day)
		}
	}
	return b.String()
}

// DocumentMarkdown renders doc as markdown with every day expanded.
func DocumentMarkdown(doc *Document) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	writeSummary(&b, doc)
	for i, day := range doc.Days {
		fmt.Fprintf(&b, "### %s\n\n", dayTitle(i, day))
		writeDay(&b, day)
	}
	return b.String()
}

// View renders the panel for a terminal of the given width.
func (p *Panel) View(width int) (string, error) {
	md := p.Markdown()

	p.mu.RLock()
	style := p.style
	p.mu.RUnlock()

	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md, fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return md, fmt.Errorf("render itinerary: %w", err)
	}
	return out, nil
}

func dayTitle(i int, day DayPlan) string {
	if day.DailyTheme == "" {
		return fmt.Sprintf("Day %d", i+1)
	}
	return fmt.Sprintf("Day %d - %s", i+1, day.DailyTheme)
}

func writeSummary(b *strings.Builder, doc *Document) {
	heading := doc.TravelTheme
	if heading == "" {
		heading = "Trip Summary"
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	if doc.Description != "" {
		fmt.Fprintf(b, "%s\n\n", doc.Description)
	}

	field := func(label, value string) {
		if value == "" {
			value = notProvidedLabel
		}
		fmt.Fprintf(b, "- **%s:** %s\n", label, value)
	}
	field("Departure", doc.DepartureLocation)
	field("Destination", doc.Destination)
	field("Start date", doc.StartDate)
	if doc.EndDate != "" {
		field("End date", doc.EndDate)
	}
	field("Duration", string(doc.Duration))
	if doc.NumPeople > 0 {
		field("Travellers", doc.NumPeople.String())
	}
	field("Highlights", doc.Features)
	if doc.Status != "" {
		field("Status", doc.Status)
	}
	b.WriteString("\n---\n\n")
}

func writeDay(b *strings.Builder, day DayPlan) {
	var meta []string
	if day.Day != "" {
		meta = append(meta, day.Day)
	}
	if day.ItineraryLocation != "" {
		meta = append(meta, day.ItineraryLocation)
	}
	if day.Transportation != "" {
		meta = append(meta, "Transport: "+day.Transportation)
	}
	if len(meta) > 0 {
		fmt.Fprintf(b, "_%s_\n\n", strings.Join(meta, " · "))
	}

	if day.Accommodation == nil {
		fmt.Fprintf(b, "**Accommodation:** %s\n\n", noneLabel)
	} else {
		acc := day.Accommodation
		name := orDefault(acc.Name, notProvidedLabel)
		addr := orDefault(acc.Address, notProvidedLabel)
		fmt.Fprintf(b, "**Accommodation:** %s, %s\n", name, addr)
		if acc.Price > 0 {
			fmt.Fprintf(b, "  Price: %s %s", acc.Price.String(), acc.Currency)
			if acc.ReviewScore > 0 {
				fmt.Fprintf(b, " · Rating: %s", acc.ReviewScore.String())
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	for _, seg := range day.Segments {
		fmt.Fprintf(b, "#### %s\n\n", orDefault(seg.TimeSlot, "Anytime"))
		if len(seg.Activities) == 0 {
			b.WriteString("- _Free time_\n\n")
			continue
		}
		for _, act := range seg.Activities {
			fmt.Fprintf(b, "- **%s**", orDefault(act.Name, notProvidedLabel))
			if act.Type != "" {
				fmt.Fprintf(b, " (%s)", act.Type)
			}
			if act.Location != "" {
				fmt.Fprintf(b, " @ %s", act.Location)
			}
			b.WriteString("\n")
			if act.Description != "" {
				fmt.Fprintf(b, "  %s\n", act.Description)
			}
			if act.EstimatedDuration != "" {
				fmt.Fprintf(b, "  Time needed: %s\n", act.EstimatedDuration)
			}
			fmt.Fprintf(b, "  Notes: %s\n", orDefault(act.Notes, noneLabel))
		}
		b.WriteString("\n")
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
