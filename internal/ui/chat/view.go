// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/tripplan-tui/internal/itinerary"
	"github.com/jeranaias/tripplan-tui/internal/transcript"
	"github.com/jeranaias/tripplan-tui/internal/ui/components"
)

const (
	brandName       = "tripplan"
	panelTitle      = "Itinerary"
	loadingText     = "Building your itinerary..."
	emptyPanelText  = "No itinerary yet. Tell the planner where you want to go."
	activeCursor    = "▌"
	timestampFormat = "15:04"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the screen.
// Layout: header (1 line) + body (transcript | panel) + input (2 lines) + status (1 line)
func (m Model) View() string {
	if !m.ready || m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	input := m.renderInput()
	status := m.renderStatusBar()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(input) - lipgloss.Height(status)

	var body string
	switch {
	case m.confirming:
		body = m.renderOverlay(m.renderConfirm(), bodyHeight)
	case m.showHelp:
		body = m.renderOverlay(m.help.View(m.keys), bodyHeight)
	default:
		body = m.renderBody()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, input, status)
}

func (m Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render(brandName)
	meta := "new plan"
	if m.planID != "" {
		meta = "plan #" + m.planID
	}
	line := brand + " " + m.theme.HeaderMeta.Render(meta)
	return m.theme.Header.Width(m.width).MaxHeight(headerHeight).Render(line)
}

func (m Model) renderBody() string {
	var cols []string
	if m.transcriptCols > 0 {
		cols = append(cols, lipgloss.NewStyle().
			Width(m.transcriptCols).
			Height(m.viewport.Height).
			Render(m.viewport.View()))
	}
	if m.panelCols > 0 {
		cols = append(cols, m.renderPanel())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderInput() string {
	w := m.width - m.theme.InputContainer.GetHorizontalBorderSize()
	return m.theme.InputContainer.Width(max(w, 1)).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	bar := components.StatusBar{
		Width:      m.width,
		State:      m.stateLabel(),
		Notice:     m.notice,
		NoticeKind: m.noticeKind,
		Hints:      hints(m.keys.ShortHelp()),
	}
	if m.state.Busy() || m.saving {
		bar.Spinner = m.spinner.View()
	}
	return bar.Render(m.theme)
}

func (m Model) stateLabel() string {
	if m.saving {
		return "saving"
	}
	return m.state.String()
}

func (m Model) renderOverlay(box string, height int) string {
	return lipgloss.Place(m.width, max(height, 1), lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderConfirm() string {
	title := m.theme.ConfirmTitle.Render(itinerary.CommitPrompt)
	return m.theme.ConfirmBox.Render(title + "\n\n" + "[y] save   [n] cancel")
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript renders every visible message for the given width.
func (m Model) renderTranscript(width int) string {
	if width <= 0 {
		return ""
	}
	msgs := m.transcript.Snapshot()
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if !msg.Visible {
			continue
		}
		out = append(out, m.renderMessage(msg, width))
	}
	return strings.Join(out, "\n\n")
}

func (m Model) renderMessage(msg transcript.Message, width int) string {
	label := m.theme.PlannerLabel
	text := m.theme.PlannerMessage
	if msg.Role == transcript.RoleUser {
		label = m.theme.UserLabel
		text = m.theme.UserMessage
	}

	var b strings.Builder
	b.WriteString(label.Render(msg.Role.DisplayName()))
	if !msg.Timestamp.IsZero() {
		b.WriteString(" " + m.theme.Timestamp.Render(msg.Timestamp.Format(timestampFormat)))
	}
	b.WriteString("\n")

	if msg.Status {
		b.WriteString(m.theme.StatusLine.Width(width).Render(msg.PlainText()))
	} else {
		for i, part := range msg.Parts {
			if i > 0 {
				b.WriteString("\n")
			}
			switch part.Kind {
			case transcript.PartBlock:
				blk := components.HTMLBlock{HTML: part.Text, Mode: m.blockMode}
				b.WriteString(blk.Render(m.theme, width))
			default:
				b.WriteString(text.Width(width).Render(strings.TrimRight(part.Text, "\n")))
			}
		}
	}

	if msg.Active {
		b.WriteString(m.theme.Cursor.Render(activeCursor))
	}
	return b.String()
}

// =============================================================================
// ITINERARY PANEL
// =============================================================================

func (m Model) renderPanel() string {
	style := m.theme.Panel
	if m.focus == focusPanel {
		style = m.theme.PanelFocused
	}

	title := m.theme.PanelTitle.Render(panelTitle)
	if m.panel.Loading() {
		title += " " + m.spinner.View() + " " + m.theme.Loading.Render(loadingText)
	}
	inner := m.panelCols - style.GetHorizontalFrameSize()
	title = lipgloss.NewStyle().MaxWidth(max(inner, 1)).Render(title)

	return style.
		Width(max(inner, 1)).
		Height(m.panelView.Height + 1).
		Render(title + "\n" + m.panelView.View())
}

// renderPanelBody renders the itinerary for the panel viewport.
func (m Model) renderPanelBody(width int) string {
	if width <= 0 {
		return ""
	}
	if !m.panel.HasDocument() {
		return m.theme.PanelEmpty.Width(width).Render(emptyPanelText)
	}
	out, err := m.panel.View(width)
	if err != nil {
		m.logger.Warn("itinerary render failed", zap.Error(err))
	}
	return out
}
