// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/tripplan-tui/internal/itinerary"
	"github.com/jeranaias/tripplan-tui/internal/session"
	"github.com/jeranaias/tripplan-tui/internal/transcript"
	"github.com/jeranaias/tripplan-tui/internal/ui/components"
	"github.com/jeranaias/tripplan-tui/internal/ui/styles"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles incoming messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		m.refresh(true)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case redrawTickMsg:
		m.refresh(false)
		return m, redrawTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TurnDoneMsg:
		m.refresh(false)
		return m, m.handleTurnDone(msg.Err)

	case CommitResultMsg:
		m.saving = false
		m.refresh(false)
		if msg.Err != nil {
			return m, m.setNotice(styles.NoticeError, msg.Err.Error())
		}
		return m, m.setNotice(styles.NoticeSuccess, "Itinerary saved as planned")

	case ExportResultMsg:
		if msg.Err != nil {
			return m, m.setNotice(styles.NoticeError, "Export failed: "+msg.Err.Error())
		}
		return m, m.setNotice(styles.NoticeSuccess, "Exported to "+msg.Path)

	case ConfigReloadedMsg:
		return m.handleConfigReload(msg)

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.controller.Cancel()
		return m, tea.Quit
	}

	if m.confirming {
		return m.handleConfirmKey(msg)
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help) && (m.focus == focusPanel || m.input.Value() == ""):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		if m.controller.State().Busy() {
			m.controller.Cancel()
			return m, m.setNotice(styles.NoticeWarning, "Stopped")
		}
		if m.focus == focusPanel {
			m.setFocus(focusInput)
		}
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusInput {
			m.setFocus(focusPanel)
		} else {
			m.setFocus(focusInput)
		}
		return m, nil

	case key.Matches(msg, m.keys.Save):
		return m, m.requestSave()

	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()

	case key.Matches(msg, m.keys.ToggleBlock):
		if m.blockMode == components.BlockModeText {
			m.blockMode = components.BlockModeSource
		} else {
			m.blockMode = components.BlockModeText
		}
		m.refresh(true)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	}

	if m.focus == focusPanel {
		return m.handlePanelKey(msg)
	}

	if key.Matches(msg, m.keys.Submit) {
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		m.notice = ""
		// Follow the new turn even if the user had scrolled up.
		m.viewport.GotoBottom()
		return m, m.submitCmd(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handlePanelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.PanelUp):
		m.panel.MoveSelection(-1)
	case key.Matches(msg, m.keys.PanelDown):
		m.panel.MoveSelection(1)
	case key.Matches(msg, m.keys.ToggleDay):
		m.panel.ToggleSelected()
	default:
		return m, nil
	}
	m.refresh(false)
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirming = false
		m.saving = true
		// Replaced by the result notice, so it needs no expiry.
		m.noticeSeq++
		m.notice = "Saving itinerary..."
		m.noticeKind = styles.NoticeInfo
		return m, m.commitCmd()
	case key.Matches(msg, m.keys.Decline):
		m.confirming = false
		return m, m.setNotice(styles.NoticeWarning, itinerary.ErrCommitDeclined.Error())
	}
	return m, nil
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	if m.ready {
		m.layout()
		m.refresh(true)
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

// submitCmd runs one turn. The controller writes into the transcript and
// panel directly; the redraw tick picks the changes up.
func (m Model) submitCmd(text string) tea.Cmd {
	ctrl, ctx := m.controller, m.ctx
	return func() tea.Msg {
		return TurnDoneMsg{Err: ctrl.Submit(ctx, text)}
	}
}

func (m *Model) handleTurnDone(err error) tea.Cmd {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		// Replaced by a newer turn or stopped by the user.
		return nil
	case errors.Is(err, session.ErrEmptyMessage):
		return nil
	}

	var te *session.TurnError
	if errors.As(err, &te) {
		m.logger.Debug("turn failed", zap.Int("kind", int(te.Kind)), zap.Error(te.Err))
	} else {
		m.logger.Warn("turn failed", zap.Error(err))
	}
	return m.setNotice(styles.NoticeError, "Turn failed: "+err.Error())
}

// requestSave opens the confirmation overlay when a save is possible.
func (m *Model) requestSave() tea.Cmd {
	switch {
	case m.saving:
		return nil
	case m.store == nil || strings.TrimSpace(m.planID) == "":
		return m.setNotice(styles.NoticeError, itinerary.ErrInvalidPlanID.Error())
	case !m.panel.HasDocument():
		return m.setNotice(styles.NoticeError, itinerary.ErrNoDocument.Error())
	}
	m.confirming = true
	return nil
}

// commitCmd saves the plan. The overlay already asked the question.
func (m Model) commitCmd() tea.Cmd {
	panel, store, planID, ctx := m.panel, m.store, m.planID, m.ctx
	met, log := m.metrics, m.logger
	return func() tea.Msg {
		err := panel.Commit(ctx, planID, store, itinerary.Confirmed)
		met.ObserveCommit(err == nil)
		if err != nil {
			log.Warn("save failed", zap.String("plan_id", planID), zap.Error(err))
		} else {
			log.Info("itinerary saved", zap.String("plan_id", planID))
		}
		return CommitResultMsg{Err: err}
	}
}

// exportCmd writes the current itinerary with the configured exporter.
func (m *Model) exportCmd() tea.Cmd {
	switch {
	case m.exportFn == nil:
		return m.setNotice(styles.NoticeWarning, "Export is not available")
	case !m.panel.HasDocument():
		return m.setNotice(styles.NoticeError, itinerary.ErrNoDocument.Error())
	}
	exportFn, doc := m.exportFn, m.panel.Document()
	return func() tea.Msg {
		path, err := exportFn(doc)
		return ExportResultMsg{Path: path, Err: err}
	}
}

// setNotice shows a transient status bar notice.
func (m *Model) setNotice(kind styles.NoticeKind, text string) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	m.noticeKind = kind
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func (m Model) handleConfigReload(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Warn("config reload failed", zap.Error(msg.Err))
		return m, m.setNotice(styles.NoticeWarning, "Config reload failed: "+msg.Err.Error())
	}
	cfg := msg.Config
	if cfg == nil {
		return m, nil
	}

	m.controller.SetTypingInterval(cfg.TypingInterval())

	m.theme = styles.NewTheme(cfg.UI.Theme)
	m.glamourStyle = cfg.UI.GlamourStyle
	m.panel.SetStyle(m.theme.GlamourStyle(m.glamourStyle))
	m.input.PromptStyle = m.theme.InputPrompt
	m.spinner.Style = m.theme.Loading

	m.followLines = cfg.UI.ScrollThresholdLines
	if m.followLines <= 0 {
		m.followLines = transcript.DefaultFollowThreshold
	}
	if cfg.UI.PanelWidthPercent > 0 {
		m.panelPercent = cfg.UI.PanelWidthPercent
	}

	if m.ready {
		m.layout()
		m.refresh(true)
	}
	m.logger.Info("config reloaded")
	return m, m.setNotice(styles.NoticeInfo, "Config reloaded")
}
