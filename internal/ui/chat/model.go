// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/tripplan-tui/internal/itinerary"
	"github.com/jeranaias/tripplan-tui/internal/metrics"
	"github.com/jeranaias/tripplan-tui/internal/session"
	"github.com/jeranaias/tripplan-tui/internal/transcript"
	"github.com/jeranaias/tripplan-tui/internal/ui/components"
	"github.com/jeranaias/tripplan-tui/internal/ui/styles"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// RedrawInterval is how often the transcript and panel are polled.
	RedrawInterval = 40 * time.Millisecond

	// noticeTTL is how long a status bar notice stays up.
	noticeTTL = 4 * time.Second

	// Fixed rows: header, input (border + line), status bar.
	headerHeight = 1
	inputHeight  = 2
	statusHeight = 1

	defaultPanelPercent = 40
	inputCharLimit      = 2000
)

// focusArea is the component receiving navigation keys.
type focusArea int

const (
	focusInput focusArea = iota
	focusPanel
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options wires the model to the rest of the application.
type Options struct {
	Controller *session.Controller
	Transcript *transcript.Transcript
	Panel      *itinerary.Panel

	// Store receives plan saves. Nil disables saving.
	Store  itinerary.PlanStore
	PlanID string

	// Export writes the itinerary to a file and returns its path.
	// Nil disables exporting.
	Export func(*itinerary.Document) (string, error)

	Theme *styles.Theme

	// GlamourStyle is the configured panel style ("auto" follows the theme).
	GlamourStyle string

	// ScrollThreshold is how close to the bottom the transcript must be
	// to keep following new output. Zero means the transcript default.
	ScrollThreshold int

	// PanelWidthPercent is the share of the screen given to the panel.
	PanelWidthPercent int

	// Context bounds every turn and save started from the UI.
	Context context.Context

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the planner screen.
type Model struct {
	controller *session.Controller
	transcript *transcript.Transcript
	panel      *itinerary.Panel
	store      itinerary.PlanStore
	planID     string
	exportFn   func(*itinerary.Document) (string, error)
	ctx        context.Context
	logger     *zap.Logger
	metrics    *metrics.Metrics

	theme        *styles.Theme
	glamourStyle string
	keys         KeyMap

	// Components
	viewport  viewport.Model
	panelView viewport.Model
	input     textinput.Model
	spinner   spinner.Model
	help      help.Model

	// Layout
	width          int
	height         int
	ready          bool
	panelPercent   int
	followLines    int
	transcriptCols int
	panelCols      int

	// UI state
	focus      focusArea
	blockMode  components.BlockMode
	showHelp   bool
	confirming bool
	saving     bool
	state      session.State

	notice     string
	noticeKind styles.NoticeKind
	noticeSeq  int

	// Last rendered versions
	transcriptVersion uint64
	panelVersion      uint64
}

// New creates the planner screen.
func New(opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme(styles.ThemeAuto)
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ScrollThreshold <= 0 {
		opts.ScrollThreshold = transcript.DefaultFollowThreshold
	}
	if opts.PanelWidthPercent <= 0 {
		opts.PanelWidthPercent = defaultPanelPercent
	}

	ti := textinput.New()
	ti.Placeholder = "Where would you like to go?"
	ti.Prompt = "> "
	ti.PromptStyle = opts.Theme.InputPrompt
	ti.CharLimit = inputCharLimit
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opts.Theme.Loading

	opts.Panel.SetStyle(opts.Theme.GlamourStyle(opts.GlamourStyle))

	return Model{
		controller:   opts.Controller,
		transcript:   opts.Transcript,
		panel:        opts.Panel,
		store:        opts.Store,
		planID:       opts.PlanID,
		exportFn:     opts.Export,
		ctx:          opts.Context,
		logger:       opts.Logger.Named("ui"),
		metrics:      opts.Metrics,
		theme:        opts.Theme,
		glamourStyle: opts.GlamourStyle,
		keys:         DefaultKeyMap(),
		viewport:     viewport.New(0, 0),
		panelView:    viewport.New(0, 0),
		input:        ti,
		spinner:      sp,
		help:         help.New(),
		panelPercent: opts.PanelWidthPercent,
		followLines:  opts.ScrollThreshold,
	}
}

// Init starts the cursor blink, the spinner and the redraw tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		redrawTick(),
	)
}

func redrawTick() tea.Cmd {
	return tea.Tick(RedrawInterval, func(t time.Time) tea.Msg {
		return redrawTickMsg(t)
	})
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the viewports for the current window.
func (m *Model) layout() {
	m.theme.SetSize(m.width, m.height)

	body := m.height - headerHeight - inputHeight - statusHeight
	if body < 1 {
		body = 1
	}

	switch {
	case m.theme.GetLayoutMode() == styles.LayoutNarrow && m.focus == focusPanel:
		m.transcriptCols = 0
		m.panelCols = m.width
	case m.theme.GetLayoutMode() == styles.LayoutNarrow:
		m.transcriptCols = m.width
		m.panelCols = 0
	default:
		m.panelCols = m.width * m.panelPercent / 100
		m.transcriptCols = m.width - m.panelCols
	}

	m.viewport.Width = m.transcriptCols
	m.viewport.Height = body

	frameW := m.theme.Panel.GetHorizontalFrameSize()
	frameH := m.theme.Panel.GetVerticalFrameSize()
	m.panelView.Width = max(m.panelCols-frameW, 0)
	m.panelView.Height = max(body-frameH-1, 1)

	m.input.Width = max(m.width-m.theme.InputContainer.GetHorizontalFrameSize()-len(m.input.Prompt)-1, 1)
	m.help.Width = m.width
}

// =============================================================================
// REFRESH
// =============================================================================

// viewportScroller adapts a viewport to transcript.Scroller.
type viewportScroller struct {
	vp *viewport.Model
}

func (s viewportScroller) ScrollOffset() int  { return s.vp.YOffset }
func (s viewportScroller) VisibleHeight() int { return s.vp.Height }
func (s viewportScroller) ContentHeight() int { return s.vp.TotalLineCount() }
func (s viewportScroller) ScrollToBottom()    { s.vp.GotoBottom() }

// refresh re-renders whatever changed since the last call. force
// re-renders everything, which is needed after a resize or style change.
func (m *Model) refresh(force bool) {
	m.state = m.controller.State()
	if !m.ready {
		return
	}

	if v := m.transcript.Version(); force || v != m.transcriptVersion {
		m.transcriptVersion = v
		content := m.renderTranscript(m.transcriptCols)
		transcript.Follow(viewportScroller{vp: &m.viewport}, m.followLines, func() {
			m.viewport.SetContent(content)
		})
	}

	if v := m.panel.Version(); force || v != m.panelVersion {
		m.panelVersion = v
		m.panelView.SetContent(m.renderPanelBody(m.panelView.Width))
	}
}
