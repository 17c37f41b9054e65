// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/tripplan-tui/internal/backend"
	"github.com/jeranaias/tripplan-tui/internal/config"
	"github.com/jeranaias/tripplan-tui/internal/itinerary"
	"github.com/jeranaias/tripplan-tui/internal/metrics"
	"github.com/jeranaias/tripplan-tui/internal/session"
	"github.com/jeranaias/tripplan-tui/internal/ui/styles"
)

// =============================================================================
// COMMAND
// =============================================================================

func newChatCommand(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start a line-mode planning session",
		Long: `Chat with the planner in plain terminal output, one line at a time.

Interactive commands:
  /plan        Show the current itinerary
  /day N       Open or close day N and show the itinerary
  /save        Mark the itinerary as planned and save it
  /export [F]  Write the itinerary to a file (md, json or html)
  /help        Show these commands
  /quit        Exit

Ctrl+C stops the answer being written; Ctrl+D exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), a, yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Save without asking for confirmation")
	return cmd
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// SaveHistory writes command history to file.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0o700); err != nil {
		return
	}
	if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
		c.line.WriteHistory(f)
		f.Close()
	}
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

func runChat(ctx context.Context, a *app, yes bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := newLineWriter(os.Stdout, ColorsEnabled())
	width := GetTerminalWidth()

	repl := NewChatCLI()
	defer repl.Close()

	s := newChatSession(a, w, width, Confirmer{
		Yes:       yes,
		CanPrompt: IsTTY,
		Ask:       repl.line.Prompt,
	})

	go func() {
		_ = a.serveMetrics(ctx)
	}()

	s.banner()
	for {
		input, err := repl.line.Prompt("you> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			w.println("Goodbye.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		repl.line.AppendHistory(input)

		if s.handle(ctx, input) {
			return nil
		}
	}
}

// chatSession is the REPL state behind the prompt.
type chatSession struct {
	w       *lineWriter
	width   int
	panel   terminalPanel
	ctrl    *session.Controller
	store   itinerary.PlanStore
	planID  string
	confirm itinerary.Confirmer
	export  func(*itinerary.Document, string) (string, error)
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func newChatSession(a *app, w *lineWriter, width int, confirm itinerary.Confirmer) *chatSession {
	theme := styles.NewTheme(a.cfg.UI.Theme)
	panel := terminalPanel{
		Panel: itinerary.NewPanel(theme.GlamourStyle(a.cfg.UI.GlamourStyle)),
		w:     w,
	}
	tr := newTerminalTranscript(w, width, false)
	return &chatSession{
		w:       w,
		width:   width,
		panel:   panel,
		ctrl:    a.newController(a.client, tr, panel),
		store:   a.client,
		planID:  a.cfg.Backend.PlanID,
		confirm: confirm,
		export:  a.exportDocument,
		logger:  a.logger,
		metrics: a.metrics,
	}
}

func (s *chatSession) banner() {
	s.w.println(s.w.style(TitleStyle.Render, "tripplan") + " " + Version)
	s.w.println(s.w.style(DimStyle.Render, "Tell the planner where you want to go. /help for commands, Ctrl+D to exit."))
}

// handle processes one input line and reports whether the REPL should exit.
func (s *chatSession) handle(ctx context.Context, input string) bool {
	if !strings.HasPrefix(input, "/") {
		s.turn(ctx, input)
		return false
	}

	fields := strings.Fields(input)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/q", "/exit":
		s.w.println("Goodbye.")
		return true
	case "/help", "/h", "/?":
		s.help()
	case "/plan", "/p":
		s.showPlan()
	case "/day", "/d":
		s.toggleDay(fields[1:])
	case "/save", "/s":
		s.save(ctx)
	case "/export", "/e":
		s.exportPlan(fields[1:])
	default:
		s.w.println(s.w.style(WarningStyle.Render, "[!] Unknown command "+fields[0]+". Type /help."))
	}
	return false
}

// turn runs one chat turn. Ctrl+C cancels it without leaving the REPL.
func (s *chatSession) turn(ctx context.Context, text string) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	err := s.ctrl.Submit(turnCtx, text)
	s.w.endLine()
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		s.w.println(s.w.style(WarningStyle.Render, "[!] Stopped"))
	default:
		// The failure is already on screen as part of the turn.
		s.logger.Debug("turn failed", zap.Error(err))
	}
}

func (s *chatSession) help() {
	for _, line := range [][2]string{
		{"/plan", "Show the current itinerary"},
		{"/day N", "Open or close day N"},
		{"/save", "Mark the itinerary as planned and save it"},
		{"/export [md|json|html]", "Write the itinerary to a file"},
		{"/quit", "Exit"},
	} {
		s.w.println("  " + RenderLabel(line[0]) + line[1])
	}
}

func (s *chatSession) showPlan() {
	if !s.panel.HasDocument() {
		s.w.println(s.w.style(DimStyle.Render, itinerary.ErrNoDocument.Error()))
		return
	}
	out, err := s.panel.View(s.width)
	if err != nil {
		s.logger.Warn("itinerary render failed", zap.Error(err))
	}
	s.w.println(strings.TrimRight(out, "\n"))
}

func (s *chatSession) toggleDay(args []string) {
	if len(args) != 1 {
		s.w.println(s.w.style(WarningStyle.Render, "[!] Usage: /day N"))
		return
	}
	n, err := strconv.Atoi(args[0])
	doc := s.panel.Document()
	if err != nil || doc == nil || n < 1 || n > len(doc.Days) {
		s.w.println(s.w.style(WarningStyle.Render, "[!] No such day: "+args[0]))
		return
	}
	s.panel.Toggle(n - 1)
	s.showPlan()
}

func (s *chatSession) save(ctx context.Context) {
	err := s.panel.Commit(ctx, s.planID, s.store, s.confirm)

	var ce *backend.ClientError
	if err == nil || errors.As(err, &ce) {
		s.metrics.ObserveCommit(err == nil)
	}

	switch {
	case err == nil:
		s.logger.Info("itinerary saved", zap.String("plan_id", s.planID))
		s.w.println(s.w.style(SuccessStyle.Render, "[OK] Itinerary saved as planned"))
	case errors.Is(err, itinerary.ErrCommitDeclined):
		s.w.println(s.w.style(DimStyle.Render, err.Error()))
	default:
		s.logger.Warn("save failed", zap.String("plan_id", s.planID), zap.Error(err))
		s.w.println(s.w.style(ErrorStyle.Render, "[X] "+err.Error()))
	}
}

func (s *chatSession) exportPlan(args []string) {
	if len(args) > 1 {
		s.w.println(s.w.style(WarningStyle.Render, "[!] Usage: /export [md|json|html]"))
		return
	}
	format := ""
	if len(args) == 1 {
		format = args[0]
	}
	path, err := s.export(s.panel.Document(), format)
	if err != nil {
		s.w.println(s.w.style(ErrorStyle.Render, "[X] "+err.Error()))
		return
	}
	s.w.println(s.w.style(SuccessStyle.Render, "[OK] Exported to "+path))
}
