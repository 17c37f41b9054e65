// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/tripplan-tui/internal/backend"
	"github.com/jeranaias/tripplan-tui/internal/itinerary"
	"github.com/jeranaias/tripplan-tui/internal/ui/styles"
)

// =============================================================================
// COMMAND
// =============================================================================

func newReplayCommand(a *app) *cobra.Command {
	var (
		showPlan bool
		format   string
	)
	cmd := &cobra.Command{
		Use:   "replay FILE|-",
		Short: "Play a captured event stream through the planner offline",
		Long: `Reads a captured server-sent event stream (one 'data:' line per frame)
and renders it exactly as a live turn would be rendered. Use - for stdin.

Example:
  curl -N -d '{"user_id":"1","plan_id":"7","message":"Tokyo"}' \
       http://localhost:8000/api/travel/chat/stream > turn.sse
  tripplan replay turn.sse --typing-ms -1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), a, args[0], cmd.InOrStdin(), cmd.OutOrStdout(), replayOptions{
				showPlan: showPlan,
				export:   format != "",
				format:   format,
			})
		},
	}
	cmd.Flags().BoolVar(&showPlan, "plan", true, "Print the itinerary after the stream ends")
	cmd.Flags().StringVar(&format, "export", "", "Also write the itinerary to a file (md, json or html)")
	return cmd
}

// =============================================================================
// REPLAY
// =============================================================================

// replayStreamer serves one captured stream in place of the backend.
type replayStreamer struct {
	mu sync.Mutex
	rc io.ReadCloser
}

// OpenChatStream implements session.ChatStreamer.
func (s *replayStreamer) OpenChatStream(ctx context.Context, _ backend.ChatRequest) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rc == nil {
		return nil, errors.New("stream already replayed")
	}
	rc := s.rc
	s.rc = nil
	return rc, nil
}

func openReplaySource(name string, stdin io.Reader) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	return f, nil
}

type replayOptions struct {
	showPlan bool
	export   bool
	format   string
}

func runReplay(ctx context.Context, a *app, name string, stdin io.Reader, out io.Writer, ro replayOptions) error {
	src, err := openReplaySource(name, stdin)
	if err != nil {
		return err
	}

	ansi := ColorsEnabled() && out == io.Writer(os.Stdout)
	w := newLineWriter(out, ansi)
	width := GetTerminalWidth()

	theme := styles.NewTheme(a.cfg.UI.Theme)
	panel := terminalPanel{
		Panel: itinerary.NewPanel(theme.GlamourStyle(a.cfg.UI.GlamourStyle)),
		w:     w,
	}
	tr := newTerminalTranscript(w, width, false)
	ctrl := a.newController(&replayStreamer{rc: src}, tr, panel)

	a.logger.Info("replaying capture", zap.String("source", name))
	err = ctrl.Submit(ctx, "replay "+name)
	w.endLine()

	if ro.showPlan && panel.HasDocument() {
		view, verr := panel.View(width)
		if verr != nil {
			a.logger.Warn("itinerary render failed", zap.Error(verr))
		}
		w.println(strings.TrimRight(view, "\n"))
	}

	if ro.export && panel.HasDocument() {
		path, xerr := a.exportDocument(panel.Document(), ro.format)
		if xerr != nil {
			return xerr
		}
		w.println(w.style(SuccessStyle.Render, "[OK] Exported to "+path))
	}

	if err != nil {
		return fmt.Errorf("replay ended with an error: %w", err)
	}
	return nil
}
