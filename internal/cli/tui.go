// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/tripplan-tui/internal/config"
	"github.com/jeranaias/tripplan-tui/internal/itinerary"
	"github.com/jeranaias/tripplan-tui/internal/transcript"
	"github.com/jeranaias/tripplan-tui/internal/ui/chat"
	"github.com/jeranaias/tripplan-tui/internal/ui/styles"
)

// Global program reference for messages sent from background goroutines
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func setProgram(p *tea.Program) {
	programMu.Lock()
	defer programMu.Unlock()
	programRef = p
}

// sendToProgram delivers msg to the running program, if any.
func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// =============================================================================
// PLANNER SCREEN
// =============================================================================

func runTUI(ctx context.Context, a *app) error {
	if err := RequiresTTY("open the planner screen"); err != nil {
		return fmt.Errorf("%w (try 'tripplan chat')", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	theme := styles.NewTheme(a.cfg.UI.Theme)
	tr := transcript.New()
	panel := itinerary.NewPanel(theme.GlamourStyle(a.cfg.UI.GlamourStyle))
	ctrl := a.newController(a.client, tr, panel)

	model := chat.New(chat.Options{
		Controller:        ctrl,
		Transcript:        tr,
		Panel:             panel,
		Store:             a.client,
		PlanID:            a.cfg.Backend.PlanID,
		Export:            func(doc *itinerary.Document) (string, error) { return a.exportDocument(doc, "") },
		Theme:             theme,
		GlamourStyle:      a.cfg.UI.GlamourStyle,
		ScrollThreshold:   a.cfg.UI.ScrollThresholdLines,
		PanelWidthPercent: a.cfg.UI.PanelWidthPercent,
		Context:           ctx,
		Logger:            a.logger,
		Metrics:           a.metrics,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	setProgram(p)
	defer setProgram(nil)

	var watchDone <-chan struct{}
	if a.cfgPath != "" {
		done, err := config.Watch(ctx, a.cfgPath, func(cfg *config.Config, err error) {
			if cfg != nil {
				a.overrides(cfg)
			}
			sendToProgram(chat.ConfigReloadedMsg{Config: cfg, Err: err})
		})
		if err != nil {
			a.logger.Warn("config watch disabled", zap.Error(err))
		} else {
			watchDone = done
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})
	g.Go(func() error {
		return a.serveMetrics(gctx)
	})
	err := g.Wait()

	ctrl.Cancel()
	if watchDone != nil {
		<-watchDone
	}
	if err != nil {
		return fmt.Errorf("planner screen failed: %w", err)
	}
	return nil
}

