// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/tripplan-tui/internal/backend"
	"github.com/jeranaias/tripplan-tui/internal/event"
	"github.com/jeranaias/tripplan-tui/internal/itinerary"
	"github.com/jeranaias/tripplan-tui/internal/metrics"
	"github.com/jeranaias/tripplan-tui/internal/sse"
	"github.com/jeranaias/tripplan-tui/internal/surface"
	"github.com/jeranaias/tripplan-tui/internal/typewriter"
)

// =============================================================================
// STATE
// =============================================================================

// State is the lifecycle state of the current turn.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateCompleted
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Busy reports whether a turn is in flight.
func (s State) Busy() bool {
	return s == StateSending || s == StateStreaming
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrEmptyMessage is returned by Submit for blank input. Nothing changes.
var ErrEmptyMessage = errors.New("message is empty")

// FailureKind says which stage of a turn failed.
type FailureKind int

const (
	// FailRequest: the stream could not be opened.
	FailRequest FailureKind = iota + 1

	// FailBackend: the backend reported an error inside the stream.
	FailBackend

	// FailStream: the connection broke while streaming.
	FailStream
)

// TurnError describes a failed turn.
type TurnError struct {
	Kind FailureKind
	Err  error
}

func (e *TurnError) Error() string {
	return e.Err.Error()
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// User-visible failure messages.
const (
	requestFailedFormat = "⚠️ Request failed: %s"
	backendErrorFormat  = "⚠️ Backend error: %s"
	streamFailedFormat  = "⚠️ Stream interrupted: %s"
)

// errTurnOver stops the frame pipeline after a terminal action.
var errTurnOver = errors.New("turn over")

// =============================================================================
// COLLABORATORS
// =============================================================================

// ChatStreamer opens the SSE stream for one turn.
type ChatStreamer interface {
	OpenChatStream(ctx context.Context, req backend.ChatRequest) (io.ReadCloser, error)
}

// Transcript receives user messages and hands out assistant slots.
type Transcript interface {
	AppendUserMessage(text string)
	StartAssistantTurn() surface.Surface
}

// ItineraryPanel displays the structured plan.
type ItineraryPanel interface {
	ShowLoading()
	HideLoading()
	Render(doc *itinerary.Document)
}

// Options configures a Controller.
type Options struct {
	UserID string
	PlanID string

	// TypingInterval is the delay between revealed characters.
	// Zero means typewriter.DefaultInterval; negative reveals instantly.
	TypingInterval time.Duration

	// NoiseThreshold is passed to the block extractor. Zero or negative
	// means blocks.DefaultNoiseThreshold.
	NoiseThreshold int

	// MaxFrameSize bounds a single SSE frame. Zero means the default.
	MaxFrameSize int

	Interpreter *event.Interpreter
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs chat turns. It is safe for concurrent use; Submit may be
// called while a previous Submit is still running, which cancels it.
type Controller struct {
	streamer   ChatStreamer
	transcript Transcript
	panel      ItineraryPanel
	interp     *event.Interpreter
	logger     *zap.Logger
	metrics    *metrics.Metrics
	opts       Options

	mu       sync.Mutex
	state    State
	active   *TypingSession
	interval time.Duration
	onState  func(State)
}

// NewController creates a controller.
func NewController(streamer ChatStreamer, tr Transcript, panel ItineraryPanel, opts Options) *Controller {
	if opts.Interpreter == nil {
		opts.Interpreter = event.NewInterpreter()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TypingInterval == 0 {
		opts.TypingInterval = typewriter.DefaultInterval
	}
	if opts.NoiseThreshold <= 0 {
		opts.NoiseThreshold = -1
	}

	return &Controller{
		streamer:   streamer,
		transcript: tr,
		panel:      panel,
		interp:     opts.Interpreter,
		logger:     opts.Logger.Named("session"),
		metrics:    opts.Metrics,
		opts:       opts,
		interval:   opts.TypingInterval,
	}
}

// OnStateChange registers fn to be called on every state transition.
func (c *Controller) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active returns the typing session of the turn in flight, or nil.
func (c *Controller) Active() *TypingSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SetTypingInterval changes the reveal pace for subsequent turns.
func (c *Controller) SetTypingInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d == 0 {
		d = typewriter.DefaultInterval
	}
	c.interval = d
}

// TypingInterval returns the reveal pace used for the next turn.
func (c *Controller) TypingInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// Cancel stops the turn in flight, if any.
func (c *Controller) Cancel() {
	c.mu.Lock()
	ts := c.active
	c.mu.Unlock()
	if ts != nil {
		ts.Cancel()
	}
}

// Submit runs one chat turn and blocks until it ends. It returns nil when
// the turn completes, ErrEmptyMessage for blank input, a *TurnError when
// the turn fails, or the context error when the turn is cancelled.
func (c *Controller) Submit(ctx context.Context, message string) error {
	text := strings.TrimSpace(message)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if prev := c.active; prev != nil {
		prev.Cancel()
		c.logger.Debug("cancelled previous turn", zap.String("turn", prev.ID))
	}
	animator := typewriter.New(c.interval)
	c.mu.Unlock()

	c.panel.HideLoading()
	c.transcript.AppendUserMessage(text)
	ts := newTypingSession(ctx, c.transcript.StartAssistantTurn(), animator, c.opts.NoiseThreshold)
	ts.onBlock = c.metrics.ObserveRawBlock
	defer ts.cancel()

	c.mu.Lock()
	c.active = ts
	c.mu.Unlock()
	c.transition(ts, StateSending)

	log := c.logger.With(zap.String("turn", ts.ID))
	log.Info("turn started", zap.Int("message_len", len(text)))

	start := time.Now()
	err := c.run(ts, log, text, start)
	c.finish(ts, log, err, start)
	return err
}

func (c *Controller) run(ts *TypingSession, log *zap.Logger, text string, start time.Time) error {
	body, err := c.streamer.OpenChatStream(ts.ctx, backend.ChatRequest{
		UserID:  c.opts.UserID,
		PlanID:  c.opts.PlanID,
		Message: text,
	})
	if err != nil {
		if ctxErr := ts.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Warn("chat request failed", zap.Error(err))
		_ = ts.typeMessage(fmt.Sprintf(requestFailedFormat, err.Error()))
		return &TurnError{Kind: FailRequest, Err: err}
	}

	c.transition(ts, StateStreaming)
	ts.setActive(true)
	defer ts.setActive(false)

	return c.stream(ts, log, body, start)
}

// stream pumps frames from body through the interpreter. A reader
// goroutine decodes frames; this goroutine renders them in order.
func (c *Controller) stream(ts *TypingSession, log *zap.Logger, body io.ReadCloser, start time.Time) error {
	defer body.Close()

	g, gctx := errgroup.WithContext(ts.ctx)
	stop := context.AfterFunc(gctx, func() { body.Close() })
	defer stop()

	frames := make(chan sse.Frame)

	g.Go(func() error {
		defer close(frames)
		dec := sse.NewDecoderSize(body, c.opts.MaxFrameSize)
		for {
			frame, err := dec.Next()
			if err != nil {
				if errors.Is(err, io.EOF) || gctx.Err() != nil {
					return nil
				}
				return &TurnError{Kind: FailStream, Err: err}
			}
			select {
			case frames <- frame:
			case <-gctx.Done():
				return nil
			}
		}
	})

	var backendErr *TurnError
	g.Go(func() error {
		first := true
		for frame := range frames {
			if first {
				c.metrics.ObserveFirstFrame(time.Since(start))
				first = false
			}
			end, err := c.handleFrame(ts, log, frame)
			if err != nil {
				return err
			}
			if end == nil {
				continue
			}
			if end.Reason == event.EndError {
				log.Warn("backend reported error", zap.String("error", end.Text))
				_ = ts.typeMessage(fmt.Sprintf(backendErrorFormat, end.Text))
				backendErr = &TurnError{Kind: FailBackend, Err: errors.New(end.Text)}
			}
			return errTurnOver
		}
		return nil
	})

	err := g.Wait()
	if ctxErr := ts.ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if backendErr != nil {
		return backendErr
	}
	if err != nil && !errors.Is(err, errTurnOver) {
		log.Warn("stream interrupted", zap.Error(err))
		_ = ts.flush()
		var te *TurnError
		if errors.As(err, &te) {
			_ = ts.typeMessage(fmt.Sprintf(streamFailedFormat, te.Err.Error()))
		}
		return err
	}

	if err := ts.flush(); err != nil {
		return err
	}
	return nil
}

// handleFrame renders one frame. It returns the terminal action when the
// frame ends the stream.
func (c *Controller) handleFrame(ts *TypingSession, log *zap.Logger, frame sse.Frame) (*event.Action, error) {
	c.metrics.ObserveFrame()

	actions, err := c.interp.Interpret(frame.Data)
	if err != nil {
		c.metrics.ObserveDecodeError()
		log.Warn("skipping undecodable stream data", zap.Error(err))
	}

	for i := range actions {
		a := actions[i]
		if !ts.live() {
			return nil, ts.ctx.Err()
		}
		c.metrics.ObserveAction(a.Kind.String())

		switch a.Kind {
		case event.KindStatusUpdate:
			if err := ts.showStatus(a.Text); err != nil {
				return nil, err
			}
		case event.KindItineraryLoadingStarted:
			c.panel.ShowLoading()
		case event.KindContentDelta:
			if err := ts.appendContent(a.Text); err != nil {
				return nil, err
			}
		case event.KindItineraryLoadingEnded:
			c.panel.HideLoading()
		case event.KindItineraryReady:
			log.Info("itinerary received", zap.Int("days", len(a.Document.Days)))
			c.panel.Render(a.Document)
		case event.KindStreamEnd:
			return &a, nil
		}
	}
	return nil, nil
}

func (c *Controller) transition(ts *TypingSession, state State) {
	c.mu.Lock()
	if c.active != ts {
		c.mu.Unlock()
		return
	}
	c.state = state
	notify := c.onState
	c.mu.Unlock()

	if notify != nil {
		notify(state)
	}
}

func (c *Controller) finish(ts *TypingSession, log *zap.Logger, err error, start time.Time) {
	elapsed := time.Since(start)

	var (
		state   State
		outcome string
	)
	switch {
	case err == nil:
		state, outcome = StateCompleted, metrics.OutcomeCompleted
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		state, outcome = StateIdle, metrics.OutcomeCancelled
	default:
		state, outcome = StateFailed, metrics.OutcomeFailed
	}
	c.metrics.ObserveTurn(outcome, elapsed)

	if outcome != metrics.OutcomeCancelled {
		c.panel.HideLoading()
	}
	log.Info("turn finished", zap.String("outcome", outcome), zap.Duration("elapsed", elapsed), zap.Error(err))

	c.transition(ts, state)

	c.mu.Lock()
	if c.active == ts {
		c.active = nil
	}
	c.mu.Unlock()
}
