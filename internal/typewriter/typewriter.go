// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package typewriter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the delay between two characters.
const DefaultInterval = 50 * time.Millisecond

// Sink receives revealed characters. Each call appends to the end of
// whatever the sink currently shows.
type Sink interface {
	AppendText(s string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(s string)

// AppendText implements Sink.
func (f SinkFunc) AppendText(s string) { f(s) }

// Animator paces character reveals.
type Animator struct {
	interval time.Duration
}

// New creates an animator. An interval <= 0 reveals text as fast as the
// sink accepts it, still one character per call.
func New(interval time.Duration) *Animator {
	return &Animator{interval: interval}
}

// Interval returns the delay between characters.
func (a *Animator) Interval() time.Duration {
	return a.interval
}

// Type appends text to sink one rune at a time and returns when every rune
// has been written or ctx is done. The first rune is written immediately.
func (a *Animator) Type(ctx context.Context, text string, sink Sink) error {
	if text == "" {
		return ctx.Err()
	}

	limit := rate.Inf
	if a.interval > 0 {
		limit = rate.Every(a.interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	for _, r := range text {
		if err := limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			// The limiter refuses waits that would overrun the deadline.
			return context.DeadlineExceeded
		}
		sink.AppendText(string(r))
	}
	return nil
}

// Go starts Type in a goroutine. The returned channel receives the result
// once and is then closed.
func (a *Animator) Go(ctx context.Context, text string, sink Sink) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- a.Type(ctx, text, sink)
	}()
	return done
}
