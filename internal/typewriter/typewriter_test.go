// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package typewriter

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) AppendText(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestType_OneRunePerCall(t *testing.T) {
	rec := &recorder{}
	err := New(0).Type(context.Background(), "東京 ok", rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"東", "京", " ", "o", "k"}, rec.snapshot())
}

func TestType_Empty(t *testing.T) {
	rec := &recorder{}
	require.NoError(t, New(time.Millisecond).Type(context.Background(), "", rec))
	assert.Empty(t, rec.snapshot())
}

func TestType_PacesCharacters(t *testing.T) {
	rec := &recorder{}
	start := time.Now()
	require.NoError(t, New(10*time.Millisecond).Type(context.Background(), "abcd", rec))
	elapsed := time.Since(start)

	assert.Equal(t, "abcd", strings.Join(rec.snapshot(), ""))
	// First rune is immediate, three waits follow.
	assert.GreaterOrEqual(t, elapsed, 25*time.Millisecond)
}

func TestType_CancelStopsRun(t *testing.T) {
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())

	done := New(20*time.Millisecond).Go(ctx, strings.Repeat("x", 100), rec)
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("run did not stop after cancel")
	}

	written := len(rec.snapshot())
	assert.Less(t, written, 100)

	// Nothing else is appended once the run has returned.
	time.Sleep(60 * time.Millisecond)
	assert.Len(t, rec.snapshot(), written)
}

func TestType_AlreadyCancelled(t *testing.T) {
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(0).Type(ctx, "abc", rec)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.snapshot())
}

func TestGo_SerializedRunsKeepOrder(t *testing.T) {
	rec := &recorder{}
	a := New(time.Millisecond)
	ctx := context.Background()

	require.NoError(t, <-a.Go(ctx, "first ", rec))
	require.NoError(t, <-a.Go(ctx, "second", rec))
	assert.Equal(t, "first second", strings.Join(rec.snapshot(), ""))
}

func TestSinkFunc(t *testing.T) {
	var b strings.Builder
	require.NoError(t, New(0).Type(context.Background(), "hi", SinkFunc(func(s string) { b.WriteString(s) })))
	assert.Equal(t, "hi", b.String())
}
