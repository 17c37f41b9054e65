// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/tripplan-tui/internal/backend"
	"github.com/jeranaias/tripplan-tui/internal/itinerary"
	"github.com/jeranaias/tripplan-tui/internal/metrics"
	"github.com/jeranaias/tripplan-tui/internal/surface"
	"github.com/jeranaias/tripplan-tui/internal/typewriter"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type fakeStreamer struct {
	mu   sync.Mutex
	reqs []backend.ChatRequest
	open func(ctx context.Context) (io.ReadCloser, error)
}

func (f *fakeStreamer) OpenChatStream(ctx context.Context, req backend.ChatRequest) (io.ReadCloser, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	open := f.open
	f.mu.Unlock()
	return open(ctx)
}

func bodyOf(s string) *fakeStreamer {
	return &fakeStreamer{open: func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(s)), nil
	}}
}

type fakeTranscript struct {
	mu    sync.Mutex
	users []string
	slots []*surface.Recorder
}

func (f *fakeTranscript) AppendUserMessage(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, text)
}

func (f *fakeTranscript) StartAssistantTurn() surface.Surface {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := &surface.Recorder{}
	f.slots = append(f.slots, rec)
	return rec
}

func (f *fakeTranscript) slot(i int) *surface.Recorder {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.slots) {
		return nil
	}
	return f.slots[i]
}

type fakePanel struct {
	mu      sync.Mutex
	loading bool
	shows   int
	docs    []*itinerary.Document
}

func (f *fakePanel) ShowLoading() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = true
	f.shows++
}

func (f *fakePanel) HideLoading() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
}

func (f *fakePanel) Render(doc *itinerary.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
}

func frame(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return "data: " + string(b) + "\n\n"
}

func aiDelta(t *testing.T, node, content string) string {
	return frame(t, map[string]any{
		"node":    node,
		"message": map[string]string{"type": "ai", "content": content},
	})
}

const done = "data: [DONE]\n\n"

const tokyoDoc = `{"departure_location":"Taipei","destination":"Tokyo","duration":"3 days","start_date":"2025-04-01","features":"food","days":[{"daily_theme":"Arrival","segments":[]},{"daily_theme":"Temples","segments":[]}]}`

func newController(streamer ChatStreamer, tr *fakeTranscript, panel *fakePanel) *Controller {
	return NewController(streamer, tr, panel, Options{
		UserID:         "1",
		PlanID:         "7",
		TypingInterval: -1,
		Metrics:        metrics.New(),
	})
}

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestSubmit_EmptyMessage(t *testing.T) {
	streamer := bodyOf(done)
	tr := &fakeTranscript{}
	ctrl := newController(streamer, tr, &fakePanel{})

	err := ctrl.Submit(context.Background(), "   \n")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, StateIdle, ctrl.State())
	assert.Empty(t, tr.users)
	assert.Empty(t, streamer.reqs)
}

func TestSubmit_PlanTokyo(t *testing.T) {
	stream := frame(t, map[string]string{"status": "AI is thinking..."}) +
		aiDelta(t, "chat", "Here is ") +
		aiDelta(t, "chat", "your plan:\n```ht") +
		aiDelta(t, "chat", "ml\n<table>…</table>\n``") +
		aiDelta(t, "chat", "`\nEnjoy!") +
		frame(t, map[string]any{"node": "generate_itinerary", "message": "", "itinerary": nil}) +
		frame(t, map[string]any{"node": "generate_itinerary", "message": "", "itinerary": tokyoDoc}) +
		done

	streamer := bodyOf(stream)
	tr := &fakeTranscript{}
	panel := &fakePanel{}
	ctrl := newController(streamer, tr, panel)

	var states []State
	var statesMu sync.Mutex
	ctrl.OnStateChange(func(s State) {
		statesMu.Lock()
		states = append(states, s)
		statesMu.Unlock()
	})

	require.NoError(t, ctrl.Submit(context.Background(), "  Plan Tokyo "))

	assert.Equal(t, []string{"Plan Tokyo"}, tr.users)
	require.Len(t, streamer.reqs, 1)
	assert.Equal(t, backend.ChatRequest{UserID: "1", PlanID: "7", Message: "Plan Tokyo"}, streamer.reqs[0])

	slot := tr.slot(0)
	assert.Equal(t, "Here is your plan:\n<table>…</table>\nEnjoy!", slot.Content())
	assert.Equal(t, []string{"<table>…</table>"}, slot.Blocks())
	assert.NotContains(t, slot.Content(), "thinking", "content replaces the status line")
	assert.True(t, slot.Visible())
	assert.False(t, slot.Active())

	require.Len(t, panel.docs, 1)
	assert.Equal(t, "Tokyo", panel.docs[0].Destination)
	assert.Len(t, panel.docs[0].Days, 2)
	assert.False(t, panel.loading)
	assert.Equal(t, 2, panel.shows)

	assert.Equal(t, StateCompleted, ctrl.State())
	assert.Equal(t, []State{StateSending, StateStreaming, StateCompleted}, states)
	assert.Nil(t, ctrl.Active())
}

func TestSubmit_StatusRoutedNodes(t *testing.T) {
	stream := aiDelta(t, "collect_preferences", "How many days?") + done
	tr := &fakeTranscript{}
	ctrl := newController(bodyOf(stream), tr, &fakePanel{})

	require.NoError(t, ctrl.Submit(context.Background(), "Tokyo"))
	assert.Equal(t, "How many days?", tr.slot(0).Content())
}

func TestSubmit_StatusAfterContentReplacesIt(t *testing.T) {
	stream := aiDelta(t, "chat", "Draft answer text") +
		frame(t, map[string]string{"status": "Revising"}) +
		done
	tr := &fakeTranscript{}
	ctrl := newController(bodyOf(stream), tr, &fakePanel{})

	require.NoError(t, ctrl.Submit(context.Background(), "Tokyo"))
	assert.Equal(t, "Revising", tr.slot(0).Content())
}

func TestSubmit_BackendErrorIsTerminal(t *testing.T) {
	stream := aiDelta(t, "chat", "Hello there") +
		frame(t, map[string]string{"error": "LLM unavailable"}) +
		aiDelta(t, "chat", "must not appear") +
		done
	tr := &fakeTranscript{}
	ctrl := newController(bodyOf(stream), tr, &fakePanel{})

	err := ctrl.Submit(context.Background(), "Tokyo")
	var te *TurnError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, FailBackend, te.Kind)
	assert.Equal(t, "LLM unavailable", te.Error())

	assert.Equal(t, "Hello there\n\n⚠️ Backend error: LLM unavailable", tr.slot(0).Content())
	assert.Equal(t, StateFailed, ctrl.State())
}

func TestSubmit_BackendErrorAfterStatus(t *testing.T) {
	stream := frame(t, map[string]string{"status": "thinking"}) +
		frame(t, map[string]string{"error": "boom"}) + done
	tr := &fakeTranscript{}
	ctrl := newController(bodyOf(stream), tr, &fakePanel{})

	require.Error(t, ctrl.Submit(context.Background(), "Tokyo"))
	assert.Equal(t, "⚠️ Backend error: boom", tr.slot(0).Content())
}

func TestSubmit_RequestRejected(t *testing.T) {
	streamer := &fakeStreamer{open: func(context.Context) (io.ReadCloser, error) {
		return nil, &backend.ClientError{Type: backend.ErrTypeStatus, StatusCode: 500, Message: "quota exhausted"}
	}}
	tr := &fakeTranscript{}
	ctrl := newController(streamer, tr, &fakePanel{})

	err := ctrl.Submit(context.Background(), "Tokyo")
	var te *TurnError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, FailRequest, te.Kind)
	assert.True(t, backend.IsStatus(err))

	slot := tr.slot(0)
	assert.Equal(t, "⚠️ Request failed: quota exhausted", slot.Content())
	assert.True(t, slot.Visible())
	assert.Equal(t, StateFailed, ctrl.State())
}

func TestSubmit_MalformedFrameSkipped(t *testing.T) {
	stream := "data: {not json\n\n" +
		": keep-alive\n\n" +
		aiDelta(t, "chat", "Still here") +
		done
	tr := &fakeTranscript{}
	ctrl := newController(bodyOf(stream), tr, &fakePanel{})

	require.NoError(t, ctrl.Submit(context.Background(), "Tokyo"))
	assert.Equal(t, "Still here", tr.slot(0).Content())
}

func TestSubmit_StreamWithoutDoneCompletes(t *testing.T) {
	stream := aiDelta(t, "chat", "Short") + aiDelta(t, "chat", "!")
	tr := &fakeTranscript{}
	ctrl := newController(bodyOf(stream), tr, &fakePanel{})

	require.NoError(t, ctrl.Submit(context.Background(), "Tokyo"))
	assert.Equal(t, "Short!", tr.slot(0).Content())
	assert.Equal(t, StateCompleted, ctrl.State())
}

func TestSubmit_ShortTailFlushedAtEnd(t *testing.T) {
	stream := aiDelta(t, "chat", "Ok!") + done
	tr := &fakeTranscript{}
	ctrl := newController(bodyOf(stream), tr, &fakePanel{})

	require.NoError(t, ctrl.Submit(context.Background(), "Tokyo"))
	assert.Equal(t, "Ok!", tr.slot(0).Content())
}

func TestSubmit_StreamInterrupted(t *testing.T) {
	streamer := &fakeStreamer{open: func(context.Context) (io.ReadCloser, error) {
		r := io.MultiReader(
			strings.NewReader(aiDelta(t, "chat", "Partial answer")),
			iotest.ErrReader(errors.New("connection reset")),
		)
		return io.NopCloser(r), nil
	}}
	panel := &fakePanel{}
	tr := &fakeTranscript{}
	ctrl := newController(streamer, tr, panel)

	err := ctrl.Submit(context.Background(), "Tokyo")
	var te *TurnError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, FailStream, te.Kind)
	assert.Equal(t, "Partial answer\n\n⚠️ Stream interrupted: connection reset", tr.slot(0).Content())
	assert.Equal(t, StateFailed, ctrl.State())
}

func TestSubmit_LoadingHiddenWhenTurnEndsWithoutItinerary(t *testing.T) {
	stream := frame(t, map[string]any{"node": "generate_itinerary", "message": ""}) + done
	panel := &fakePanel{}
	ctrl := newController(bodyOf(stream), &fakeTranscript{}, panel)

	require.NoError(t, ctrl.Submit(context.Background(), "Tokyo"))
	assert.Equal(t, 1, panel.shows)
	assert.False(t, panel.loading)
}

// =============================================================================
// CANCELLATION TESTS
// =============================================================================

func TestSubmit_NewTurnCancelsPrevious(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	first := &fakeStreamer{open: func(context.Context) (io.ReadCloser, error) {
		pr, pw := io.Pipe()
		go func() {
			long := strings.Repeat("slow text ", 50)
			if _, err := io.WriteString(pw, aiDelta(t, "chat", long)); err != nil {
				return
			}
			for {
				if _, err := io.WriteString(pw, aiDelta(t, "chat", "more")); err != nil {
					return
				}
			}
		}()
		return pr, nil
	}}

	tr := &fakeTranscript{}
	panel := &fakePanel{}
	ctrl := NewController(first, tr, panel, Options{TypingInterval: 5 * time.Millisecond})

	firstErr := make(chan error, 1)
	go func() {
		firstErr <- ctrl.Submit(context.Background(), "first")
	}()

	require.Eventually(t, func() bool {
		s := tr.slot(0)
		return s != nil && len(s.Content()) > 5
	}, 2*time.Second, 5*time.Millisecond)

	// The second turn uses an instant, complete stream.
	first.mu.Lock()
	first.open = func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(aiDelta(t, "chat", "Second answer") + done)), nil
	}
	first.mu.Unlock()
	ctrl.SetTypingInterval(-1)

	require.NoError(t, ctrl.Submit(context.Background(), "second"))

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("first turn did not stop")
	}

	frozen := tr.slot(0).Content()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, frozen, tr.slot(0).Content(), "cancelled turn must not keep typing")
	assert.Less(t, len(frozen), 500)

	assert.Equal(t, "Second answer", tr.slot(1).Content())
	assert.Equal(t, StateCompleted, ctrl.State())
	assert.Equal(t, []string{"first", "second"}, tr.users)
}

func TestCancel_StopsActiveTurn(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	streamer := &fakeStreamer{open: func(ctx context.Context) (io.ReadCloser, error) {
		pr, pw := io.Pipe()
		go func() {
			io.WriteString(pw, frame(t, map[string]string{"status": "thinking"}))
			<-ctx.Done()
			pw.CloseWithError(ctx.Err())
		}()
		return pr, nil
	}}
	ctrl := NewController(streamer, &fakeTranscript{}, &fakePanel{}, Options{TypingInterval: -1})

	errCh := make(chan error, 1)
	go func() { errCh <- ctrl.Submit(context.Background(), "hello") }()

	require.Eventually(t, func() bool { return ctrl.State() == StateStreaming }, time.Second, time.Millisecond)
	ctrl.Cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("turn did not stop")
	}
	assert.Equal(t, StateIdle, ctrl.State())
}

// =============================================================================
// END-TO-END
// =============================================================================

func TestSubmit_AgainstHTTPBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req backend.ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		writes := []string{
			`data: {"status": "AI 正在思考中..."}` + "\n\n",
			aiDelta(t, "chat", "Reply to: "+req.Message),
			"data: [DO", "NE]\n\n",
		}
		for _, chunk := range writes {
			fmt.Fprint(w, chunk)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	client := backend.NewClient(&backend.Config{BaseURL: srv.URL})
	tr := &fakeTranscript{}
	ctrl := NewController(client, tr, &fakePanel{}, Options{UserID: "1", PlanID: "1", TypingInterval: time.Microsecond})

	require.NoError(t, ctrl.Submit(context.Background(), "Kyoto"))
	assert.Equal(t, "Reply to: Kyoto", tr.slot(0).Content())
}

// =============================================================================
// TYPING SESSION TESTS
// =============================================================================

func TestTypingSession_Modes(t *testing.T) {
	rec := &surface.Recorder{}
	ts := newTypingSession(context.Background(), rec, typewriter.New(-1), -1)
	defer ts.Cancel()

	assert.Equal(t, ModeContent, ts.Mode())

	require.NoError(t, ts.showStatus("thinking"))
	assert.Equal(t, ModeStatus, ts.Mode())
	assert.Equal(t, "thinking", rec.Content())

	require.NoError(t, ts.appendContent("Hello world ```html\n<p>"))
	assert.Equal(t, ModeContent, ts.Mode())
	assert.True(t, ts.InStructuredBlock())
	assert.Empty(t, rec.Content(), "text before an open fence is held")
	assert.Empty(t, rec.Blocks())

	require.NoError(t, ts.appendContent("</p>\n```"))
	assert.False(t, ts.InStructuredBlock())
	assert.Equal(t, "Hello world ", rec.Content())
	assert.Equal(t, []string{"<p></p>"}, rec.Blocks())

	// The prose is written before the block it precedes.
	var typed strings.Builder
	var sawBlock bool
	for _, c := range rec.Calls() {
		switch c.Op {
		case surface.OpClear:
			typed.Reset()
		case surface.OpText:
			assert.False(t, sawBlock, "text %q written after the block", c.Text)
			typed.WriteString(c.Text)
		case surface.OpBlock:
			assert.Equal(t, "Hello world ", typed.String())
			sawBlock = true
		}
	}
	assert.True(t, sawBlock)
}

func TestTypingSession_CancelledWritesNothing(t *testing.T) {
	rec := &surface.Recorder{}
	ts := newTypingSession(context.Background(), rec, typewriter.New(-1), -1)
	ts.Cancel()

	assert.ErrorIs(t, ts.appendContent("Hello world"), context.Canceled)
	assert.ErrorIs(t, ts.showStatus("x"), context.Canceled)
	assert.Empty(t, rec.Calls())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.True(t, StateSending.Busy())
	assert.False(t, StateCompleted.Busy())
	assert.Equal(t, "status", ModeStatus.String())
}
