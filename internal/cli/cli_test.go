// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/tripplan-tui/internal/backend"
	"github.com/jeranaias/tripplan-tui/internal/config"
	"github.com/jeranaias/tripplan-tui/internal/itinerary"
)

// =============================================================================
// HELPERS
// =============================================================================

const tokyoDoc = `{"departure_location":"Taipei","destination":"Tokyo","duration":"3 days","start_date":"2025-04-01","features":"food","days":[{"daily_theme":"Arrival","segments":[]},{"daily_theme":"Temples","segments":[]}]}`

func frame(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return "data: " + string(b) + "\n\n"
}

func aiDelta(t *testing.T, content string) string {
	return frame(t, map[string]any{
		"node":    "chat",
		"message": map[string]string{"type": "ai", "content": content},
	})
}

const done = "data: [DONE]\n\n"

// planStream is a turn that writes a sentence and delivers an itinerary.
func planStream(t *testing.T) string {
	return aiDelta(t, "Here is your plan for Tokyo.") +
		frame(t, map[string]any{"node": "generate_itinerary", "message": ""}) +
		frame(t, map[string]any{"node": "generate_itinerary", "message": "", "itinerary": tokyoDoc}) +
		done
}

// isolate points HOME at a temp dir and clears the environment overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, name := range []string{
		"TRIPPLAN_BASE_URL", "TRIPPLAN_USER_ID", "TRIPPLAN_PLAN_ID",
		"TRIPPLAN_TYPING_MS", "TRIPPLAN_LOG_LEVEL", "TRIPPLAN_THEME",
	} {
		t.Setenv(name, "")
	}
	config.ResetGlobalForTesting()
	t.Cleanup(config.ResetGlobalForTesting)
	return home
}

func newTestApp(t *testing.T, baseURL string) *app {
	t.Helper()
	cfg := config.Default()
	cfg.Backend.BaseURL = baseURL
	cfg.Backend.PlanID = "7"
	cfg.Stream.TypingIntervalMs = -1
	return &app{
		cfg:       cfg,
		logger:    zap.NewNop(),
		client:    backend.NewClient(&backend.Config{BaseURL: baseURL}),
		overrides: func(*config.Config) {},
	}
}

// planServer is a fake planning service.
type planServer struct {
	*httptest.Server

	mu     sync.Mutex
	stream string
	saved  []byte
	status int
}

func newPlanServer(t *testing.T, stream string) *planServer {
	ps := &planServer{stream: stream, status: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/travel/chat/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		ps.mu.Lock()
		body := ps.stream
		ps.mu.Unlock()
		io.WriteString(w, body)
	})
	mux.HandleFunc("/api/travel/plans/7/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		ps.mu.Lock()
		ps.saved = body
		status := ps.status
		ps.mu.Unlock()
		w.WriteHeader(status)
		if status >= 400 {
			io.WriteString(w, `{"detail":"plan is locked"}`)
			return
		}
		io.WriteString(w, `{}`)
	})
	ps.Server = httptest.NewServer(mux)
	t.Cleanup(ps.Close)
	return ps
}

func (ps *planServer) savedBody() []byte {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.saved
}

func newTestSession(a *app, out *bytes.Buffer, confirm itinerary.Confirmer) *chatSession {
	return newChatSession(a, newLineWriter(out, false), 80, confirm)
}

// =============================================================================
// CONFIRMATION TESTS
// =============================================================================

func TestConfirmer(t *testing.T) {
	tty := func() bool { return true }
	noTTY := func() bool { return false }
	answer := func(s string) func(string) (string, error) {
		return func(string) (string, error) { return s, nil }
	}

	t.Run("yes flag skips the question", func(t *testing.T) {
		ok, err := Confirmer{Yes: true, CanPrompt: noTTY}.Confirm("save?")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("no terminal", func(t *testing.T) {
		_, err := Confirmer{CanPrompt: noTTY, Ask: answer("y")}.Confirm("save?")
		assert.ErrorIs(t, err, ErrConfirmationRequired)
	})

	t.Run("prompt wording", func(t *testing.T) {
		var asked string
		c := Confirmer{CanPrompt: tty, Ask: func(p string) (string, error) {
			asked = p
			return "yes", nil
		}}
		ok, err := c.Confirm("Save it?")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Save it? [y/N]: ", asked)
	})

	t.Run("read error", func(t *testing.T) {
		c := Confirmer{CanPrompt: tty, Ask: func(string) (string, error) { return "", io.ErrUnexpectedEOF }}
		_, err := c.Confirm("save?")
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	tests := []struct {
		answer string
		want   bool
	}{
		{"y", true},
		{"Y", true},
		{" yes ", true},
		{"n", false},
		{"", false},
		{"sure", false},
	}
	for _, tt := range tests {
		t.Run("answer "+tt.answer, func(t *testing.T) {
			ok, err := Confirmer{CanPrompt: tty, Ask: answer(tt.answer)}.Confirm("save?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

// =============================================================================
// LINE-MODE SURFACE TESTS
// =============================================================================

func TestTerminalSurface_StatusThenContent(t *testing.T) {
	var out bytes.Buffer
	w := newLineWriter(&out, false)
	surf := newTerminalTranscript(w, 80, false).StartAssistantTurn()

	surf.SetVisible(true)
	surf.(*terminalSurface).MarkStatus(true)
	surf.AppendText("Collecting your preferences...")
	surf.Clear()
	surf.(*terminalSurface).MarkStatus(false)
	surf.AppendText("Tokyo it is.")
	surf.SetActive(false)

	assert.Equal(t, "Planner:\nCollecting your preferences...\nTokyo it is.\n", out.String())
}

func TestTerminalSurface_ANSIClearErasesStatusLine(t *testing.T) {
	var out bytes.Buffer
	w := newLineWriter(&out, true)
	surf := newTerminalTranscript(w, 80, false).StartAssistantTurn()

	surf.AppendText("status")
	surf.Clear()
	surf.AppendText("answer")

	assert.Equal(t, "status"+clearLine+"answer", out.String())
}

func TestTerminalSurface_BlockAsText(t *testing.T) {
	var out bytes.Buffer
	w := newLineWriter(&out, false)
	surf := newTerminalTranscript(w, 80, false).StartAssistantTurn()

	surf.AppendText("Plan:")
	surf.AppendRawBlock("<table><tr><td>Day 1</td><td>Asakusa</td></tr></table>")
	surf.AppendText("Enjoy!")

	got := out.String()
	assert.True(t, strings.HasPrefix(got, "Plan:\n"))
	assert.Contains(t, got, "Day 1")
	assert.Contains(t, got, "Asakusa")
	assert.NotContains(t, got, "<td>")
	assert.True(t, strings.HasSuffix(got, "Enjoy!"))
}

func TestTerminalTranscript_EchoUser(t *testing.T) {
	var out bytes.Buffer
	newTerminalTranscript(newLineWriter(&out, false), 80, true).AppendUserMessage("Tokyo please")
	assert.Equal(t, "You: Tokyo please\n", out.String())

	out.Reset()
	newTerminalTranscript(newLineWriter(&out, false), 80, false).AppendUserMessage("Tokyo please")
	assert.Empty(t, out.String())
}

// =============================================================================
// CHAT SESSION TESTS
// =============================================================================

func TestApp_NewControllerTypingInterval(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1")
	assert.Less(t, a.newController(a.client, nil, nil).TypingInterval(), time.Duration(0))

	a.cfg.Stream.TypingIntervalMs = 25
	assert.Equal(t, 25*time.Millisecond, a.newController(a.client, nil, nil).TypingInterval())
}

func TestChatSession_TurnAndPlan(t *testing.T) {
	ps := newPlanServer(t, planStream(t))
	a := newTestApp(t, ps.URL)
	var out bytes.Buffer
	s := newTestSession(a, &out, Confirmer{Yes: true})

	assert.False(t, s.handle(context.Background(), "Plan three days in Tokyo"))
	got := out.String()
	assert.Contains(t, got, "Planner:")
	assert.Contains(t, got, "Here is your plan for Tokyo.")
	assert.Contains(t, got, "[i] Building your itinerary...")
	assert.Contains(t, got, "[OK] Itinerary ready: Tokyo")

	out.Reset()
	s.handle(context.Background(), "/plan")
	assert.Contains(t, out.String(), "Tokyo")
	assert.Contains(t, out.String(), "Arrival")
}

func TestChatSession_DayToggle(t *testing.T) {
	ps := newPlanServer(t, planStream(t))
	a := newTestApp(t, ps.URL)
	var out bytes.Buffer
	s := newTestSession(a, &out, Confirmer{Yes: true})
	s.handle(context.Background(), "Tokyo")

	s.handle(context.Background(), "/day 2")
	assert.True(t, s.panel.IsOpen(1))

	out.Reset()
	s.handle(context.Background(), "/day 9")
	assert.Contains(t, out.String(), "No such day: 9")

	out.Reset()
	s.handle(context.Background(), "/day")
	assert.Contains(t, out.String(), "Usage: /day N")
}

func TestChatSession_SaveConfirmed(t *testing.T) {
	ps := newPlanServer(t, planStream(t))
	a := newTestApp(t, ps.URL)
	var out bytes.Buffer
	s := newTestSession(a, &out, Confirmer{Yes: true})
	s.handle(context.Background(), "Tokyo")

	out.Reset()
	s.handle(context.Background(), "/save")
	assert.Contains(t, out.String(), "[OK] Itinerary saved as planned")

	var body map[string]any
	require.NoError(t, json.Unmarshal(ps.savedBody(), &body))
	assert.Equal(t, "planned", body["status"])
	assert.Equal(t, "Tokyo", body["destination"])
	assert.Equal(t, itinerary.StatusPlanned, s.panel.Document().Status)
}

func TestChatSession_SaveDeclined(t *testing.T) {
	ps := newPlanServer(t, planStream(t))
	a := newTestApp(t, ps.URL)
	var out bytes.Buffer
	s := newTestSession(a, &out, Confirmer{
		CanPrompt: func() bool { return true },
		Ask:       func(string) (string, error) { return "n", nil },
	})
	s.handle(context.Background(), "Tokyo")

	out.Reset()
	s.handle(context.Background(), "/save")
	assert.Contains(t, out.String(), itinerary.ErrCommitDeclined.Error())
	assert.Nil(t, ps.savedBody())
}

func TestChatSession_SaveRejected(t *testing.T) {
	ps := newPlanServer(t, planStream(t))
	ps.status = http.StatusConflict
	a := newTestApp(t, ps.URL)
	var out bytes.Buffer
	s := newTestSession(a, &out, Confirmer{Yes: true})
	s.handle(context.Background(), "Tokyo")

	out.Reset()
	s.handle(context.Background(), "/save")
	assert.Contains(t, out.String(), "[X] plan is locked")
	assert.Empty(t, s.panel.Document().Status)
}

func TestChatSession_SaveWithoutPlan(t *testing.T) {
	ps := newPlanServer(t, done)
	a := newTestApp(t, ps.URL)
	var out bytes.Buffer
	s := newTestSession(a, &out, Confirmer{Yes: true})

	s.handle(context.Background(), "/save")
	assert.Contains(t, out.String(), itinerary.ErrNoDocument.Error())

	out.Reset()
	s.handle(context.Background(), "/plan")
	assert.Contains(t, out.String(), itinerary.ErrNoDocument.Error())
}

func TestChatSession_BackendErrorShown(t *testing.T) {
	ps := newPlanServer(t, aiDelta(t, "Let me check")+frame(t, map[string]string{"error": "LLM unavailable"})+done)
	a := newTestApp(t, ps.URL)
	var out bytes.Buffer
	s := newTestSession(a, &out, Confirmer{Yes: true})

	s.handle(context.Background(), "Tokyo")
	assert.Contains(t, out.String(), "⚠️ Backend error: LLM unavailable")
}

func TestChatSession_Commands(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1")
	var out bytes.Buffer
	s := newTestSession(a, &out, Confirmer{Yes: true})

	assert.False(t, s.handle(context.Background(), "/help"))
	assert.Contains(t, out.String(), "/save")

	out.Reset()
	assert.False(t, s.handle(context.Background(), "/bogus"))
	assert.Contains(t, out.String(), "Unknown command /bogus")

	assert.True(t, s.handle(context.Background(), "/quit"))
	assert.True(t, s.handle(context.Background(), "/Q"))
}

func TestChatSession_Export(t *testing.T) {
	ps := newPlanServer(t, planStream(t))
	a := newTestApp(t, ps.URL)
	a.cfg.Export.Dir = t.TempDir()
	var out bytes.Buffer
	s := newTestSession(a, &out, Confirmer{Yes: true})

	s.handle(context.Background(), "/export")
	assert.Contains(t, out.String(), "no itinerary to export yet")

	s.handle(context.Background(), "Tokyo")
	out.Reset()
	s.handle(context.Background(), "/export json")
	assert.Contains(t, out.String(), "[OK] Exported to ")

	matches, err := filepath.Glob(filepath.Join(a.cfg.Export.Dir, "itinerary_Tokyo_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"destination": "Tokyo"`)

	out.Reset()
	s.handle(context.Background(), "/export pdf")
	assert.Contains(t, out.String(), "unknown export format")
}

// =============================================================================
// REPLAY TESTS
// =============================================================================

func TestReplay_File(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1")
	path := filepath.Join(t.TempDir(), "turn.sse")
	require.NoError(t, os.WriteFile(path, []byte(planStream(t)), 0o600))

	var out bytes.Buffer
	err := runReplay(context.Background(), a, path, strings.NewReader(""), &out, replayOptions{showPlan: true})
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "Here is your plan for Tokyo.")
	assert.Contains(t, got, "[OK] Itinerary ready: Tokyo")
	assert.Contains(t, got, "Taipei")
}

func TestReplay_Export(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1")
	a.cfg.Export.Dir = t.TempDir()

	var out bytes.Buffer
	err := runReplay(context.Background(), a, "-", strings.NewReader(planStream(t)), &out,
		replayOptions{export: true, format: "html"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[OK] Exported to ")

	matches, err := filepath.Glob(filepath.Join(a.cfg.Export.Dir, "*.html"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestReplay_Stdin(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1")
	var out bytes.Buffer
	err := runReplay(context.Background(), a, "-", strings.NewReader(aiDelta(t, "Hi")+done), &out, replayOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Planner:\nHi\n", out.String())
}

func TestReplay_BackendErrorFails(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1")
	var out bytes.Buffer
	stream := frame(t, map[string]string{"error": "quota exceeded"}) + done
	err := runReplay(context.Background(), a, "-", strings.NewReader(stream), &out, replayOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, out.String(), "⚠️ Backend error: quota exceeded")
}

func TestReplay_MissingFile(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1")
	err := runReplay(context.Background(), a, filepath.Join(t.TempDir(), "nope.sse"), nil, io.Discard, replayOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReplayStreamer_OneShot(t *testing.T) {
	s := &replayStreamer{rc: io.NopCloser(strings.NewReader(""))}
	_, err := s.OpenChatStream(context.Background(), backend.ChatRequest{})
	require.NoError(t, err)
	_, err = s.OpenChatStream(context.Background(), backend.ChatRequest{})
	assert.Error(t, err)
}

// =============================================================================
// COMMAND TREE TESTS
// =============================================================================

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRoot_ReplayWithFlags(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(t.TempDir(), "turn.sse")
	require.NoError(t, os.WriteFile(path, []byte(aiDelta(t, "Bonjour")+done), 0o600))

	out, err := execute(t, "replay", path, "--typing-ms", "-1", "--plan-id", "12", "--plan=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Bonjour")

	assert.Equal(t, "12", config.Global().Backend.PlanID)
	assert.Equal(t, -1, config.Global().Stream.TypingIntervalMs)
	assert.FileExists(t, filepath.Join(home, ".tripplan", "tripplan.log"))
}

func TestRoot_InvalidFlagRejected(t *testing.T) {
	isolate(t)
	_, err := execute(t, "replay", "-", "--base-url", "ftp://nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestConfigCommands(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "tripplan.toml")

	out, err := execute(t, "config", "path", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(not created yet)")

	_, err = execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = execute(t, "config", "init", "--config", path)
	assert.Error(t, err)

	_, err = execute(t, "config", "set", "backend.plan_id", "99", "--config", path)
	require.NoError(t, err)

	out, err = execute(t, "config", "get", "backend.plan_id", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "99\n", out)

	_, err = execute(t, "config", "set", "ui.theme", "purple", "--config", path)
	assert.Error(t, err)

	out, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, `plan_id = "99"`)

	out, err = execute(t, "config", "show", "--json", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"plan_id": "99"`)
}

func TestIsConfigCommand(t *testing.T) {
	root := NewRootCommand()
	for _, c := range root.Commands() {
		if c.Name() == "config" {
			assert.True(t, isConfigCommand(c))
			for _, sub := range c.Commands() {
				assert.True(t, isConfigCommand(sub), sub.Name())
			}
		} else {
			assert.False(t, isConfigCommand(c), c.Name())
		}
	}
	assert.False(t, isConfigCommand(root))
}
