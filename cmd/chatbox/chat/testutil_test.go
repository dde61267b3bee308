package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"laundrychat/internal/auth"
	"laundrychat/internal/chat"
	"laundrychat/internal/config"
	"laundrychat/internal/transport"

	tea "github.com/charmbracelet/bubbletea"
)

// stubTransport answers every call with err (nil means success).
type stubTransport struct {
	err error
}

func (s stubTransport) ListRecentSessions(ctx context.Context, limit int) ([]transport.SessionSummary, error) {
	return nil, s.err
}

func (s stubTransport) FetchHistory(ctx context.Context, id string) ([]transport.HistoryRecord, error) {
	return nil, s.err
}

func (s stubTransport) CreateSession(ctx context.Context, req transport.CreateSessionRequest) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "sess-test", nil
}

func (s stubTransport) SendMessage(ctx context.Context, req transport.SendMessageRequest) error {
	return s.err
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.UI.Theme = "light"
	cfg.UI.RenderMarkdown = false
	cfg.AutoReply.TypingDelay = "1ms"
	cfg.AutoReply.ReplyDelay = "50ms"
	cfg.Chat.UploadDelay = "1ms"
	return cfg
}

// NewTestModel builds a model around a widget backed by a failing stub backend.
func NewTestModel(t *testing.T, token string) (Model, *chat.Widget) {
	t.Helper()
	cfg := testConfig()
	w := chat.New(stubTransport{err: errors.New("offline")}, auth.Static(token), nil, OptionsFromConfig(cfg))
	t.Cleanup(w.Shutdown)

	m := New(w, cfg)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return updated.(Model), w
}

func waitSettled(t *testing.T, w *chat.Widget) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := w.WaitIdle(ctx); err != nil {
		t.Fatalf("widget did not settle: %v", err)
	}
}

func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	updated, _ := m.Update(k)
	return updated.(Model)
}

func changed(m Model) Model {
	updated, _ := m.Update(widgetChangedMsg{})
	return updated.(Model)
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m
}

var (
	keyOpen     = tea.KeyMsg{Type: tea.KeyCtrlO}
	keyMinimize = tea.KeyMsg{Type: tea.KeyCtrlN}
	keyClose    = tea.KeyMsg{Type: tea.KeyCtrlW}
	keyEnter    = tea.KeyMsg{Type: tea.KeyEnter}
	keyQuit     = tea.KeyMsg{Type: tea.KeyCtrlC}
)
