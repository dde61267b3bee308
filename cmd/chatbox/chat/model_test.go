package chat

import (
	"strings"
	"testing"
	"time"

	"laundrychat/internal/chat"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel_LauncherUntilOpened(t *testing.T) {
	m, w := NewTestModel(t, "tok")

	assert.Contains(t, m.View(), "Need help?")
	assert.False(t, w.Snapshot().Open)

	m = press(t, m, keyOpen)
	waitSettled(t, w)
	m = changed(m)

	view := m.View()
	assert.Contains(t, view, "Support Team")
	assert.Contains(t, view, "Welcome to support!")
}

func TestModel_SendFromComposer(t *testing.T) {
	m, w := NewTestModel(t, "tok")
	m = press(t, m, keyOpen)
	waitSettled(t, w)

	m = typeText(m, "where is my order")
	m = press(t, m, keyEnter)
	assert.Empty(t, m.textarea.Value(), "composer clears after send")

	waitSettled(t, w)
	m = changed(m)

	snap := w.Snapshot()
	var users, support int
	for _, msg := range snap.Messages {
		switch msg.Sender {
		case chat.SenderUser:
			users++
			assert.Equal(t, chat.StatusSent, msg.Status)
		case chat.SenderSupport:
			support++
		}
	}
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, support, "offline backend falls back to a canned reply")
	assert.Contains(t, m.renderHistory(), "order number")
}

func TestModel_EmptyComposerDoesNotSend(t *testing.T) {
	m, w := NewTestModel(t, "tok")
	m = press(t, m, keyOpen)
	waitSettled(t, w)

	m = typeText(m, "   ")
	_ = press(t, m, keyEnter)

	for _, msg := range w.Snapshot().Messages {
		assert.NotEqual(t, chat.SenderUser, msg.Sender)
	}
}

func TestModel_MinimizeShowsBadge(t *testing.T) {
	m, w := NewTestModel(t, "tok")
	m = press(t, m, keyOpen)
	waitSettled(t, w)

	m = typeText(m, "hello")
	m = press(t, m, keyEnter)
	m = press(t, m, keyMinimize)

	require.Eventually(t, func() bool { return w.Snapshot().Unread > 0 }, 2*time.Second, 5*time.Millisecond)
	m = changed(m)

	view := m.View()
	assert.Contains(t, view, "Support Team")
	assert.Contains(t, view, "1")
	assert.NotContains(t, view, "Type your message")

	m = press(t, m, keyMinimize)
	m = changed(m)
	assert.Zero(t, m.snap.Unread)
}

func TestModel_CloseReturnsToLauncher(t *testing.T) {
	m, w := NewTestModel(t, "tok")
	m = press(t, m, keyOpen)
	waitSettled(t, w)

	m = press(t, m, keyClose)
	m = changed(m)

	assert.Contains(t, m.View(), "Need help?")
	assert.Empty(t, w.Snapshot().Messages)
}

func TestModel_NoTokenShowsLoginHint(t *testing.T) {
	m, w := NewTestModel(t, "")
	m = press(t, m, keyOpen)
	waitSettled(t, w)
	m = changed(m)

	assert.Equal(t, chat.StatusDisconnected, m.snap.Status)
	assert.Contains(t, m.View(), "offline")
	assert.Contains(t, m.renderHistory(), "chatbox login")
}

func TestModel_ConfigReload(t *testing.T) {
	m, _ := NewTestModel(t, "tok")
	assert.False(t, m.styles.Theme.IsDark)

	cfg := testConfig()
	cfg.UI.Theme = "dark"
	updated, _ := m.Update(configReloadedMsg{cfg: cfg})
	m = updated.(Model)

	assert.True(t, m.styles.Theme.IsDark)
	assert.Equal(t, "dark", m.cfg.UI.Theme)
}

func TestModel_AttachDescribed(t *testing.T) {
	m, w := NewTestModel(t, "tok")
	m = press(t, m, keyOpen)
	waitSettled(t, w)

	updated, _ := m.Update(attachDescribedMsg{files: []chat.LocalFile{
		{Name: "stain.jpg", Path: "/tmp/stain.jpg", Type: "image/jpeg", Size: 2048},
	}})
	m = updated.(Model)
	waitSettled(t, w)
	m = changed(m)

	history := m.renderHistory()
	assert.Contains(t, history, "stain.jpg")
	assert.Contains(t, history, "2.0 kB")
	assert.Contains(t, history, "image/jpeg")
}

func TestModel_QuitShutsDownWidget(t *testing.T) {
	m, w := NewTestModel(t, "tok")
	m = press(t, m, keyOpen)

	_, cmd := m.Update(keyQuit)
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)

	w.Open()
	assert.False(t, w.Snapshot().Open, "widget is shut down after quit")
}

func TestRenderMessageStatusGlyphs(t *testing.T) {
	m, _ := NewTestModel(t, "tok")
	out := m.renderMessage(chat.Message{
		ID:     "msg_1",
		Sender: chat.SenderUser,
		Text:   "hello",
		Type:   chat.TypeText,
		Status: chat.StatusSent,
	})
	assert.True(t, strings.Contains(out, "✓"))
	assert.Contains(t, out, "You")
}
