package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertUnreadInvariant(t *testing.T, s *Shell) {
	t.Helper()
	if s.Visible() {
		assert.Zero(t, s.Unread(), "unread must be zero while visible")
	}
}

func TestShell_Lifecycle(t *testing.T) {
	var s Shell
	assert.False(t, s.IsOpen())

	assert.True(t, s.Open())
	assert.False(t, s.Open(), "second open reports already open")
	assertUnreadInvariant(t, &s)

	s.NoteIncoming(SenderSupport)
	assert.Zero(t, s.Unread(), "visible messages are read")

	s.Minimize()
	s.NoteIncoming(SenderSupport)
	s.NoteIncoming(SenderSystem)
	s.NoteIncoming(SenderUser)
	assert.Equal(t, 2, s.Unread())

	s.ToggleMinimize()
	assert.False(t, s.IsMinimized())
	assertUnreadInvariant(t, &s)

	s.ToggleMinimize()
	s.NoteIncoming(SenderSupport)
	s.Open()
	assert.Zero(t, s.Unread())

	s.Close()
	assert.False(t, s.IsOpen())
	assert.False(t, s.IsMinimized())
	s.NoteIncoming(SenderSupport)
	assert.Zero(t, s.Unread(), "closed widget does not count")

	s.Minimize()
	assert.False(t, s.IsMinimized(), "cannot minimize a closed widget")
}
