package chat

// ConnectionStatus is the widget's view of the backend.
type ConnectionStatus string

const (
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// Shell tracks the visible state of the widget. Unread is always zero while
// the widget is open and not minimized.
type Shell struct {
	open      bool
	minimized bool
	unread    int
}

// IsOpen reports whether the panel is open (possibly minimized).
func (s *Shell) IsOpen() bool { return s.open }

// IsMinimized reports whether the open panel is collapsed.
func (s *Shell) IsMinimized() bool { return s.open && s.minimized }

// Unread returns the unread badge count.
func (s *Shell) Unread() int { return s.unread }

// Visible reports whether messages are on screen.
func (s *Shell) Visible() bool { return s.open && !s.minimized }

// Open shows the panel. It reports whether the widget was previously closed.
func (s *Shell) Open() bool {
	wasClosed := !s.open
	s.open = true
	s.minimized = false
	s.unread = 0
	return wasClosed
}

// Minimize collapses an open panel.
func (s *Shell) Minimize() {
	if s.open {
		s.minimized = true
	}
}

// Restore expands a minimized panel and clears the badge.
func (s *Shell) Restore() {
	if s.open {
		s.minimized = false
		s.unread = 0
	}
}

// ToggleMinimize flips between minimized and restored.
func (s *Shell) ToggleMinimize() {
	if s.IsMinimized() {
		s.Restore()
	} else {
		s.Minimize()
	}
}

// Close hides the panel and clears the badge.
func (s *Shell) Close() {
	s.open = false
	s.minimized = false
	s.unread = 0
}

// NoteIncoming counts a new support or system message toward the badge.
func (s *Shell) NoteIncoming(sender Sender) {
	if sender == SenderUser {
		return
	}
	if s.IsMinimized() {
		s.unread++
	}
}
