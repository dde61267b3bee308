// Package chat implements the interactive terminal rendition of the support
// chat widget: a launcher, a minimized bar with an unread badge, and the open
// panel with transcript, typing indicator and composer.
package chat

import (
	"sync"

	"laundrychat/cmd/chatbox/ui"
	"laundrychat/internal/chat"
	"laundrychat/internal/config"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
)

// ViewMode selects what the open panel shows.
type ViewMode int

const (
	ChatView ViewMode = iota
	FilePickerView
)

// Layout constants
const (
	headerHeight = 1
	typingHeight = 1
	inputHeight  = 3
	footerHeight = 1
	chromeHeight = 4 // panel border + spacing
)

// Model is the Bubble Tea model wrapping a chat.Widget.
type Model struct {
	widget *chat.Widget
	snap   chat.Snapshot
	cfg    *config.Config

	configUpdates <-chan *config.Config
	autoOpen      bool

	// UI components
	textarea   textarea.Model
	viewport   viewport.Model
	spinner    spinner.Model
	filepicker filepicker.Model
	help       help.Model
	keys       ui.KeyMap
	styles     ui.Styles
	renderer   *glamour.TermRenderer

	// State
	mode      ViewMode
	width     int
	height    int
	ready     bool
	lastCount int
	err       error

	shutdownOnce *sync.Once
}

// Option configures a Model.
type Option func(*Model)

// WithConfigUpdates applies configs received on ch while running.
func WithConfigUpdates(ch <-chan *config.Config) Option {
	return func(m *Model) { m.configUpdates = ch }
}

// WithAutoOpen opens the widget as soon as the program starts.
func WithAutoOpen() Option {
	return func(m *Model) { m.autoOpen = true }
}

// Messages

// widgetChangedMsg reports that the widget snapshot changed.
type widgetChangedMsg struct{}

// configReloadedMsg carries a config reloaded from disk.
type configReloadedMsg struct {
	cfg *config.Config
}

// attachDescribedMsg carries picked files ready to attach.
type attachDescribedMsg struct {
	files []chat.LocalFile
	err   error
}
