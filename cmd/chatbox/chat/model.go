package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"laundrychat/cmd/chatbox/ui"
	"laundrychat/internal/chat"
	"laundrychat/internal/config"
	"laundrychat/internal/logging"
	"laundrychat/internal/upload"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// New creates the interactive model for w.
func New(w *chat.Widget, cfg *config.Config, opts ...Option) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetHeight(inputHeight)
	ta.SetWidth(cfg.UI.Width - 4)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	fp := filepicker.New()
	fp.ShowHidden = false

	styles := ui.NewStyles(ui.ThemeFor(cfg.UI.Theme))
	sp.Style = styles.Spinner

	m := Model{
		widget:       w,
		snap:         w.Snapshot(),
		cfg:          cfg,
		textarea:     ta,
		viewport:     viewport.New(cfg.UI.Width, 20),
		spinner:      sp,
		filepicker:   fp,
		help:         help.New(),
		keys:         ui.DefaultKeyMap(),
		styles:       styles,
		width:        cfg.UI.Width,
		shutdownOnce: &sync.Once{},
	}
	m.renderer = newRenderer(cfg, m.contentWidth())

	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func newRenderer(cfg *config.Config, width int) *glamour.TermRenderer {
	if !cfg.UI.RenderMarkdown {
		return nil
	}
	style := glamour.WithAutoStyle()
	switch cfg.UI.Theme {
	case "light":
		style = glamour.WithStandardStyle("light")
	case "dark":
		style = glamour.WithStandardStyle("dark")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		logging.UIDebug("markdown renderer unavailable: %v", err)
		return nil
	}
	return r
}

// Init starts listeners and optionally opens the widget.
func (m Model) Init() tea.Cmd {
	if m.autoOpen {
		m.widget.Open()
	}
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		waitForChange(m.widget.Changes()),
		waitForConfig(m.configUpdates),
	)
}

// waitForChange blocks until the widget reports a change.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return widgetChangedMsg{}
	}
}

// waitForConfig blocks until a reloaded config arrives.
func waitForConfig(ch <-chan *config.Config) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return configReloadedMsg{cfg: cfg}
	}
}

// describeFiles stats and sniffs the picked paths off the UI goroutine.
func describeFiles(paths ...string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		files, err := upload.DescribeAll(ctx, paths)
		return attachDescribedMsg{files: files, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case widgetChangedMsg:
		m.refresh()
		return m, waitForChange(m.widget.Changes())

	case configReloadedMsg:
		m.applyConfig(msg.cfg)
		return m, waitForConfig(m.configUpdates)

	case attachDescribedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if _, err := m.widget.Attach(msg.files); err != nil {
			m.err = err
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.mode == FilePickerView {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.Shutdown()
		return m, tea.Quit
	}

	if m.mode == FilePickerView {
		if msg.Type == tea.KeyEsc {
			m.mode = ChatView
			return m, nil
		}
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)
		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.mode = ChatView
			m.filepicker = filepicker.New()
			logging.UIDebug("picked %s", path)
			return m, tea.Batch(cmd, describeFiles(path))
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Open):
		m.widget.Open()
		m.err = nil
		return m, nil

	case key.Matches(msg, m.keys.Minimize):
		m.widget.ToggleMinimize()
		return m, nil

	case key.Matches(msg, m.keys.Close):
		m.widget.Close()
		m.textarea.Reset()
		m.lastCount = 0
		return m, nil
	}

	if !m.snap.Open || m.snap.Minimized {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Attach):
		m.mode = FilePickerView
		return m, m.filepicker.Init()

	case key.Matches(msg, m.keys.Send):
		text := strings.TrimSpace(m.textarea.Value())
		if text == "" {
			return m, nil
		}
		if _, err := m.widget.Send(text); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.textarea.Reset()
		return m, nil

	case key.Matches(msg, m.keys.Scroll):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *Model) contentWidth() int {
	w := m.width - 4
	if w < 10 {
		w = 10
	}
	return w
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	vpHeight := height - headerHeight - typingHeight - inputHeight - footerHeight - chromeHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(m.contentWidth(), vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.contentWidth()
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(m.contentWidth())
	m.filepicker.Height = vpHeight
	m.help.Width = width
	m.renderer = newRenderer(m.cfg, m.contentWidth()-2)
	m.viewport.SetContent(m.renderHistory())
}

// refresh pulls a new snapshot and keeps the transcript pinned to the newest
// message when one was added.
func (m *Model) refresh() {
	m.snap = m.widget.Snapshot()
	m.viewport.SetContent(m.renderHistory())
	if n := len(m.snap.Messages); n != m.lastCount {
		if n > m.lastCount {
			m.viewport.GotoBottom()
		}
		m.lastCount = n
	}
}

func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.cfg = cfg
	m.styles = ui.NewStyles(ui.ThemeFor(cfg.UI.Theme))
	m.spinner.Style = m.styles.Spinner
	m.renderer = newRenderer(cfg, m.contentWidth()-2)
	m.widget.Reconfigure(OptionsFromConfig(cfg))
	m.viewport.SetContent(m.renderHistory())
	logging.ConfigInfo("applied reloaded config (theme=%s)", cfg.UI.Theme)
}

// Shutdown stops the widget once.
func (m Model) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.widget.Shutdown()
	})
}
