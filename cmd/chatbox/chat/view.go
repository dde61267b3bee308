package chat

import (
	"fmt"
	"strings"

	"laundrychat/internal/chat"
	"laundrychat/internal/logging"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// View renders the widget in its current state.
func (m Model) View() string {
	switch {
	case !m.snap.Open:
		return m.renderLauncher()
	case m.snap.Minimized:
		return m.renderMinimized()
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	if m.mode == FilePickerView {
		sections = append(sections,
			m.styles.Muted.Render("Pick a file to attach (esc to cancel)"),
			m.filepicker.View())
	} else {
		sections = append(sections, m.viewport.View())
	}
	sections = append(sections, m.renderTyping())
	if m.err != nil {
		sections = append(sections, m.styles.Error.Render("Error: "+m.err.Error()))
	}
	sections = append(sections, m.textarea.View(), m.help.View(m.keys))

	return m.styles.Panel.Width(m.contentWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) renderLauncher() string {
	launcher := m.styles.Launcher.Render("💬 Need help? Chat with us")
	hint := m.styles.Muted.Render(fmt.Sprintf("%s to open · %s to quit",
		m.keys.Open.Help().Key, m.keys.Quit.Help().Key))
	return lipgloss.JoinVertical(lipgloss.Left, launcher, hint)
}

func (m Model) renderMinimized() string {
	title := m.styles.Bold.Render("Support chat")
	if m.snap.Agent != nil {
		title = m.styles.Bold.Render(m.snap.Agent.Name)
	}
	parts := []string{title}
	if m.snap.Unread > 0 {
		parts = append(parts, m.styles.Badge.Render(fmt.Sprintf("%d", m.snap.Unread)))
	}
	parts = append(parts, m.styles.Muted.Render(m.keys.Minimize.Help().Key+" to restore"))
	return m.styles.MinimizedBar.Render(strings.Join(parts, " "))
}

func (m Model) renderHeader() string {
	name := "Customer Support"
	var details []string
	if a := m.snap.Agent; a != nil {
		name = a.Name
		if a.ResponseTime != "" {
			details = append(details, "replies in "+a.ResponseTime)
		}
	}
	header := m.styles.Header.Render(name)
	status := m.styles.ConnectionBadge(string(m.snap.Status))
	line := header + " " + status
	if len(details) > 0 {
		line += " " + m.styles.Muted.Render(strings.Join(details, " · "))
	}
	return line
}

func (m Model) renderTyping() string {
	if !m.snap.AgentTyping {
		return ""
	}
	name := "Support"
	if m.snap.Agent != nil {
		name = m.snap.Agent.Name
	}
	return m.spinner.View() + " " + m.styles.Muted.Render(name+" is typing...")
}

// renderHistory renders the whole transcript for the viewport.
func (m Model) renderHistory() string {
	if len(m.snap.Messages) == 0 {
		if m.snap.Status == chat.StatusDisconnected {
			return m.styles.Muted.Render("Log in to chat with support (chatbox login --token ...).")
		}
		return m.styles.Muted.Render("Connecting to support...")
	}
	var b strings.Builder
	for i, msg := range m.snap.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMessage(msg chat.Message) string {
	stamp := m.styles.Timestamp.Render(msg.Timestamp.Local().Format("15:04"))

	switch msg.Sender {
	case chat.SenderSystem:
		return m.styles.SystemNotice.Render(msg.Text)

	case chat.SenderSupport:
		name := "Support"
		if m.snap.Agent != nil {
			name = m.snap.Agent.Name
		}
		head := m.styles.Title.Render(name) + " " + stamp
		return head + "\n" + m.styles.SupportBubble.Render(m.safeRenderMarkdown(msg.Text))

	default:
		head := m.styles.Bold.Render("You") + " " + stamp
		if glyph := m.styles.StatusGlyph(string(msg.Status)); glyph != "" {
			head += " " + glyph
		}
		body := m.styles.UserBubble.Render(msg.Text)
		for _, att := range msg.Attachments {
			body += "\n" + m.renderAttachment(att)
		}
		return head + "\n" + body
	}
}

func (m Model) renderAttachment(att chat.Attachment) string {
	meta := humanize.Bytes(uint64(max(att.Size, 0)))
	if att.Type != "" {
		meta = att.Type + ", " + meta
	}
	return "📎 " + m.styles.Attachment.Render(att.Name) + " " + m.styles.Muted.Render("("+meta+")")
}

// safeRenderMarkdown renders support replies with glamour, falling back to the
// plain text if the renderer is missing or fails.
func (m Model) safeRenderMarkdown(text string) (out string) {
	if m.renderer == nil {
		return text
	}
	defer func() {
		if r := recover(); r != nil {
			logging.UIDebug("markdown render panicked: %v", r)
			out = text
		}
	}()
	rendered, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(rendered)
}
