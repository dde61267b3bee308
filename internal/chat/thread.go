package chat

import (
	"fmt"
	"time"

	"laundrychat/internal/transport"
)

// Thread is the ordered message list of one widget. It is not safe for
// concurrent use; Widget serializes access.
type Thread struct {
	messages []Message
	index    map[string]int
	now      func() time.Time
}

// NewThread creates an empty thread.
func NewThread() *Thread {
	return &Thread{index: make(map[string]int), now: time.Now}
}

// Len returns the number of messages.
func (t *Thread) Len() int { return len(t.messages) }

// Messages returns a copy of the list in display order.
func (t *Thread) Messages() []Message {
	out := make([]Message, len(t.messages))
	for i, m := range t.messages {
		out[i] = m.clone()
	}
	return out
}

// Get returns the message with id.
func (t *Thread) Get(id string) (Message, bool) {
	i, ok := t.index[id]
	if !ok {
		return Message{}, false
	}
	return t.messages[i].clone(), true
}

// Append adds a message at the tail.
func (t *Thread) Append(m Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	if _, dup := t.index[m.ID]; dup || m.ID == "" {
		return fmt.Errorf("%w: %q", ErrDuplicateID, m.ID)
	}
	if m.Sender != SenderUser {
		m.Status = StatusNone
	}
	t.index[m.ID] = len(t.messages)
	t.messages = append(t.messages, m.clone())
	return nil
}

// AppendOptimistic adds a user message in the sending state.
func (t *Thread) AppendOptimistic(m Message) error {
	if m.Sender != SenderUser {
		return ErrInvalidSender
	}
	m.Status = StatusSending
	return t.Append(m)
}

// AppendSystem adds a system notice.
func (t *Thread) AppendSystem(id, text string) (Message, error) {
	m, err := NewSystem(id, text, t.now())
	if err != nil {
		return Message{}, err
	}
	if err := t.Append(m); err != nil {
		return Message{}, err
	}
	return m, nil
}

// UpdateStatus moves message id to status. It reports whether anything changed;
// unknown ids, non-user messages and regressions are ignored.
func (t *Thread) UpdateStatus(id string, status Status) bool {
	i, ok := t.index[id]
	if !ok {
		return false
	}
	m := &t.messages[i]
	if m.Sender != SenderUser || !canAdvance(m.Status, status) {
		return false
	}
	m.Status = status
	return true
}

// ReplaceAttachments swaps the descriptors of file message id, typically once
// the upload returned its remote location. Identity fields are left alone.
func (t *Thread) ReplaceAttachments(id string, atts []Attachment) bool {
	i, ok := t.index[id]
	if !ok || len(atts) == 0 {
		return false
	}
	m := &t.messages[i]
	if m.Type != TypeFile || m.Sender != SenderUser {
		return false
	}
	m.Attachments = append([]Attachment(nil), atts...)
	return true
}

// Hydrate replaces an empty thread with server history. It returns the number
// of messages loaded, or 0 when the thread already had content.
func (t *Thread) Hydrate(records []transport.HistoryRecord) int {
	if len(t.messages) > 0 {
		return 0
	}
	for i, r := range records {
		m, ok := t.fromRecord(i, r)
		if !ok {
			continue
		}
		if _, dup := t.index[m.ID]; dup {
			continue
		}
		t.index[m.ID] = len(t.messages)
		t.messages = append(t.messages, m)
	}
	return len(t.messages)
}

func (t *Thread) fromRecord(i int, r transport.HistoryRecord) (Message, bool) {
	if r.Message == "" {
		return Message{}, false
	}
	m := Message{
		ID:   r.ID.String(),
		Text: r.Message,
		Type: MessageType(r.MessageType),
	}
	if m.ID == "" {
		m.ID = fmt.Sprintf("history_%d", i)
	}
	switch m.Type {
	case TypeText, TypeImage, TypeFile, TypeSystem:
	default:
		m.Type = TypeText
	}
	if ts, err := time.Parse(time.RFC3339Nano, r.Timestamp); err == nil {
		m.Timestamp = ts
	} else {
		m.Timestamp = t.now()
	}
	switch {
	case m.Type == TypeSystem:
		m.Sender = SenderSystem
	case r.IsFromSupport:
		m.Sender = SenderSupport
	default:
		m.Sender = SenderUser
		m.Status = StatusSent
		if s := Status(r.Status); statusRank[s] > statusRank[StatusSent] {
			m.Status = s
		}
	}
	return m, true
}

// Reset drops every message.
func (t *Thread) Reset() {
	t.messages = nil
	t.index = make(map[string]int)
}
