// Package chat holds the client-side state of the support chat widget: the
// message list and its status machine, the open/minimized shell, and the Widget
// that ties them to the chat backend and the local fallback responder.
package chat

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser    Sender = "user"
	SenderSupport Sender = "support"
	SenderSystem  Sender = "system"
)

// MessageType is the kind of content a message carries.
type MessageType string

const (
	TypeText   MessageType = "text"
	TypeImage  MessageType = "image"
	TypeFile   MessageType = "file"
	TypeSystem MessageType = "system"
)

// Status is the delivery state of a user message.
type Status string

const (
	StatusNone      Status = ""
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

var statusRank = map[Status]int{
	StatusSending:   1,
	StatusSent:      2,
	StatusDelivered: 3,
	StatusRead:      4,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusFailed
}

// canAdvance reports whether a message in status from may move to to.
// Statuses only move forward; failed is terminal and reachable only from sending.
func canAdvance(from, to Status) bool {
	if from == to || from == StatusFailed {
		return false
	}
	if to == StatusFailed {
		return from == StatusSending
	}
	next, ok := statusRank[to]
	if !ok {
		return false
	}
	return next > statusRank[from]
}

var (
	ErrEmptyMessage  = errors.New("message text is empty")
	ErrNoAttachment  = errors.New("file message needs at least one attachment")
	ErrDuplicateID   = errors.New("message id already present")
	ErrInvalidSender = errors.New("invalid sender")
)

// Attachment describes an uploaded file.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// LocalFile is a file picked by the user, before upload.
type LocalFile struct {
	Name string
	Path string
	Type string
	Size int64
}

// URL returns a file:// URL for the local file.
func (f LocalFile) URL() string {
	p := f.Path
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String()
}

// Message is one entry in the chat transcript.
type Message struct {
	ID          string       `json:"id"`
	Sender      Sender       `json:"sender"`
	Text        string       `json:"message"`
	Timestamp   time.Time    `json:"timestamp"`
	Type        MessageType  `json:"type"`
	Status      Status       `json:"status,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`

	// CorrelationID tags user messages; InReplyTo ties a fallback reply to one.
	CorrelationID string `json:"correlationId,omitempty"`
	InReplyTo     string `json:"inReplyTo,omitempty"`
}

// IsUser reports whether the message was authored locally.
func (m Message) IsUser() bool { return m.Sender == SenderUser }

func (m Message) clone() Message {
	if m.Attachments != nil {
		m.Attachments = append([]Attachment(nil), m.Attachments...)
	}
	return m
}

func (m Message) validate() error {
	switch m.Sender {
	case SenderUser, SenderSupport, SenderSystem:
	default:
		return ErrInvalidSender
	}
	if m.Type == TypeFile {
		if len(m.Attachments) == 0 {
			return ErrNoAttachment
		}
		return nil
	}
	if strings.TrimSpace(m.Text) == "" {
		return ErrEmptyMessage
	}
	return nil
}

// NewUserText builds an outgoing text message in the sending state.
func NewUserText(id, text string, now time.Time) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	return Message{
		ID:        id,
		Sender:    SenderUser,
		Text:      text,
		Timestamp: now,
		Type:      TypeText,
		Status:    StatusSending,
	}, nil
}

// NewUserFile builds an outgoing file message carrying one attachment.
func NewUserFile(id string, att Attachment, now time.Time) (Message, error) {
	if att.Name == "" {
		return Message{}, ErrNoAttachment
	}
	return Message{
		ID:          id,
		Sender:      SenderUser,
		Text:        "Uploaded: " + att.Name,
		Timestamp:   now,
		Type:        TypeFile,
		Status:      StatusSending,
		Attachments: []Attachment{att},
	}, nil
}

// NewSupportText builds a support reply. Support messages carry no status.
func NewSupportText(id, text string, now time.Time) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}
	return Message{
		ID:        id,
		Sender:    SenderSupport,
		Text:      text,
		Timestamp: now,
		Type:      TypeText,
	}, nil
}

// NewSystem builds a system notice such as the welcome message.
func NewSystem(id, text string, now time.Time) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}
	return Message{
		ID:        id,
		Sender:    SenderSystem,
		Text:      text,
		Timestamp: now,
		Type:      TypeSystem,
	}, nil
}
