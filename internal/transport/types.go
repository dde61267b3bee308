package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a server identifier that may arrive as a JSON string or number.
type ID string

// UnmarshalJSON accepts "abc", 123 and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the id as a string.
func (id ID) String() string { return string(id) }

// SessionSummary is one entry of the my-sessions listing.
type SessionSummary struct {
	ID        ID     `json:"id"`
	Status    string `json:"status,omitempty"`
	Category  string `json:"category,omitempty"`
	Priority  string `json:"priority,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// HistoryRecord is a stored chat message as returned by the history endpoint.
type HistoryRecord struct {
	ID            ID     `json:"id"`
	IsFromSupport bool   `json:"isFromSupport"`
	Message       string `json:"message"`
	Timestamp     string `json:"timestamp"`
	MessageType   string `json:"messageType"`
	Status        string `json:"status,omitempty"`
}

// CreateSessionRequest opens a support session with its first message.
type CreateSessionRequest struct {
	Message  string `json:"message"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// SendMessageRequest appends a message to an existing session.
type SendMessageRequest struct {
	SessionID   string `json:"sessionId"`
	Message     string `json:"message"`
	MessageType string `json:"messageType"`
}

// envelope is the common response wrapper of the tenant API.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type sessionsData struct {
	Sessions []SessionSummary `json:"sessions"`
}

type historyData struct {
	Messages []HistoryRecord `json:"messages"`
}

type createData struct {
	SessionID ID `json:"sessionId"`
}
