package chat

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanAdvance(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusNone, StatusSending, true},
		{StatusSending, StatusSent, true},
		{StatusSending, StatusRead, true},
		{StatusSent, StatusDelivered, true},
		{StatusDelivered, StatusRead, true},
		{StatusSent, StatusSending, false},
		{StatusRead, StatusDelivered, false},
		{StatusRead, StatusRead, false},
		{StatusSending, StatusFailed, true},
		{StatusSent, StatusFailed, false},
		{StatusFailed, StatusSent, false},
		{StatusSending, "bogus", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, canAdvance(tt.from, tt.to), "%q -> %q", tt.from, tt.to)
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusSent.Valid())
	assert.True(t, StatusFailed.Valid())
	assert.False(t, StatusNone.Valid())
	assert.False(t, Status("lost").Valid())
}

func TestConstructors(t *testing.T) {
	now := time.Now()

	m, err := NewUserText("msg_1", "  hello  ", now)
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Text)
	assert.Equal(t, StatusSending, m.Status)
	assert.True(t, m.IsUser())

	_, err = NewUserText("msg_2", " \n ", now)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	f, err := NewUserFile("file_1_x", Attachment{Name: "bill.pdf", Type: "application/pdf", Size: 9}, now)
	require.NoError(t, err)
	assert.Equal(t, TypeFile, f.Type)
	assert.Equal(t, "Uploaded: bill.pdf", f.Text)
	require.Len(t, f.Attachments, 1)

	_, err = NewUserFile("file_2_x", Attachment{}, now)
	assert.ErrorIs(t, err, ErrNoAttachment)

	s, err := NewSupportText("support_1", "On it", now)
	require.NoError(t, err)
	assert.Equal(t, StatusNone, s.Status)
	assert.False(t, s.IsUser())

	sys, err := NewSystem("sys_1", "Welcome", now)
	require.NoError(t, err)
	assert.Equal(t, TypeSystem, sys.Type)
	assert.Equal(t, SenderSystem, sys.Sender)

	_, err = NewSystem("sys_2", "", now)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestLocalFileURL(t *testing.T) {
	f := LocalFile{Name: "my photo.png", Path: "/tmp/my photo.png"}
	assert.Equal(t, "file:///tmp/my%20photo.png", f.URL())
}

func TestIDGenerator(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	g := NewIDGenerator(func() time.Time { return fixed })

	assert.Equal(t, "msg_1700000000000", g.Text())
	assert.Equal(t, "msg_1700000000001", g.Text(), "same millisecond still yields a new id")
	assert.Equal(t, "sys_1700000000002", g.System())
	assert.Equal(t, "support_1700000000003", g.Support())
	assert.Regexp(t, regexp.MustCompile(`^file_1700000000004_[0-9a-f]{9}$`), g.File())
}
