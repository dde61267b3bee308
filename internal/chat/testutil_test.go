package chat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"laundrychat/internal/auth"
	"laundrychat/internal/transport"

	"github.com/stretchr/testify/require"
)

var errBackendDown = errors.New("backend down")

// fakeTransport records calls and returns canned results. When block is set,
// every call waits for it to close or for ctx to end.
type fakeTransport struct {
	mu sync.Mutex

	sessions   []transport.SessionSummary
	listErr    error
	history    []transport.HistoryRecord
	historyErr error
	createID   string
	createErr  error
	sendErr    error
	block      chan struct{}

	listCalls    int
	historyCalls int
	creates      []transport.CreateSessionRequest
	sends        []transport.SendMessageRequest
}

func (f *fakeTransport) wait(ctx context.Context) error {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block == nil {
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeTransport) ListRecentSessions(ctx context.Context, limit int) ([]transport.SessionSummary, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions, f.listErr
}

func (f *fakeTransport) FetchHistory(ctx context.Context, sessionID string) ([]transport.HistoryRecord, error) {
	f.mu.Lock()
	f.historyCalls++
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, f.historyErr
}

func (f *fakeTransport) CreateSession(ctx context.Context, req transport.CreateSessionRequest) (string, error) {
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, req)
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.createID, nil
}

func (f *fakeTransport) SendMessage(ctx context.Context, req transport.SendMessageRequest) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, req)
	return f.sendErr
}

func (f *fakeTransport) calls() (list, history, creates, sends int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.historyCalls, len(f.creates), len(f.sends)
}

type fakeUploader struct {
	delay time.Duration
	err   error
}

func (u fakeUploader) Upload(ctx context.Context, f LocalFile) (Attachment, error) {
	select {
	case <-time.After(u.delay):
	case <-ctx.Done():
		return Attachment{}, ctx.Err()
	}
	if u.err != nil {
		return Attachment{}, u.err
	}
	return Attachment{Name: f.Name, URL: f.URL(), Type: f.Type, Size: f.Size}, nil
}

func fastOptions() Options {
	opts := DefaultOptions()
	opts.TypingDelay = 5 * time.Millisecond
	opts.ReplyDelay = 20 * time.Millisecond
	return opts
}

func newTestWidget(t *testing.T, tr *fakeTransport, token string, opts Options) *Widget {
	t.Helper()
	return newTestWidgetWithUploader(t, tr, token, fakeUploader{delay: 5 * time.Millisecond}, opts)
}

func newTestWidgetWithUploader(t *testing.T, tr *fakeTransport, token string, up Uploader, opts Options) *Widget {
	t.Helper()
	w := New(tr, auth.Static(token), up, opts)
	t.Cleanup(w.Shutdown)
	return w
}

// cdnUploader reports a remote URL and tracks how many uploads overlap.
type cdnUploader struct {
	delay   time.Duration
	active  int32
	maxSeen int32
}

func (u *cdnUploader) Upload(ctx context.Context, f LocalFile) (Attachment, error) {
	n := atomic.AddInt32(&u.active, 1)
	defer atomic.AddInt32(&u.active, -1)
	for {
		seen := atomic.LoadInt32(&u.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&u.maxSeen, seen, n) {
			break
		}
	}
	select {
	case <-time.After(u.delay):
	case <-ctx.Done():
		return Attachment{}, ctx.Err()
	}
	return Attachment{URL: "https://cdn.example/" + f.Name}, nil
}

func waitIdle(t *testing.T, w *Widget) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, w.WaitIdle(ctx))
	return w.Snapshot()
}

func messagesBy(msgs []Message, sender Sender) []Message {
	var out []Message
	for _, m := range msgs {
		if m.Sender == sender {
			out = append(out, m)
		}
	}
	return out
}

type staticToken string

func (s staticToken) Token() (string, bool) { return string(s), s != "" }
