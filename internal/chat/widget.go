package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"laundrychat/internal/auth"
	"laundrychat/internal/autoreply"
	"laundrychat/internal/logging"
	"laundrychat/internal/transport"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned for actions on a closed widget.
var ErrClosed = errors.New("chat widget is closed")

// Transport is the backend the widget talks to.
type Transport interface {
	ListRecentSessions(ctx context.Context, limit int) ([]transport.SessionSummary, error)
	FetchHistory(ctx context.Context, sessionID string) ([]transport.HistoryRecord, error)
	CreateSession(ctx context.Context, req transport.CreateSessionRequest) (string, error)
	SendMessage(ctx context.Context, req transport.SendMessageRequest) error
}

// Uploader stores a picked file and returns its descriptor.
type Uploader interface {
	Upload(ctx context.Context, f LocalFile) (Attachment, error)
}

// Options configures widget behavior.
type Options struct {
	Category       string
	Priority       string
	HistoryLimit   int
	WelcomeMessage string

	// SurfaceFailures marks failed sends and uploads as failed instead of
	// answering them with a fallback reply.
	SurfaceFailures bool

	AutoReply    bool
	AfterSend    bool // fallback also follows successful sends on an existing session
	TypingDelay  time.Duration
	ReplyDelay   time.Duration
	AgentName    string
	ResponseTime string

	Clock func() time.Time
}

// DefaultOptions returns the stock widget behavior.
func DefaultOptions() Options {
	return Options{
		Category:       "general",
		Priority:       "medium",
		HistoryLimit:   1,
		WelcomeMessage: "Welcome to support! How can we help you today?",
		AutoReply:      true,
		AfterSend:      true,
		TypingDelay:    time.Second,
		ReplyDelay:     3 * time.Second,
		AgentName:      "Support Team",
		ResponseTime:   "< 2 min",
	}
}

// Snapshot is a consistent copy of the widget state for rendering.
type Snapshot struct {
	Open        bool
	Minimized   bool
	Unread      int
	Status      ConnectionStatus
	SessionID   string
	Agent       *SupportAgent
	AgentTyping bool
	Messages    []Message
	Pending     int
}

// generation scopes everything started by one open. Closing cancels ctx and
// every goroutine of the generation turns into a no-op.
type generation struct {
	ctx     context.Context
	cancel  context.CancelFunc
	ready   chan struct{}
	wake    chan struct{}
	pending []outgoing
}

type outgoing struct {
	id          string
	text        string
	msgType     MessageType
	correlation string
}

// Widget is the support chat widget. All methods are safe for concurrent use.
type Widget struct {
	mu sync.Mutex

	transport Transport
	auth      auth.Provider
	uploader  Uploader
	responder *autoreply.Responder
	opts      Options
	ids       *IDGenerator

	shell     Shell
	thread    *Thread
	status    ConnectionStatus
	sessionID string
	agent     *SupportAgent
	typing    int
	inflight  int
	gen       *generation
	shutdown  bool

	changes chan struct{}
	bcast   chan struct{}
	wg      sync.WaitGroup
}

// New creates a closed widget.
func New(tr Transport, provider auth.Provider, uploader Uploader, opts Options) *Widget {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.HistoryLimit < 1 {
		opts.HistoryLimit = 1
	}
	th := NewThread()
	th.now = opts.Clock
	return &Widget{
		transport: tr,
		auth:      provider,
		uploader:  uploader,
		responder: autoreply.NewResponder(opts.AutoReply),
		opts:      opts,
		ids:       NewIDGenerator(opts.Clock),
		thread:    th,
		status:    StatusDisconnected,
		changes:   make(chan struct{}, 1),
		bcast:     make(chan struct{}),
	}
}

// Changes signals that the snapshot changed. Signals coalesce.
func (w *Widget) Changes() <-chan struct{} {
	return w.changes
}

func (w *Widget) notifyLocked() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
	close(w.bcast)
	w.bcast = make(chan struct{})
}

// Open shows the widget. Opening a closed widget starts initialization.
func (w *Widget) Open() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.shutdown {
		return
	}
	wasClosed := w.shell.Open()
	if wasClosed && w.thread.Len() == 0 {
		w.startGenerationLocked()
	}
	w.notifyLocked()
}

func (w *Widget) startGenerationLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	g := &generation{
		ctx:    ctx,
		cancel: cancel,
		ready:  make(chan struct{}),
		wake:   make(chan struct{}, 1),
	}
	w.gen = g
	w.status = StatusConnecting

	w.wg.Add(2)
	go w.initialize(g)
	go w.sendLoop(g)
	logging.Session("widget opened, initializing")
}

func (w *Widget) initialize(g *generation) {
	defer w.wg.Done()
	defer close(g.ready)

	if _, ok := w.auth.Token(); !ok {
		logging.Session("no auth token, staying disconnected")
		w.mu.Lock()
		if w.gen == g {
			w.status = StatusDisconnected
			w.notifyLocked()
		}
		w.mu.Unlock()
		return
	}

	w.mu.Lock()
	limit := w.opts.HistoryLimit
	w.mu.Unlock()

	var sessionID string
	sessions, err := w.transport.ListRecentSessions(g.ctx, limit)
	if g.ctx.Err() != nil {
		return
	}
	if err != nil {
		logging.SessionWarn("session discovery failed, starting fresh: %v", err)
	} else if len(sessions) > 0 {
		sessionID = sessions[0].ID.String()
	}

	var records []transport.HistoryRecord
	if sessionID != "" {
		records, err = w.transport.FetchHistory(g.ctx, sessionID)
		if g.ctx.Err() != nil {
			return
		}
		if err != nil {
			logging.SessionWarn("failed to load history for %s: %v", sessionID, err)
			records = nil
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != g {
		return
	}

	if sessionID != "" && w.sessionID == "" {
		w.sessionID = sessionID
		logging.Session("resuming session %s", sessionID)
	}
	if len(records) > 0 {
		n := w.thread.Hydrate(records)
		logging.SessionDebug("hydrated %d of %d history records", n, len(records))
		logging.AuditWithSession(sessionID).SessionResumed(sessionID, n)
	}

	w.status = StatusConnected
	w.agent = DefaultAgent(w.opts.AgentName, w.opts.ResponseTime)

	if w.thread.Len() == 0 && w.opts.WelcomeMessage != "" {
		if _, err := w.thread.AppendSystem(w.ids.System(), w.opts.WelcomeMessage); err == nil {
			w.shell.NoteIncoming(SenderSystem)
		}
	}
	w.notifyLocked()
}

// Send appends a text message and queues it for delivery.
func (w *Widget) Send(text string) (Message, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	g := w.gen
	if w.shutdown || g == nil {
		return Message{}, ErrClosed
	}

	m, err := NewUserText(w.ids.Text(), text, w.opts.Clock())
	if err != nil {
		return Message{}, err
	}
	m.CorrelationID = uuid.NewString()
	if err := w.thread.AppendOptimistic(m); err != nil {
		return Message{}, err
	}

	g.pending = append(g.pending, outgoing{
		id:          m.ID,
		text:        m.Text,
		msgType:     m.Type,
		correlation: m.CorrelationID,
	})
	w.inflight++
	select {
	case g.wake <- struct{}{}:
	default:
	}
	w.notifyLocked()
	logging.SessionDebug("queued %s", m.ID)
	logging.AuditWithSession(w.sessionID).MessageQueued(m.ID)
	return m, nil
}

// sendLoop delivers queued messages one at a time, in order, once
// initialization has finished.
func (w *Widget) sendLoop(g *generation) {
	defer w.wg.Done()

	select {
	case <-g.ready:
	case <-g.ctx.Done():
		return
	}

	for {
		w.mu.Lock()
		if w.gen != g {
			w.mu.Unlock()
			return
		}
		if len(g.pending) == 0 {
			w.mu.Unlock()
			select {
			case <-g.wake:
				continue
			case <-g.ctx.Done():
				return
			}
		}
		out := g.pending[0]
		g.pending = g.pending[1:]
		sessionID := w.sessionID
		w.mu.Unlock()

		w.deliver(g, out, sessionID)
	}
}

func (w *Widget) deliver(g *generation, out outgoing, sessionID string) {
	w.mu.Lock()
	opts := w.opts
	w.mu.Unlock()

	var (
		err     error
		created string
		start   = time.Now()
	)
	if sessionID == "" {
		created, err = w.transport.CreateSession(g.ctx, transport.CreateSessionRequest{
			Message:  out.text,
			Category: opts.Category,
			Priority: opts.Priority,
		})
	} else {
		err = w.transport.SendMessage(g.ctx, transport.SendMessageRequest{
			SessionID:   sessionID,
			Message:     out.text,
			MessageType: string(out.msgType),
		})
	}
	if g.ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != g {
		return
	}
	w.inflight--

	if err != nil {
		logging.SessionWarn("delivery of %s failed: %v", out.id, err)
		logging.AuditWithSession(sessionID).MessageFailed(out.id, err, !w.opts.SurfaceFailures)
		if w.opts.SurfaceFailures {
			w.thread.UpdateStatus(out.id, StatusFailed)
		} else {
			w.thread.UpdateStatus(out.id, StatusSent)
			w.scheduleReplyLocked(g, out)
		}
		w.notifyLocked()
		return
	}

	if created != "" {
		w.sessionID = created
		logging.Session("session %s created", created)
		logging.AuditWithSession(created).SessionCreated(created, out.id)
	}
	logging.AuditWithSession(w.sessionID).MessageDelivered(out.id, time.Since(start))
	w.thread.UpdateStatus(out.id, StatusSent)
	if created == "" && w.opts.AfterSend {
		w.scheduleReplyLocked(g, out)
	}
	w.notifyLocked()
}

// scheduleReplyLocked shows the typing indicator after TypingDelay and appends
// the fallback reply after ReplyDelay, both measured from now.
func (w *Widget) scheduleReplyLocked(g *generation, out outgoing) {
	reply, ok := w.responder.Reply(out.text)
	if !ok {
		return
	}
	typingDelay, replyDelay := w.opts.TypingDelay, w.opts.ReplyDelay
	if replyDelay < typingDelay {
		replyDelay = typingDelay
	}

	w.inflight++
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		typing := time.NewTimer(typingDelay)
		defer typing.Stop()
		select {
		case <-typing.C:
		case <-g.ctx.Done():
			return
		}

		w.mu.Lock()
		if w.gen != g {
			w.mu.Unlock()
			return
		}
		w.typing++
		w.notifyLocked()
		w.mu.Unlock()

		answer := time.NewTimer(replyDelay - typingDelay)
		defer answer.Stop()
		select {
		case <-answer.C:
		case <-g.ctx.Done():
			return
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		if w.gen != g {
			return
		}
		w.typing--
		w.inflight--

		m, err := NewSupportText(w.ids.Support(), reply.Text, w.opts.Clock())
		if err != nil {
			w.notifyLocked()
			return
		}
		m.InReplyTo = out.correlation
		if err := w.thread.Append(m); err == nil {
			w.shell.NoteIncoming(SenderSupport)
			logging.SessionDebug("fallback reply (%s) to %s", reply.Rule, out.id)
			logging.AuditWithSession(w.sessionID).FallbackReply(out.id, string(reply.Rule))
		}
		w.notifyLocked()
	}()
}

// maxParallelUploads bounds the uploads of one Attach call.
const maxParallelUploads = 3

type pendingUpload struct {
	id   string
	file LocalFile
}

// Attach adds one file message per file and uploads them in the background.
// When a file is rejected, the files before it stay attached and uploading.
func (w *Widget) Attach(files []LocalFile) ([]Message, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	g := w.gen
	if w.shutdown || g == nil {
		return nil, ErrClosed
	}
	if len(files) == 0 {
		return nil, ErrNoAttachment
	}

	var (
		added = make([]Message, 0, len(files))
		batch = make([]pendingUpload, 0, len(files))
		err   error
	)
	for _, f := range files {
		att := Attachment{Name: f.Name, URL: f.URL(), Type: f.Type, Size: f.Size}
		var m Message
		if m, err = NewUserFile(w.ids.File(), att, w.opts.Clock()); err != nil {
			break
		}
		m.CorrelationID = uuid.NewString()
		if err = w.thread.AppendOptimistic(m); err != nil {
			break
		}
		added = append(added, m)
		batch = append(batch, pendingUpload{id: m.ID, file: f})
		w.inflight++
	}

	if len(batch) > 0 {
		w.wg.Add(1)
		go w.uploadBatch(g, batch)
		w.notifyLocked()
	}
	return added, err
}

// uploadBatch runs the uploads of one Attach call with bounded parallelism.
// Each file settles on its own; one failure does not cancel the others.
func (w *Widget) uploadBatch(g *generation, batch []pendingUpload) {
	defer w.wg.Done()

	var eg errgroup.Group
	eg.SetLimit(maxParallelUploads)
	for _, p := range batch {
		p := p
		eg.Go(func() error {
			w.upload(g, p.id, p.file)
			return nil
		})
	}
	_ = eg.Wait()
}

func (w *Widget) upload(g *generation, id string, f LocalFile) {
	var (
		att Attachment
		err error
	)
	if w.uploader != nil {
		att, err = w.uploader.Upload(g.ctx, f)
	}
	if g.ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != g {
		return
	}
	w.inflight--
	logging.AuditWithSession(w.sessionID).UploadFinished(id, f.Name, err)

	if err != nil && w.opts.SurfaceFailures {
		logging.SessionWarn("upload of %s failed: %v", f.Name, err)
		w.thread.UpdateStatus(id, StatusFailed)
	} else {
		if err != nil {
			logging.SessionWarn("upload of %s failed, marking sent: %v", f.Name, err)
		} else if att.URL != "" {
			w.thread.ReplaceAttachments(id, []Attachment{mergeAttachment(att, f)})
		}
		w.thread.UpdateStatus(id, StatusSent)
	}
	w.notifyLocked()
}

// mergeAttachment fills fields the uploader left empty from the local file.
func mergeAttachment(att Attachment, f LocalFile) Attachment {
	if att.Name == "" {
		att.Name = f.Name
	}
	if att.Type == "" {
		att.Type = f.Type
	}
	if att.Size == 0 {
		att.Size = f.Size
	}
	return att
}

// Minimize collapses the open widget.
func (w *Widget) Minimize() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.shell.Minimize()
	w.notifyLocked()
}

// Restore expands a minimized widget and clears the unread badge.
func (w *Widget) Restore() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.shell.Restore()
	w.notifyLocked()
}

// ToggleMinimize switches between minimized and restored.
func (w *Widget) ToggleMinimize() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.shell.ToggleMinimize()
	w.notifyLocked()
}

// Close hides the widget and discards its in-memory state. Work started by
// this open is cancelled; the server-side session is untouched.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeLocked()
}

func (w *Widget) closeLocked() {
	if !w.shell.IsOpen() && w.gen == nil {
		return
	}
	dropped := w.inflight
	w.shell.Close()
	if w.gen != nil {
		w.gen.cancel()
		w.gen = nil
	}
	w.thread.Reset()
	w.sessionID = ""
	w.agent = nil
	w.typing = 0
	w.inflight = 0
	w.status = StatusDisconnected
	w.notifyLocked()
	logging.Session("widget closed")
	logging.Audit().WidgetClosed(dropped)
}

// Shutdown closes the widget and waits for its goroutines to exit.
// The widget cannot be reopened afterwards.
func (w *Widget) Shutdown() {
	w.mu.Lock()
	w.shutdown = true
	w.closeLocked()
	w.mu.Unlock()

	w.wg.Wait()
}

// Reconfigure applies new options to subsequent actions.
func (w *Widget) Reconfigure(opts Options) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if opts.Clock == nil {
		opts.Clock = w.opts.Clock
	}
	if opts.HistoryLimit < 1 {
		opts.HistoryLimit = 1
	}
	w.opts = opts
	w.responder = autoreply.NewResponder(opts.AutoReply)
	logging.SessionDebug("widget reconfigured")
}

// Snapshot returns a copy of the current state.
func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Snapshot{
		Open:        w.shell.IsOpen(),
		Minimized:   w.shell.IsMinimized(),
		Unread:      w.shell.Unread(),
		Status:      w.status,
		SessionID:   w.sessionID,
		AgentTyping: w.typing > 0,
		Messages:    w.thread.Messages(),
		Pending:     w.inflight,
	}
	if w.agent != nil {
		a := *w.agent
		s.Agent = &a
	}
	return s
}

// WaitIdle blocks until initialization has finished and no send, upload or
// fallback reply is outstanding.
func (w *Widget) WaitIdle(ctx context.Context) error {
	for {
		w.mu.Lock()
		idle := w.status != StatusConnecting && w.inflight == 0
		ch := w.bcast
		w.mu.Unlock()

		if idle {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
