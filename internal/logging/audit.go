package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AuditEventType names one kind of chat audit event.
type AuditEventType string

const (
	AuditSessionResumed   AuditEventType = "session_resumed"
	AuditSessionCreated   AuditEventType = "session_created"
	AuditMessageQueued    AuditEventType = "message_queued"
	AuditMessageDelivered AuditEventType = "message_delivered"
	AuditMessageFailed    AuditEventType = "message_failed"
	AuditFallbackReply    AuditEventType = "fallback_reply"
	AuditUploadFinished   AuditEventType = "upload_finished"
	AuditWidgetClosed     AuditEventType = "widget_closed"
)

// AuditEvent is one line of the audit trail.
type AuditEvent struct {
	Type      AuditEventType
	SessionID string
	MessageID string
	Target    string // rule, file name or other subject of the event
	Success   bool
	Duration  time.Duration
	Err       error
}

var (
	auditLog  = zap.NewNop()
	auditFile *os.File
)

// openAuditLocked starts <dir>/<date>_audit.log as JSON lines. Caller holds mu.
func openAuditLocked(dir string) error {
	name := fmt.Sprintf("%s_audit.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = f

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.EpochMillisTimeEncoder
	encCfg.LevelKey = ""
	encCfg.CallerKey = ""
	auditLog = zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zapcore.InfoLevel))
	return nil
}

// closeAuditLocked flushes and closes the audit file. Caller holds mu.
func closeAuditLocked() {
	_ = auditLog.Sync()
	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
	auditLog = zap.NewNop()
}

// AuditLogger writes audit events, optionally scoped to a session.
type AuditLogger struct {
	sessionID string
}

// Audit returns an unscoped audit logger.
func Audit() *AuditLogger {
	return &AuditLogger{}
}

// AuditWithSession returns an audit logger whose events carry sessionID.
func AuditWithSession(sessionID string) *AuditLogger {
	return &AuditLogger{sessionID: sessionID}
}

// Log writes e. Events are dropped when audit logging is off.
func (a *AuditLogger) Log(e AuditEvent) {
	if e.SessionID == "" {
		e.SessionID = a.sessionID
	}

	fields := []zap.Field{
		zap.String("event", string(e.Type)),
		zap.Bool("success", e.Success),
	}
	if e.SessionID != "" {
		fields = append(fields, zap.String("session", e.SessionID))
	}
	if e.MessageID != "" {
		fields = append(fields, zap.String("message", e.MessageID))
	}
	if e.Target != "" {
		fields = append(fields, zap.String("target", e.Target))
	}
	if e.Duration > 0 {
		fields = append(fields, zap.Int64("dur_ms", e.Duration.Milliseconds()))
	}
	if e.Err != nil {
		fields = append(fields, zap.String("error", e.Err.Error()))
	}

	mu.RLock()
	l := auditLog
	mu.RUnlock()
	l.Info(string(e.Type), fields...)
}

func (a *AuditLogger) SessionResumed(sessionID string, messages int) {
	a.Log(AuditEvent{Type: AuditSessionResumed, SessionID: sessionID, Target: fmt.Sprintf("%d messages", messages), Success: true})
}

func (a *AuditLogger) SessionCreated(sessionID, firstMessageID string) {
	a.Log(AuditEvent{Type: AuditSessionCreated, SessionID: sessionID, MessageID: firstMessageID, Success: true})
}

func (a *AuditLogger) MessageQueued(messageID string) {
	a.Log(AuditEvent{Type: AuditMessageQueued, MessageID: messageID, Success: true})
}

func (a *AuditLogger) MessageDelivered(messageID string, d time.Duration) {
	a.Log(AuditEvent{Type: AuditMessageDelivered, MessageID: messageID, Success: true, Duration: d})
}

// MessageFailed records a failed delivery; masked means the user saw it as sent.
func (a *AuditLogger) MessageFailed(messageID string, err error, masked bool) {
	target := "surfaced"
	if masked {
		target = "masked"
	}
	a.Log(AuditEvent{Type: AuditMessageFailed, MessageID: messageID, Target: target, Err: err})
}

func (a *AuditLogger) FallbackReply(inReplyTo, rule string) {
	a.Log(AuditEvent{Type: AuditFallbackReply, MessageID: inReplyTo, Target: rule, Success: true})
}

func (a *AuditLogger) UploadFinished(messageID, name string, err error) {
	a.Log(AuditEvent{Type: AuditUploadFinished, MessageID: messageID, Target: name, Success: err == nil, Err: err})
}

func (a *AuditLogger) WidgetClosed(dropped int) {
	a.Log(AuditEvent{Type: AuditWidgetClosed, Target: fmt.Sprintf("%d dropped", dropped), Success: true})
}
