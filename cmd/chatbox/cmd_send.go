package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"laundrychat/internal/chat"
	"laundrychat/internal/upload"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	sendAttach  []string
	sendWait    time.Duration
	sendAsJSON  bool
	sendNoReply bool
)

var sendCmd = &cobra.Command{
	Use:   "send [message...]",
	Short: "Send a message without the interactive widget",
	Long: `Opens the widget headlessly, resumes or creates a session, sends the message
and any attachments, waits for the reply and prints the transcript.`,
	Example: `  chatbox send "Where is my order 1042?"
  chatbox send --attach receipt.png "Charged twice for this"`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringSliceVarP(&sendAttach, "attach", "a", nil, "File to attach (repeatable)")
	sendCmd.Flags().DurationVar(&sendWait, "wait", 30*time.Second, "How long to wait for replies")
	sendCmd.Flags().BoolVar(&sendAsJSON, "json", false, "Print the transcript as JSON")
	sendCmd.Flags().BoolVar(&sendNoReply, "no-reply", false, "Disable the local fallback reply")
}

func runSend(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" && len(sendAttach) == 0 {
		return fmt.Errorf("nothing to send: pass a message or --attach a file")
	}
	if sendNoReply {
		cfg.AutoReply.Enabled = false
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, sendWait)
	defer cancel()

	// Describe attachments before touching the backend so a bad path fails fast.
	var files []chat.LocalFile
	if len(sendAttach) > 0 {
		var err error
		if files, err = upload.DescribeAll(ctx, sendAttach); err != nil {
			return err
		}
	}

	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	w := a.widget

	w.Open()
	if err := w.WaitIdle(ctx); err != nil {
		return fmt.Errorf("initializing chat: %w", err)
	}
	logger.Debug("widget ready", zap.String("status", string(w.Snapshot().Status)))

	if len(files) > 0 {
		if _, err := w.Attach(files); err != nil {
			return err
		}
	}
	if text != "" {
		if _, err := w.Send(text); err != nil {
			return err
		}
	}
	if err := w.WaitIdle(ctx); err != nil {
		logger.Warn("stopped waiting for replies", zap.Error(err))
	}

	snap := w.Snapshot()
	if sendAsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snap.Messages)
	}
	printTranscript(cmd.OutOrStdout(), snap)
	return nil
}

func printTranscript(out io.Writer, snap chat.Snapshot) {
	fmt.Fprintf(out, "Session: %s  (%s)\n", orDash(snap.SessionID), snap.Status)
	for _, m := range snap.Messages {
		who := "You"
		switch m.Sender {
		case chat.SenderSupport:
			who = "Support"
			if snap.Agent != nil {
				who = snap.Agent.Name
			}
		case chat.SenderSystem:
			who = "System"
		}

		line := m.Text
		for _, att := range m.Attachments {
			line += fmt.Sprintf(" [%s, %s]", att.Name, humanize.Bytes(uint64(att.Size)))
		}
		if m.Status != chat.StatusNone {
			line += fmt.Sprintf(" (%s)", m.Status)
		}
		fmt.Fprintf(out, "[%s] %s: %s\n", m.Timestamp.Format("15:04"), who, line)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
