package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"laundrychat/internal/auth"
	"laundrychat/internal/store"
	"laundrychat/internal/transport"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sessionLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List your recent support sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

var historyCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Print the message history of a support session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionLimit, "limit", "n", 10, "Maximum number of sessions to list")
}

// withClient opens storage and builds a transport client for a one-shot command.
func withClient(fn func(ctx context.Context, c *transport.Client) error) error {
	s, err := store.NewLocalStore(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	client := newClient(cfg, tokenProvider(cfg, s))
	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.GetRequestTimeout())
	defer cancel()

	err = fn(ctx, client)
	if errors.Is(err, auth.ErrNoToken) {
		return fmt.Errorf("not logged in: run 'chatbox login --token <jwt>' or set %s", auth.DefaultEnvVar)
	}
	return err
}

func runSessions(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, c *transport.Client) error {
		sessions, err := c.ListRecentSessions(ctx, sessionLimit)
		if err != nil {
			return err
		}
		logger.Debug("listed sessions", zap.Int("count", len(sessions)))

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No support sessions yet.")
			return nil
		}
		rows := make([][]string, 0, len(sessions))
		for _, s := range sessions {
			rows = append(rows, []string{s.ID.String(), s.Status, s.Category, s.Priority, relative(s.UpdatedAt)})
		}
		printTable(out, []string{"ID", "STATUS", "CATEGORY", "PRIORITY", "UPDATED"}, rows)
		return nil
	})
}

func runHistory(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, c *transport.Client) error {
		records, err := c.FetchHistory(ctx, args[0])
		if err != nil {
			return err
		}
		logger.Debug("fetched history", zap.String("session", args[0]), zap.Int("count", len(records)))

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No messages in this session.")
			return nil
		}
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			from := "You"
			switch {
			case r.MessageType == "system":
				from = "System"
			case r.IsFromSupport:
				from = "Support"
			}
			rows = append(rows, []string{relative(r.Timestamp), from, r.MessageType, r.Message})
		}
		printTable(out, []string{"WHEN", "FROM", "TYPE", "MESSAGE"}, rows)
		return nil
	})
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(w, t.Render())
}

// relative formats an RFC 3339 timestamp as "3 minutes ago", passing through
// anything it cannot parse.
func relative(ts string) string {
	if ts == "" {
		return "-"
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return humanize.Time(t)
}
