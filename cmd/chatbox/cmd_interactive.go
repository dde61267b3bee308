package main

import (
	"context"
	"fmt"

	chatui "laundrychat/cmd/chatbox/chat"
	"laundrychat/internal/config"
	"laundrychat/internal/logging"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var startOpen bool

// runInteractive starts the full-screen chat widget.
func runInteractive(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	var opts []chatui.Option
	if startOpen {
		opts = append(opts, chatui.WithAutoOpen())
	}

	// Hot reload is best effort; the widget works without it.
	if watcher, err := config.NewWatcher(configPath); err != nil {
		logging.BootWarn("config watcher unavailable: %v", err)
	} else if err := watcher.Start(ctx); err != nil {
		logging.BootWarn("config watcher failed to start: %v", err)
		watcher.Stop()
	} else {
		defer watcher.Stop()
		opts = append(opts, chatui.WithConfigUpdates(watcher.Updates()))
	}

	model := chatui.New(a.widget, cfg, opts...)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := p.Run()
	if m, ok := final.(chatui.Model); ok {
		m.Shutdown()
	}
	if err != nil && err != tea.ErrProgramKilled {
		return fmt.Errorf("chat widget: %w", err)
	}
	return nil
}
