// Package main provides the chatbox CLI entry point: the interactive support
// chat widget plus headless commands for sessions, history and credentials.
package main

import (
	"fmt"
	"os"
	"time"

	"laundrychat/internal/config"
	"laundrychat/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	apiURL      string
	storagePath string
	timeout     time.Duration

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chatbox",
	Short: "Customer support chat for the laundry storefront",
	Long: `chatbox is a terminal rendition of the storefront support widget.

It resumes your most recent support session, shows its history and lets you
message the support team. When the backend cannot answer, a local assistant
replies so the conversation never dead-ends.

Run without arguments to start the interactive widget.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}

		// The interactive widget owns the terminal; log to file only.
		if cmd == cmd.Root() {
			return logging.Initialize(cfg.Logging.Options())
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.UseLogger(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: runInteractive,
}

func loadConfig(cmd *cobra.Command) error {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		loaded.API.BaseURL = apiURL
	}
	if flags.Changed("storage") {
		loaded.Storage.Path = storagePath
	}
	if flags.Changed("timeout") {
		loaded.API.Timeout = timeout.String()
	}
	if verbose {
		loaded.Logging.DebugMode = true
		loaded.Logging.Level = "debug"
	}

	cfg = loaded
	configPath = path
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Chat API base URL (or set LAUNDRYCHAT_API_URL)")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Local storage database (or set LAUNDRYCHAT_STORAGE)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "Per-request timeout")

	rootCmd.Flags().BoolVar(&startOpen, "open", true, "Open the chat panel on start")

	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
