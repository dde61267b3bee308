package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"laundrychat/internal/auth"
	"laundrychat/internal/store"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var loginToken string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a storefront token in local storage",
	Long: `Saves the JWT issued by the storefront under the auth-storage key, in the
same {"state":{"token":...}} shape the web client persists.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity carried by the current token",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVar(&loginToken, "token", "", "JWT to store (reads stdin when empty)")
}

func openStore() (*store.LocalStore, error) {
	return store.NewLocalStore(cfg.Storage.Path)
}

func runLogin(cmd *cobra.Command, args []string) error {
	token := strings.TrimSpace(loginToken)
	if token == "" {
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 16<<10))
		if err != nil {
			return fmt.Errorf("reading token from stdin: %w", err)
		}
		token = strings.TrimSpace(string(data))
	}
	if token == "" {
		return auth.ErrNoToken
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := auth.SaveToken(s, cfg.Storage.AuthKey, token); err != nil {
		return err
	}
	logger.Info("token stored", zap.String("key", cfg.Storage.AuthKey))

	out := cmd.OutOrStdout()
	claims, err := auth.ParseClaims(token)
	if err != nil {
		fmt.Fprintf(out, "Token saved (could not read claims: %v)\n", err)
		return nil
	}
	fmt.Fprintf(out, "Logged in as %s\n", claims.DisplayName())
	if claims.Expired(time.Now()) {
		fmt.Fprintln(out, "Warning: this token has already expired.")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := auth.ClearToken(s, cfg.Storage.AuthKey); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	token, ok := tokenProvider(cfg, s).Token()
	if !ok {
		return fmt.Errorf("not logged in")
	}
	claims, err := auth.ParseClaims(token)
	if err != nil {
		return err
	}

	source := "local storage"
	if os.Getenv(auth.DefaultEnvVar) != "" {
		source = auth.DefaultEnvVar
	}

	expires := "never"
	if !claims.ExpiresAt.IsZero() {
		expires = humanize.Time(claims.ExpiresAt)
		if claims.Expired(time.Now()) {
			expires = "expired " + expires
		}
	}

	printTable(cmd.OutOrStdout(), []string{"FIELD", "VALUE"}, [][]string{
		{"name", claims.DisplayName()},
		{"subject", orDash(claims.Subject)},
		{"email", orDash(claims.Email)},
		{"tenant", orDash(claims.TenantID)},
		{"role", orDash(claims.Role)},
		{"expires", expires},
		{"source", source},
	})
	return nil
}
