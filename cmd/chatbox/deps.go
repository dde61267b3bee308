package main

import (
	"context"
	"fmt"

	chatui "laundrychat/cmd/chatbox/chat"
	"laundrychat/internal/auth"
	"laundrychat/internal/chat"
	"laundrychat/internal/config"
	"laundrychat/internal/logging"
	"laundrychat/internal/store"
	"laundrychat/internal/transport"
	"laundrychat/internal/upload"

	"github.com/spf13/cobra"
)

// app bundles the wired components for one command run.
type app struct {
	store  *store.LocalStore
	auth   auth.Provider
	client *transport.Client
	widget *chat.Widget
}

func tokenProvider(c *config.Config, s *store.LocalStore) auth.Provider {
	return auth.Chain{
		auth.EnvProvider{Var: auth.DefaultEnvVar},
		auth.NewStorageProvider(s, c.Storage.AuthKey),
	}
}

func newClient(c *config.Config, provider auth.Provider) *transport.Client {
	var opts []transport.Option
	if c.API.Breaker.Enabled {
		opts = append(opts, transport.WithBreaker(transport.BreakerSettings{
			MaxFailures: uint32(c.API.Breaker.MaxFailures),
			OpenTimeout: c.GetBreakerOpenTimeout(),
		}))
	}
	return transport.New(c.API.BaseURL, provider, c.GetRequestTimeout(), opts...)
}

// buildApp opens local storage and wires transport, auth and the widget.
func buildApp(c *config.Config) (*app, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s, err := store.NewLocalStore(c.Storage.Path)
	if err != nil {
		return nil, err
	}

	provider := tokenProvider(c, s)
	client := newClient(c, provider)
	uploader := upload.Simulated{Delay: c.GetUploadDelay()}
	w := chat.New(client, provider, uploader, chatui.OptionsFromConfig(c))

	logging.Boot("wired chatbox: api=%s storage=%s", c.API.BaseURL, c.Storage.Path)
	return &app{store: s, auth: provider, client: client, widget: w}, nil
}

// Close shuts the widget down and closes storage.
func (a *app) Close() {
	a.widget.Shutdown()
	if err := a.store.Close(); err != nil {
		logging.StoreError("close failed: %v", err)
	}
}

// commandContext returns cmd's context, or Background when the command was not
// started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
