// Package auth resolves the bearer token the chat transport sends with every
// request. Tokens come from the local auth-storage entry written at login, or
// from the environment.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"laundrychat/internal/logging"
)

// DefaultStorageKey is the local storage key holding the persisted auth state.
const DefaultStorageKey = "auth-storage"

// DefaultEnvVar overrides the stored token when set.
const DefaultEnvVar = "LAUNDRYCHAT_TOKEN"

// ErrNoToken is returned when no credentials are available.
var ErrNoToken = errors.New("no auth token available")

// Provider returns the current bearer token.
type Provider interface {
	Token() (string, bool)
}

// KeyValueReader is the read side of the local store.
type KeyValueReader interface {
	Get(key string) (string, bool, error)
}

// KeyValueStore adds the write side used by login and logout.
type KeyValueStore interface {
	KeyValueReader
	Set(key, value string) error
	Remove(key string) error
}

// authStorage mirrors the persisted auth state: {"state":{"token":"..."},"version":0}.
type authStorage struct {
	State struct {
		Token string `json:"token"`
	} `json:"state"`
	Version int `json:"version"`
}

// ParseAuthStorage extracts state.token from a stored auth-storage value.
func ParseAuthStorage(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrNoToken
	}
	var s authStorage
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return "", fmt.Errorf("failed to parse auth storage: %w", err)
	}
	token := strings.TrimSpace(s.State.Token)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// EncodeAuthStorage builds the stored value for token.
func EncodeAuthStorage(token string) (string, error) {
	var s authStorage
	s.State.Token = token
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// StorageProvider reads the token from the local store on every call, so a
// login performed by another process is picked up on the next open.
type StorageProvider struct {
	store KeyValueReader
	key   string
}

// NewStorageProvider reads the token from key in store. An empty key means DefaultStorageKey.
func NewStorageProvider(store KeyValueReader, key string) *StorageProvider {
	if key == "" {
		key = DefaultStorageKey
	}
	return &StorageProvider{store: store, key: key}
}

// Token implements Provider.
func (p *StorageProvider) Token() (string, bool) {
	raw, ok, err := p.store.Get(p.key)
	if err != nil {
		logging.AuthWarn("failed to read %s: %v", p.key, err)
		return "", false
	}
	if !ok {
		logging.AuthDebug("no %s entry", p.key)
		return "", false
	}
	token, err := ParseAuthStorage(raw)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			logging.AuthWarn("ignoring malformed %s: %v", p.key, err)
		}
		return "", false
	}
	return token, true
}

// SaveToken persists token under key.
func SaveToken(store KeyValueStore, key, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoToken
	}
	if key == "" {
		key = DefaultStorageKey
	}
	value, err := EncodeAuthStorage(token)
	if err != nil {
		return err
	}
	return store.Set(key, value)
}

// ClearToken removes the persisted auth state.
func ClearToken(store KeyValueStore, key string) error {
	if key == "" {
		key = DefaultStorageKey
	}
	return store.Remove(key)
}

// EnvProvider reads the token from an environment variable.
type EnvProvider struct {
	Var string
}

// Token implements Provider.
func (p EnvProvider) Token() (string, bool) {
	name := p.Var
	if name == "" {
		name = DefaultEnvVar
	}
	token := strings.TrimSpace(os.Getenv(name))
	return token, token != ""
}

// Static always returns the same token. Empty means no token.
type Static string

// Token implements Provider.
func (s Static) Token() (string, bool) {
	return string(s), s != ""
}

// Chain returns the first token any provider yields.
type Chain []Provider

// Token implements Provider.
func (c Chain) Token() (string, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if token, ok := p.Token(); ok {
			return token, true
		}
	}
	return "", false
}
