package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DefaultServer is the backend base URL used when nothing else is configured.
const DefaultServer = "http://localhost:8000"

type GlobalConfig struct {
	// Server is the backend base URL (scheme://host:port).
	Server string `json:"server,omitempty"`

	// TimeoutSeconds bounds each HTTP request. Zero means the built-in default.
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`

	// TUI holds optional user preferences for the interactive TUI.
	TUI *TUIConfig `json:"tui,omitempty"`
}

type TUIConfig struct {
	// Theme forces "light" or "dark"; empty means auto-detect.
	Theme string `json:"theme,omitempty"`
	// Markdown renders item descriptions as markdown in the detail pane.
	Markdown *bool `json:"markdown,omitempty"`
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.freamarket).
	if v := strings.TrimSpace(os.Getenv("FREAMARKET_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".freamarket"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// StatePath is the SQLite file backing the session KV store.
func StatePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.sqlite"), nil
}

func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	// CLI and TUI may write concurrently; a unique temp name + rename keeps the file whole.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

// ResolveServer picks the backend base URL: explicit value, then config file, then DefaultServer.
func ResolveServer(explicit string, cfg *GlobalConfig) (string, error) {
	s := strings.TrimSpace(explicit)
	if s == "" && cfg != nil {
		s = strings.TrimSpace(cfg.Server)
	}
	if s == "" {
		s = DefaultServer
	}
	return NormalizeServer(s)
}

// NormalizeServer validates a base URL and strips any trailing slash.
func NormalizeServer(s string) (string, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", s, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid server url %q: scheme must be http or https", s)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server url %q: missing host", s)
	}
	return s, nil
}

// Origin reduces a base URL to scheme://host[:port], the scope of persisted session entries.
func Origin(server string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(server))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid origin for %q", server)
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), nil
}
