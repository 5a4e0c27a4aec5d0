// Package config loads the scan client configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the fields the scan client needs.
type Config struct {
	ServerURL   string
	Constrained bool
	Cooldown    time.Duration
	ScanTimeout time.Duration
	LogDir      string
}

const (
	defaultConfigPath  = "~/.config/bookshelf/config.toml"
	defaultLogDir      = "~/.local/share/bookshelf/logs"
	defaultServerURL   = "http://127.0.0.1:8080"
	defaultCooldown    = 2 * time.Second
	defaultScanTimeout = 2 * time.Minute
)

// Load locates and parses the client config, falling back to defaults when
// the file is missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ServerURL:   defaultServerURL,
		Cooldown:    defaultCooldown,
		ScanTimeout: defaultScanTimeout,
		LogDir:      mustExpand(defaultLogDir),
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		ServerURL          string `toml:"server_url"`
		Constrained        bool   `toml:"constrained"`
		CooldownSeconds    int    `toml:"cooldown_seconds"`
		ScanTimeoutSeconds int    `toml:"scan_timeout_seconds"`
		LogDir             string `toml:"log_dir"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if url := strings.TrimSpace(raw.ServerURL); url != "" {
		cfg.ServerURL = strings.TrimRight(url, "/")
	}
	cfg.Constrained = raw.Constrained
	if raw.CooldownSeconds > 0 {
		cfg.Cooldown = time.Duration(raw.CooldownSeconds) * time.Second
	}
	if raw.ScanTimeoutSeconds > 0 {
		cfg.ScanTimeout = time.Duration(raw.ScanTimeoutSeconds) * time.Second
	}
	if dir := strings.TrimSpace(raw.LogDir); dir != "" {
		cfg.LogDir = mustExpand(dir)
	}

	return cfg, nil
}

// ClientLogPath returns the path to the scan client log file.
func (c Config) ClientLogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/scan.log")
	}
	return filepath.Join(c.LogDir, "scan.log")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
