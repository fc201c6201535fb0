// Package config loads predal's optional TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/erazemk/predal/internal/items"
)

// Config holds the server settings. Command-line flags override it.
type Config struct {
	DB         string `toml:"db"`
	Addr       string `toml:"addr"`
	Log        string `toml:"log"`
	StorageKey string `toml:"storage_key"`
}

const (
	DefaultPath = "~/.config/predal/config.toml"
	defaultDB   = "predal.sqlite3"
	defaultAddr = ":8080"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB:         defaultDB,
		Addr:       defaultAddr,
		StorageKey: items.DefaultKey,
	}
}

// Load reads the config file at path, or DefaultPath when path is empty. Only
// a missing DefaultPath yields the defaults; a missing explicit path or a
// malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return cfg, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && strings.TrimSpace(path) == "" {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var raw Config
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.DB); v != "" {
		cfg.DB = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.Addr); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(raw.Log); v != "" {
		cfg.Log = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.StorageKey); v != "" {
		cfg.StorageKey = v
	}

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(DefaultPath)
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
