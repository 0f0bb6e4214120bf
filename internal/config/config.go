package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// Config holds the client settings.
type Config struct {
	Server           string
	StreamPath       string
	InitialStatePath string
	LogFile          string
	LogLevel         string
	CachePath        string
	CacheEnabled     bool
	MetricsAddr      string
}

const (
	defaultConfigPath       = "~/.config/visionmon/config.toml"
	defaultServer           = "127.0.0.1:8000"
	defaultStreamPath       = "/ws/llm_output/"
	defaultInitialStatePath = "/initial_state/"
	defaultLogFile          = "~/.local/share/visionmon/visionmon.log"
	defaultLogLevel         = "info"
	defaultCachePath        = "~/.cache/visionmon/state.cbor"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server:           defaultServer,
		StreamPath:       defaultStreamPath,
		InitialStatePath: defaultInitialStatePath,
		LogFile:          mustExpand(defaultLogFile),
		LogLevel:         defaultLogLevel,
		CachePath:        mustExpand(defaultCachePath),
		CacheEnabled:     true,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Server           string `toml:"server"`
		StreamPath       string `toml:"stream_path"`
		InitialStatePath string `toml:"initial_state_path"`
		LogFile          string `toml:"log_file"`
		LogLevel         string `toml:"log_level"`
		CachePath        string `toml:"cache_path"`
		Cache            *bool  `toml:"cache"`
		MetricsAddr      string `toml:"metrics_addr"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.Server = orDefault(raw.Server, defaultServer)
	cfg.StreamPath = orDefault(raw.StreamPath, defaultStreamPath)
	cfg.InitialStatePath = orDefault(raw.InitialStatePath, defaultInitialStatePath)
	cfg.LogFile = mustExpand(orDefault(raw.LogFile, defaultLogFile))
	cfg.CachePath = mustExpand(orDefault(raw.CachePath, defaultCachePath))
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	if raw.Cache != nil {
		cfg.CacheEnabled = *raw.Cache
	}

	cfg.LogLevel = strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel))
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("parse config: log_level %q: %w", raw.LogLevel, err)
	}

	return cfg, nil
}

// Level returns the parsed log level, info when unset or invalid.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return level
}

// CacheFile returns the cache path, or "" when caching is disabled.
func (c Config) CacheFile() string {
	if !c.CacheEnabled {
		return ""
	}
	return c.CachePath
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
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
