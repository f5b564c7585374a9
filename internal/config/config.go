/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the user-editable YAML configuration and merges
// read-only environment overrides on top.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	TelemetryOptIn      bool   `yaml:"telemetry_opt_in"`
	Theme               string `yaml:"theme"` // "system" | "light" | "dark"
	AutosaveIntervalSec int    `yaml:"autosave_interval_sec"`
	AutosaveKeep        int    `yaml:"autosave_keep"`
}

type HistoryConfig struct {
	MaxDepth   int `yaml:"max_depth"`
	DebounceMs int `yaml:"debounce_ms"`
}

type ExportConfig struct {
	DefaultFormat string  `yaml:"default_format"` // png | jpeg | pdf | archive | json
	DefaultScale  float64 `yaml:"default_scale"`
	JPEGQuality   int     `yaml:"jpeg_quality"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	History       HistoryConfig `yaml:"history"`
	Export        ExportConfig  `yaml:"export"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system", AutosaveIntervalSec: 60, AutosaveKeep: 20},
		History:       HistoryConfig{MaxDepth: 50, DebounceMs: 300},
		Export:        ExportConfig{DefaultFormat: "png", DefaultScale: 1, JPEGQuality: 90},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvTelemetryOptIn  = "CSD_TELEMETRY_OPT_IN"
	EnvAutosaveSec     = "CSD_AUTOSAVE_INTERVAL_SEC"
	EnvHistoryMaxDepth = "CSD_HISTORY_MAX_DEPTH"
	EnvExportFormat    = "CSD_EXPORT_FORMAT"
	EnvExportScale     = "CSD_EXPORT_SCALE"
	EnvLogLevel        = "CSD_LOG_LEVEL"
	EnvLogFormat       = "CSD_LOG_FORMAT"
	EnvLogSource       = "CSD_LOG_SOURCE"
	EnvLogFile         = "CSD_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "CanvasStudio")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "CanvasStudio")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "canvasstudio")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if src.General.AutosaveIntervalSec > 0 {
		dst.General.AutosaveIntervalSec = src.General.AutosaveIntervalSec
	}
	if src.General.AutosaveKeep > 0 {
		dst.General.AutosaveKeep = src.General.AutosaveKeep
	}
	if src.History.MaxDepth > 0 {
		dst.History.MaxDepth = src.History.MaxDepth
	}
	if src.History.DebounceMs > 0 {
		dst.History.DebounceMs = src.History.DebounceMs
	}
	if src.Export.DefaultFormat != "" {
		dst.Export.DefaultFormat = strings.ToLower(strings.TrimSpace(src.Export.DefaultFormat))
	}
	if src.Export.DefaultScale > 0 {
		dst.Export.DefaultScale = src.Export.DefaultScale
	}
	if src.Export.JPEGQuality > 0 && src.Export.JPEGQuality <= 100 {
		dst.Export.JPEGQuality = src.Export.JPEGQuality
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	boolish := func(v string) bool {
		lv := strings.ToLower(v)
		return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = boolish(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvAutosaveSec)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.General.AutosaveIntervalSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryMaxDepth)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.History.MaxDepth = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportFormat)); v != "" {
		cfg.Export.DefaultFormat = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportScale)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Export.DefaultScale = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = boolish(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by
// environment variables.
func EnvOverrideFor(key string) (string, bool) {
	check := func(env string) (string, bool) {
		if os.Getenv(env) != "" {
			return env, true
		}
		return "", false
	}
	switch key {
	case "general.telemetry_opt_in":
		return check(EnvTelemetryOptIn)
	case "general.autosave_interval_sec":
		return check(EnvAutosaveSec)
	case "history.max_depth":
		return check(EnvHistoryMaxDepth)
	case "export.default_format":
		return check(EnvExportFormat)
	case "export.default_scale":
		return check(EnvExportScale)
	case "logging.level":
		return check(EnvLogLevel)
	case "logging.format":
		return check(EnvLogFormat)
	case "logging.source":
		return check(EnvLogSource)
	case "logging.file":
		return check(EnvLogFile)
	}
	return "", false
}
