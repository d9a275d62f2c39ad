// Package config loads client settings from defaults, TOML files, the
// environment and flags, in that order of precedence.
package config

import (
	"time"

	"github.com/Makepad-fr/tada-client/internal/model"
)

// Default values.
const (
	DefaultAPIURL    = "http://localhost:3000"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultTheme     = "classic"
)

// Config holds every client setting.
type Config struct {
	// Backend
	APIURL  string        `toml:"api_url" validate:"required,http_url"`
	Timeout time.Duration `toml:"timeout" validate:"gte=0"` // 0: no client timeout

	// ValidateResponses checks GET /todos bodies against the bundled schema.
	ValidateResponses bool `toml:"validate_responses"`

	// Logging
	LogLevel  string `toml:"log_level" validate:"oneof=debug info warn warning error fatal"`
	LogFormat string `toml:"log_format" validate:"oneof=text json logfmt"`
	LogFile   string `toml:"log_file"`

	// Output
	Theme      string `toml:"theme" validate:"oneof=classic neon mono"`
	DateFormat string `toml:"date_format" validate:"required"`
	Group      bool   `toml:"group"`
	NoColor    bool   `toml:"no_color"`

	// File is the explicit config file given with -config. Not read from TOML.
	File string `toml:"-"`
}

func setDefaults(cfg *Config) {
	cfg.APIURL = DefaultAPIURL
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.Theme = DefaultTheme
	cfg.DateFormat = model.DefaultDateLayout
}
