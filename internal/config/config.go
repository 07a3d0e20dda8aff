// Package config loads the command line tool's settings from the
// environment, optionally seeded from .env files.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/reoring/typedstruct"
	"github.com/reoring/typedstruct/i18n"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed.
	ErrParsingConfig = errors.New("config: failed to parse environment")
	// ErrInvalidConfig is returned when a setting holds an unsupported value.
	ErrInvalidConfig = errors.New("config: invalid setting")
)

// Config holds every TYPEDSTRUCT_* setting.
type Config struct {
	LogLevel      string `env:"TYPEDSTRUCT_LOG_LEVEL" envDefault:"info"`
	Lang          string `env:"TYPEDSTRUCT_LANG" envDefault:"en"`
	MaxDepth      int    `env:"TYPEDSTRUCT_MAX_DEPTH" envDefault:"0"`
	DuplicateKeys string `env:"TYPEDSTRUCT_DUPLICATE_KEYS" envDefault:"error"`
	UnknownKeys   string `env:"TYPEDSTRUCT_UNKNOWN_KEYS" envDefault:"ignore"`
}

// Load reads envFiles (or ./.env when none are named) into the process
// environment and parses Config from it. A missing default .env is not an
// error; a missing named file is.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		// the default .env is optional
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	var errs []error
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("TYPEDSTRUCT_LOG_LEVEL=%q: %w", c.LogLevel, err))
	}
	if !i18n.Supported(c.Lang) {
		errs = append(errs, fmt.Errorf("TYPEDSTRUCT_LANG=%q: unsupported language", c.Lang))
	}
	if c.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("TYPEDSTRUCT_MAX_DEPTH=%d: must not be negative", c.MaxDepth))
	}
	if c.DuplicateKeys != "error" && c.DuplicateKeys != "ignore" {
		errs = append(errs, fmt.Errorf("TYPEDSTRUCT_DUPLICATE_KEYS=%q: want error or ignore", c.DuplicateKeys))
	}
	if c.UnknownKeys != "ignore" && c.UnknownKeys != "reject" {
		errs = append(errs, fmt.Errorf("TYPEDSTRUCT_UNKNOWN_KEYS=%q: want ignore or reject", c.UnknownKeys))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// Level returns the zerolog level; info when the setting does not parse.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// UnmarshalOpt maps the decoding settings onto typedstruct options.
func (c Config) UnmarshalOpt() typedstruct.UnmarshalOpt {
	opt := typedstruct.UnmarshalOpt{MaxDepth: c.MaxDepth}
	if c.DuplicateKeys == "ignore" {
		opt.Duplicate = typedstruct.DuplicateIgnore
	}
	if c.UnknownKeys == "reject" {
		opt.Unknown = typedstruct.UnknownReject
	}
	return opt
}
