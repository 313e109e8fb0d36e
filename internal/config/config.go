// Package config reads server settings from flags, falling back to
// CHESS_* environment variables and then to built-in defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Addr                string
	AllowOrigins        string
	ClockTime           time.Duration
	MatchmakingInterval time.Duration
	LogLevel            string
	Profile             string // "", "cpu" or "mem"
}

func Default() Config {
	return Config{
		Addr:                ":3000",
		AllowOrigins:        "http://localhost:5173",
		ClockTime:           10 * time.Minute,
		MatchmakingInterval: time.Second,
		LogLevel:            "info",
	}
}

// Load parses args (without the program name) on a fresh flag set. getenv
// supplies the environment fallbacks, normally os.Getenv.
func Load(args []string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	fs.StringVar(&cfg.AllowOrigins, "origins", cfg.AllowOrigins, "Comma separated CORS origins")
	fs.DurationVar(&cfg.ClockTime, "clock", cfg.ClockTime, "Time on each player's clock")
	fs.DurationVar(&cfg.MatchmakingInterval, "match-interval", cfg.MatchmakingInterval, "How often queued players are paired")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: trace, debug, info, warn, error")
	fs.StringVar(&cfg.Profile, "profile", cfg.Profile, "Write a cpu or mem profile")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromOS loads from the process arguments and environment.
func FromOS() (Config, error) {
	return Load(os.Args[1:], os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("CHESS_ADDR"); v != "" {
		c.Addr = v
	}
	if v := getenv("CHESS_ALLOW_ORIGINS"); v != "" {
		c.AllowOrigins = v
	}
	if v := getenv("CHESS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("CHESS_PROFILE"); v != "" {
		c.Profile = v
	}
	for key, dst := range map[string]*time.Duration{
		"CHESS_CLOCK":          &c.ClockTime,
		"CHESS_MATCH_INTERVAL": &c.MatchmakingInterval,
	} {
		v := getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		}
		*dst = d
	}
	return nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: empty listen address", ErrInvalidConfig)
	}
	if c.ClockTime <= 0 {
		return fmt.Errorf("%w: clock must be positive, got %s", ErrInvalidConfig, c.ClockTime)
	}
	if c.MatchmakingInterval <= 0 {
		return fmt.Errorf("%w: match interval must be positive, got %s", ErrInvalidConfig, c.MatchmakingInterval)
	}
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.Profile {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("%w: unknown profile %q", ErrInvalidConfig, c.Profile)
	}
	return nil
}

var logLevels = map[string]log.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Level maps LogLevel onto fiber's logger levels.
func (c Config) Level() log.Level {
	if lvl, ok := logLevels[strings.ToLower(c.LogLevel)]; ok {
		return lvl
	}
	return log.LevelInfo
}
