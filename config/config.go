// Package config loads the platform configuration: defaults, then an
// optional YAML file, then command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"chessplatform/bots"
	"chessplatform/storage"
)

type Config struct {
	Addr     string `yaml:"addr"`
	DataDir  string `yaml:"data_dir"`
	LogLevel string `yaml:"log_level"`
	// Seed fixes the random sources of every session. Zero seeds from the
	// clock.
	Seed   int64               `yaml:"seed"`
	Live   LiveConfig          `yaml:"live"`
	Daily  DailyConfig         `yaml:"daily"`
	Rating storage.RatingRules `yaml:"rating"`
}

type LiveConfig struct {
	DefaultDifficulty bots.Difficulty `yaml:"default_difficulty"`
	ReplyDelay        time.Duration   `yaml:"reply_delay"`
}

type DailyConfig struct {
	ReplyDelay time.Duration `yaml:"reply_delay"`
}

func Default() Config {
	return Config{
		Addr:     ":8080",
		LogLevel: "info",
		Live: LiveConfig{
			DefaultDifficulty: bots.Medium,
			ReplyDelay:        500 * time.Millisecond,
		},
		Daily:  DailyConfig{ReplyDelay: 1000 * time.Millisecond},
		Rating: storage.DefaultRatingRules(),
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config '%s': %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is empty"))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if _, err := c.Live.DefaultDifficulty.MarshalText(); err != nil {
		errs = append(errs, fmt.Errorf("live.default_difficulty: %w", err))
	}
	if c.Live.ReplyDelay < 0 || c.Daily.ReplyDelay < 0 {
		errs = append(errs, errors.New("reply delays must not be negative"))
	}
	r := c.Rating
	if r.Initial <= 0 || r.Floor < 0 || r.Floor > r.Initial {
		errs = append(errs, fmt.Errorf("rating: initial %d and floor %d out of range", r.Initial, r.Floor))
	}
	if r.LiveDelta < 0 || r.DailyDelta < 0 || r.PuzzleBonus < 0 {
		errs = append(errs, errors.New("rating: adjustments must not be negative"))
	}
	return errors.Join(errs...)
}

// Flags holds the command-line overrides. Unset flags leave the loaded
// configuration alone.
type Flags struct {
	Config   string
	Addr     string
	DataDir  string
	LogLevel string
	Seed     int64
}

// Register binds the flags on fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "path to a YAML config file")
	fs.StringVar(&f.Addr, "addr", "", "listen address (default :8080)")
	fs.StringVar(&f.DataDir, "data-dir", "", "data directory (default: platform data dir)")
	fs.StringVar(&f.LogLevel, "log-level", "", "debug|info|warn|error")
	fs.Int64Var(&f.Seed, "seed", 0, "random seed for computer opponents (0 = clock)")
}

// Resolve loads f.Config and applies the set flags on top.
func (f *Flags) Resolve() (Config, error) {
	cfg, err := Load(f.Config)
	if err != nil {
		return cfg, err
	}
	if f.Addr != "" {
		cfg.Addr = f.Addr
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(f.LogLevel)
	}
	if f.Seed != 0 {
		cfg.Seed = f.Seed
	}
	return cfg, cfg.Validate()
}

// NewLogger builds a production zap logger at level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Sampling = nil
	return zc.Build()
}
