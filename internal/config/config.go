package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. INTERVIEW_SUBMIT_BACKEND.
const EnvPrefix = "INTERVIEW"

// #region types
// Config is the full runtime configuration.
type Config struct {
	Session    Session    `mapstructure:"session"`
	Perception Perception `mapstructure:"perception"`
	Speech     Speech     `mapstructure:"speech"`
	Questions  Questions  `mapstructure:"questions"`
	Submit     Submit     `mapstructure:"submit"`
	Store      Store      `mapstructure:"store"`
	Logging    Logging    `mapstructure:"logging"`
	Metrics    Metrics    `mapstructure:"metrics"`
}

// Session holds lifecycle timing.
type Session struct {
	Tick            time.Duration `mapstructure:"tick"`
	ShutdownGrace   time.Duration `mapstructure:"shutdown_grace"`
	SubmitTimeout   time.Duration `mapstructure:"submit_timeout"`
	QuestionTimeout time.Duration `mapstructure:"question_timeout"`
}

// Perception holds the sampling cadence and the detection backend.
type Perception struct {
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	SampleTimeout    time.Duration `mapstructure:"sample_timeout"`
	WatchdogInterval time.Duration `mapstructure:"watchdog_interval"`
	StallAfter       time.Duration `mapstructure:"stall_after"`
	DetectorAddr     string        `mapstructure:"detector_addr"` // empty: no detector
	FramesDir        string        `mapstructure:"frames_dir"`    // empty: no camera
	MaxFrameWidth    int           `mapstructure:"max_frame_width"`
}

// Speech holds recognizer restart behavior.
type Speech struct {
	RestartDelay time.Duration `mapstructure:"restart_delay"`
}

// Questions configures the question provider.
type Questions struct {
	URL     string        `mapstructure:"url"` // empty: built-in bank
	Timeout time.Duration `mapstructure:"timeout"`
}

// Submit selects and configures the submission backend.
type Submit struct {
	Backend     string        `mapstructure:"backend"` // "sqlite" | "http" | "redis"
	URL         string        `mapstructure:"url"`
	RedisAddr   string        `mapstructure:"redis_addr"`
	RedisTTL    time.Duration `mapstructure:"redis_ttl"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
}

// Store locates the SQLite database for reports and the journal.
type Store struct {
	Path string `mapstructure:"path"`
}

// Logging configures the logrus logger.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" | "json"
}

// Metrics configures the Prometheus exporter.
type Metrics struct {
	Addr string `mapstructure:"addr"` // empty: exporter disabled
}
// #endregion types

// #region defaults
// Default returns the production defaults.
func Default() Config {
	return Config{
		Session: Session{
			Tick:            time.Second,
			ShutdownGrace:   300 * time.Millisecond,
			SubmitTimeout:   15 * time.Second,
			QuestionTimeout: 10 * time.Second,
		},
		Perception: Perception{
			PollInterval:     500 * time.Millisecond,
			SampleTimeout:    time.Second,
			WatchdogInterval: 3 * time.Second,
			StallAfter:       3 * time.Second,
			MaxFrameWidth:    640,
		},
		Speech: Speech{
			RestartDelay: 250 * time.Millisecond,
		},
		Questions: Questions{
			Timeout: 10 * time.Second,
		},
		Submit: Submit{
			Backend:     "sqlite",
			RedisAddr:   "localhost:6379",
			RedisTTL:    7 * 24 * time.Hour,
			RedisPrefix: "interview",
		},
		Store: Store{
			Path: "interview.db",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("session.tick", d.Session.Tick)
	v.SetDefault("session.shutdown_grace", d.Session.ShutdownGrace)
	v.SetDefault("session.submit_timeout", d.Session.SubmitTimeout)
	v.SetDefault("session.question_timeout", d.Session.QuestionTimeout)
	v.SetDefault("perception.poll_interval", d.Perception.PollInterval)
	v.SetDefault("perception.sample_timeout", d.Perception.SampleTimeout)
	v.SetDefault("perception.watchdog_interval", d.Perception.WatchdogInterval)
	v.SetDefault("perception.stall_after", d.Perception.StallAfter)
	v.SetDefault("perception.detector_addr", d.Perception.DetectorAddr)
	v.SetDefault("perception.frames_dir", d.Perception.FramesDir)
	v.SetDefault("perception.max_frame_width", d.Perception.MaxFrameWidth)
	v.SetDefault("speech.restart_delay", d.Speech.RestartDelay)
	v.SetDefault("questions.url", d.Questions.URL)
	v.SetDefault("questions.timeout", d.Questions.Timeout)
	v.SetDefault("submit.backend", d.Submit.Backend)
	v.SetDefault("submit.url", d.Submit.URL)
	v.SetDefault("submit.redis_addr", d.Submit.RedisAddr)
	v.SetDefault("submit.redis_ttl", d.Submit.RedisTTL)
	v.SetDefault("submit.redis_prefix", d.Submit.RedisPrefix)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}
// #endregion defaults

// #region load
// Load reads configuration from defaults, an optional YAML file, .env and INTERVIEW_* variables,
// in increasing priority.
func Load(path string) (Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-supplied viper instance, so command flags bound to it take
// priority over everything else.
func LoadWith(v *viper.Viper, path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	switch c.Submit.Backend {
	case "sqlite", "redis":
	case "http":
		if c.Submit.URL == "" {
			return errors.New("config: submit.url is required for the http backend")
		}
	default:
		return fmt.Errorf("config: unknown submit backend %q", c.Submit.Backend)
	}
	if c.Session.Tick <= 0 || c.Perception.PollInterval <= 0 || c.Perception.WatchdogInterval <= 0 {
		return errors.New("config: tick, poll and watchdog intervals must be positive")
	}
	return nil
}
// #endregion load
