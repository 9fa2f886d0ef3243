package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/balkashynov/shiftr/internal/attendance"
)

// EnvPrefix namespaces environment overrides
const EnvPrefix = "SHIFTR"

// Load reads the config file at path (the default location when empty) on
// top of the defaults, then applies SHIFTR_* environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.debug", d.Database.Debug)
	v.SetDefault("policy.lock_timeout_ms", d.Policy.LockTimeoutMillis)
	v.SetDefault("policy.break_tolerance_minutes", d.Policy.BreakToleranceMinutes)
	v.SetDefault("policy.auto_end_breaks", d.Policy.AutoEndBreaks)
	v.SetDefault("policy.absence_cutoff_minutes", d.Policy.AbsenceCutoffMinutes)
	v.SetDefault("policy.notification_queue_depth", d.Policy.NotificationQueueDepth)
	v.SetDefault("jobs.enabled", d.Jobs.Enabled)
	v.SetDefault("jobs.interval_seconds", d.Jobs.IntervalSeconds)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("discord.token", d.Discord.Token)
	v.SetDefault("discord.channel_id", d.Discord.ChannelID)
}

// Validate rejects settings the rest of the program cannot work with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return errors.New("database.dsn is required for postgres")
	}
	if c.Policy.LockTimeoutMillis <= 0 {
		return errors.New("policy.lock_timeout_ms must be positive")
	}
	if c.Policy.BreakToleranceMinutes < 0 || c.Policy.AbsenceCutoffMinutes < 0 {
		return errors.New("policy minutes must not be negative")
	}
	if c.Jobs.IntervalSeconds <= 0 {
		return errors.New("jobs.interval_seconds must be positive")
	}
	return nil
}

// EngineConfig converts the policy section for the attendance engine
func (c *Config) EngineConfig() attendance.Config {
	return attendance.Config{
		LockTimeout:    time.Duration(c.Policy.LockTimeoutMillis) * time.Millisecond,
		BreakTolerance: time.Duration(c.Policy.BreakToleranceMinutes) * time.Minute,
		AutoEndBreaks:  c.Policy.AutoEndBreaks,
		AbsenceCutoff:  time.Duration(c.Policy.AbsenceCutoffMinutes) * time.Minute,
	}
}

// JobInterval is how often the background runner ticks
func (c *Config) JobInterval() time.Duration {
	return time.Duration(c.Jobs.IntervalSeconds) * time.Second
}

// DefaultPath returns the path to the global config file
func DefaultPath() string {
	return filepath.Join(HomeDir(), "config.yaml")
}

// HomeDir returns the shiftr directory under the user's home
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".shiftr")
}
