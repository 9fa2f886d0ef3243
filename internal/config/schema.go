package config

// Config is the complete shiftr configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Policy   PolicyConfig   `mapstructure:"policy" yaml:"policy"`
	Jobs     JobsConfig     `mapstructure:"jobs" yaml:"jobs"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Discord  DiscordConfig  `mapstructure:"discord" yaml:"discord"`
}

// DatabaseConfig selects the store
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // sqlite or postgres
	DSN    string `mapstructure:"dsn" yaml:"dsn"`       // empty means ~/.shiftr/shiftr.db
	Debug  bool   `mapstructure:"debug" yaml:"debug"`
}

// PolicyConfig tunes the attendance engine
type PolicyConfig struct {
	LockTimeoutMillis      int  `mapstructure:"lock_timeout_ms" yaml:"lock_timeout_ms"`
	BreakToleranceMinutes  int  `mapstructure:"break_tolerance_minutes" yaml:"break_tolerance_minutes"`
	AutoEndBreaks          bool `mapstructure:"auto_end_breaks" yaml:"auto_end_breaks"`
	AbsenceCutoffMinutes   int  `mapstructure:"absence_cutoff_minutes" yaml:"absence_cutoff_minutes"`
	NotificationQueueDepth int  `mapstructure:"notification_queue_depth" yaml:"notification_queue_depth"`
}

// JobsConfig controls the background runner started by `shiftr serve`
type JobsConfig struct {
	Enabled         bool `mapstructure:"enabled" yaml:"enabled"`
	IntervalSeconds int  `mapstructure:"interval_seconds" yaml:"interval_seconds"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DiscordConfig enables Discord notifications when both fields are set
type DiscordConfig struct {
	Token     string `mapstructure:"token" yaml:"token"`
	ChannelID string `mapstructure:"channel_id" yaml:"channel_id"`
}

// Enabled reports whether Discord delivery is configured
func (d DiscordConfig) Enabled() bool {
	return d.Token != "" && d.ChannelID != ""
}
