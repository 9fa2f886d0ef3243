package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
		},
		Policy: PolicyConfig{
			LockTimeoutMillis:      2000,
			BreakToleranceMinutes:  5,
			AutoEndBreaks:          true,
			AbsenceCutoffMinutes:   0,
			NotificationQueueDepth: 64,
		},
		Jobs: JobsConfig{
			Enabled:         true,
			IntervalSeconds: 60,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

const header = `# shiftr configuration
# Every key can be overridden from the environment, e.g.
#   SHIFTR_DATABASE_DRIVER=postgres
#   SHIFTR_DATABASE_DSN="host=localhost user=shiftr dbname=shiftr sslmode=disable"
#   SHIFTR_DISCORD_TOKEN=... SHIFTR_DISCORD_CHANNEL_ID=...

`

// WriteDefault writes the default configuration to path. An existing file
// is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	body, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, append([]byte(header), body...), 0644)
}

// YAML renders c as it would appear in a config file, with the Discord
// token masked
func (c *Config) YAML() (string, error) {
	shown := *c
	if shown.Discord.Token != "" {
		shown.Discord.Token = "********"
	}
	body, err := yaml.Marshal(&shown)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
