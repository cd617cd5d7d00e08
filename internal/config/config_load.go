package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Router: RouterConfig{
			OutboxCapacity: 1000,
			NoticeDelayMS:  10000,
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars. A
// missing file is not an error; defaults plus env apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config. Env vars take
// precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("TGRELAY_TELEGRAM_TOKEN", &c.Telegram.Token)
	envStr("TGRELAY_TELEGRAM_PROXY", &c.Telegram.Proxy)
	envStr("TGRELAY_OTLP_ENDPOINT", &c.Telemetry.Endpoint)

	if v := os.Getenv("TGRELAY_DEBUG_CHAT"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Router.DebugChat = id
		}
	}
}

// Validate reports configuration the relay cannot start with.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required (config telegram.token or TGRELAY_TELEGRAM_TOKEN)")
	}
	return nil
}
