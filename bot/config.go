package bot

import (
	coreconfig "github.com/m3rciful/filtrbot/core/config"
	coredatabase "github.com/m3rciful/filtrbot/core/database"
)

// Config is the bot configuration: the core settings plus the database
// holding the filter state.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads and validates the configuration at path.
func LoadConfig(path string) (*Config, error) {
	cfg, err := DecodeConfig(path)
	if err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DecodeConfig reads the configuration without validating the Telegram
// settings, for maintenance commands that only touch the database.
func DecodeConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Commands.Trigger == "" {
		cfg.Commands.Trigger = coreconfig.DefaultTrigger
	}
	return &cfg, nil
}
