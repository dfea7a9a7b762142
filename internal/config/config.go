package config

import (
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"github.com/charleshuang3/errgate/internal/gate"
	"github.com/charleshuang3/errgate/internal/gormw"
	"github.com/charleshuang3/errgate/internal/handlers/auth"
)

var (
	logger = log.With().Str("component", "config").Logger()
)

type Config struct {
	Port    uint   `yaml:"port"`
	GinMode string `yaml:"gin_mode"`

	// Upstream is the base URL of the fronted application.
	Upstream string `yaml:"upstream"`

	Auth auth.Config  `yaml:"auth"`
	Gate gate.Config  `yaml:"gate"`
	DB   gormw.Config `yaml:"db"`
}

func LoadConfig(path string) *Config {
	cfg := &Config{}

	file, err := os.Open(path)
	if err != nil {
		logger.Fatal().Err(err).Msgf("failed to open config file: %s", path)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		logger.Fatal().Err(err).Msg("failed to decode config file")
	}

	cfg.validate()

	return cfg
}

func (c *Config) validate() {
	if c.Port == 0 {
		logger.Fatal().Msg("Port is missing")
	}

	if c.GinMode == "" {
		logger.Fatal().Msg("GinMode is missing")
	}

	if c.Upstream == "" {
		logger.Fatal().Msg("Upstream is missing")
	}

	c.Auth.Validate()

	// Gate config is validated by gate.New; check it here so a bad range
	// fails before the server starts serving.
	if _, err := gate.New(&c.Gate); err != nil {
		logger.Fatal().Err(err).Msg("Invalid gate config")
	}
}
