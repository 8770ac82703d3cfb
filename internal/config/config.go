// Package config loads service configuration from a YAML file, a .env file
// and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mkoziy/countryrates/internal/database"
	"github.com/mkoziy/countryrates/internal/logging"
	"github.com/mkoziy/countryrates/internal/ratelimit"
	"github.com/mkoziy/countryrates/internal/sources/exchangerate"
	"github.com/mkoziy/countryrates/internal/sources/restcountries"
	"github.com/mkoziy/countryrates/internal/summary"
)

const (
	DefaultPort          = "3000"
	DefaultDSN           = "file:countries.db"
	DefaultSourceTimeout = 15 * time.Second
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Database database.Config `yaml:"database"`
	Sources  SourcesConfig   `yaml:"sources"`
	Summary  SummaryConfig   `yaml:"summary"`
	Log      logging.Config  `yaml:"log"`

	ratelimit.SourceConfigs `yaml:",inline"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SourcesConfig points at the two upstream APIs.
type SourcesConfig struct {
	CountriesURL string        `yaml:"countries_url"`
	ExchangeURL  string        `yaml:"exchange_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

type SummaryConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":" + DefaultPort},
		Database: database.Config{Driver: database.DriverSQLite, DSN: DefaultDSN},
		Sources: SourcesConfig{
			CountriesURL: restcountries.DefaultURL,
			ExchangeURL:  exchangerate.DefaultURL,
			Timeout:      DefaultSourceTimeout,
		},
		Summary: SummaryConfig{Path: summary.DefaultPath},
		Log:     logging.Config{Level: "info"},
	}
}

// Load reads path over the defaults, then applies .env and environment
// overrides. A missing file or .env is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()
	cfg.fillBlanks()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if path := os.Getenv("SUMMARY_PATH"); path != "" {
		c.Summary.Path = path
	}
}

// fillBlanks restores defaults for keys a file set to empty values.
func (c *Config) fillBlanks() {
	def := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Database.Driver == "" {
		c.Database.Driver = def.Database.Driver
	}
	if c.Database.DSN == "" && c.Database.Driver == database.DriverSQLite {
		c.Database.DSN = def.Database.DSN
	}
	if c.Sources.Timeout <= 0 {
		c.Sources.Timeout = def.Sources.Timeout
	}
	if c.Summary.Path == "" {
		c.Summary.Path = def.Summary.Path
	}
}
