// Package config assembles the runtime configuration from built-in
// defaults, an optional TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/TomasB/geolocate/internal/data"
	multierror "github.com/hashicorp/go-multierror"
)

// Defaults for the source files, matching where Tor installs its data.
const (
	DefaultIPv4Source    = "/usr/share/tor/geoip"
	DefaultIPv6Source    = "/usr/share/tor/geoip6"
	DefaultCountrySource = "./data/countries.json"
	DefaultPort          = "8080"
	DefaultGRPCPort      = "9090"
)

// Config is the configuration shared by every command.
type Config struct {
	IPv4Source    string `toml:"ipv4_source"`
	IPv6Source    string `toml:"ipv6_source"`
	CountrySource string `toml:"country_source"`
	LogLevel      string `toml:"log_level"`

	// Serve settings.
	Port     string `toml:"port"`
	GRPCPort string `toml:"grpc_port"`
	MMDBPath string `toml:"mmdb_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		IPv4Source:    DefaultIPv4Source,
		IPv6Source:    DefaultIPv6Source,
		CountrySource: DefaultCountrySource,
		LogLevel:      "info",
		Port:          DefaultPort,
		GRPCPort:      DefaultGRPCPort,
	}
}

// Load returns the defaults overlaid with the TOML file at path (if path is
// not empty) and then with the environment.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, c)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			slog.Warn("unknown config keys ignored", "path", path, "keys", fmt.Sprint(undecoded))
		}
	}
	c.ApplyEnv(os.LookupEnv)
	return c, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for name, field := range map[string]*string{
		"GEOLOCATE_IPV4_SOURCE":    &c.IPv4Source,
		"GEOLOCATE_IPV6_SOURCE":    &c.IPv6Source,
		"GEOLOCATE_COUNTRY_SOURCE": &c.CountrySource,
		"LOG_LEVEL":                &c.LogLevel,
		"PORT":                     &c.Port,
		"GRPC_PORT":                &c.GRPCPort,
		"MMDB_PATH":                &c.MMDBPath,
	} {
		if v, ok := lookup(name); ok && v != "" {
			*field = v
		}
	}
}

// Sources returns the record and country files to load.
func (c *Config) Sources() data.Sources {
	return data.Sources{
		IPv4:      c.IPv4Source,
		IPv6:      c.IPv6Source,
		Countries: c.CountrySource,
	}
}

// Validate checks that every source file exists, reporting all missing files
// at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	for _, path := range []string{c.IPv4Source, c.IPv6Source, c.CountrySource} {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				err = fmt.Errorf("unable to locate file '%s': %w", path, os.ErrNotExist)
			}
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// LogLevel converts a level name to a slog.Level, defaulting to info.
func LogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
