package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "WAYFARER"
	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultDatabasePath = "wayfarer.db"
	defaultLogLevel     = "info"
	defaultStoreBackend = StoreBackendSQLite
)

// Store backend selectors.
const (
	StoreBackendSQLite = "sqlite"
	StoreBackendMemory = "memory"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress  string
	DatabasePath string
	StoreBackend string
	PasswordSalt string
	LogLevel     string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("store.backend", defaultStoreBackend)
	configViper.SetDefault("log.level", defaultLogLevel)
}

// Load parses runtime configuration from viper. The password salt is secret
// material and is only ever supplied through configuration, never source.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:  configViper.GetString("http.address"),
		DatabasePath: configViper.GetString("database.path"),
		StoreBackend: configViper.GetString("store.backend"),
		PasswordSalt: configViper.GetString("auth.password_salt"),
		LogLevel:     configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.PasswordSalt) == "" {
		return fmt.Errorf("auth.password_salt is required")
	}
	switch c.StoreBackend {
	case StoreBackendSQLite:
		if strings.TrimSpace(c.DatabasePath) == "" {
			return fmt.Errorf("database.path is required for the sqlite backend")
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("store.backend must be %q or %q", StoreBackendSQLite, StoreBackendMemory)
	}
	return nil
}
