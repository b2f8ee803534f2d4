package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Identity IdentityConfig
	Advisor  AdvisorConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port        int
	CORSOrigins string
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (s ServerConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(s.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type StorageConfig struct {
	Driver      string
	DataDir     string
	DatabaseURL string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// IdentityConfig is the user the CLI and MCP server act as.
type IdentityConfig struct {
	UserID string
	Email  string
}

type AdvisorConfig struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

type LogConfig struct {
	Level string
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:        4100,
			CORSOrigins: "http://localhost:5173",
		},
		Storage: StorageConfig{
			Driver:  DriverSQLite,
			DataDir: defaultDataDir(),
		},
		Auth: AuthConfig{
			TokenTTL: 720 * time.Hour,
		},
		Identity: IdentityConfig{
			UserID: "local",
		},
		Advisor: AdvisorConfig{
			MinDelay: time.Second,
			MaxDelay: 2 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend
// ($XDG_CONFIG_HOME/careerpath/config.json), a .env file in the working
// directory, CAREERPATH_* environment variables, and finally the secrets file
// ($XDG_DATA_HOME/careerpath/secrets.json) for secrets still unset.
//
// Variables from .env never override ones already set in the environment.
func Load() (Config, error) {
	loadDotEnv(".env")
	return loadWith(newFileBackend(configFilePath()), fileSecrets{path: secretsFilePath()})
}

func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "[WARN] could not read %s: %v. Ignoring it.\n", path, err)
	}
}

// secretStore abstracts the secrets file for testing.
type secretStore interface {
	Get(account string) (string, error)
}

func loadWith(b ConfigBackend, sec secretStore) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)
	applySecrets(&cfg, sec)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("missing required config: JWT signing secret. " +
			"Set it via environment variable CAREERPATH_JWT_SECRET or `careerpath config set auth.jwt_secret <value>`")
	}
	switch cfg.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.Storage.DatabaseURL == "" {
			return fmt.Errorf("missing required config: storage.driver is %q but no database URL is set. "+
				"Set it via environment variable CAREERPATH_DATABASE_URL", DriverPostgres)
		}
	default:
		return fmt.Errorf("invalid storage.driver %q: want %q or %q", cfg.Storage.Driver, DriverSQLite, DriverPostgres)
	}
	if cfg.Identity.UserID == "" {
		return fmt.Errorf("identity.user_id must not be empty")
	}
	if cfg.Advisor.MaxDelay < cfg.Advisor.MinDelay {
		return fmt.Errorf("advisor.max_delay (%s) is shorter than advisor.min_delay (%s)", cfg.Advisor.MaxDelay, cfg.Advisor.MinDelay)
	}
	return nil
}
