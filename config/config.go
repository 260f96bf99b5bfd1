package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Server contains bind address and request handling settings.
type Server struct {
	Bind              string `toml:"bind"`
	RequestTimeoutSec int    `toml:"request_timeout_sec"`
}

// Store selects and configures the persistence backend.
type Store struct {
	// Driver is "sqlite" or "postgres".
	Driver      string `toml:"driver"`
	PostgresDSN string `toml:"postgres_dsn"`
	SQLitePath  string `toml:"sqlite_path"`
}

// Blob configures the B2-compatible object storage account.
type Blob struct {
	KeyID          string `toml:"key_id"`
	AppKey         string `toml:"app_key"`
	BucketID       string `toml:"bucket_id"`
	BucketName     string `toml:"bucket_name"`
	APIBase        string `toml:"api_base"`
	HTTPTimeoutSec int    `toml:"http_timeout_sec"`
}

// MCP configures the model-context-protocol server.
type MCP struct {
	AdminAPIKey string `toml:"admin_api_key"`
}

// Config is the full service configuration: defaults, overridden by an
// optional TOML file, overridden by the environment (a .env file is loaded
// first when present).
type Config struct {
	Server Server `toml:"server"`
	Store  Store  `toml:"store"`
	Blob   Blob   `toml:"blob"`
	MCP    MCP    `toml:"mcp"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Bind:              ":3000",
			RequestTimeoutSec: 30,
		},
		Store: Store{
			Driver:     "sqlite",
			SQLitePath: "starset.db",
		},
		Blob: Blob{
			APIBase:        "https://api.backblazeb2.com",
			HTTPTimeoutSec: 30,
		},
	}
}

// Load builds the configuration. path may be empty to skip the TOML file; a
// missing file at the default location is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// Populate the process environment from .env when present, then let the
	// environment win over file values.
	_ = godotenv.Load()
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Bind, "STARSET_BIND")
	setInt(&cfg.Server.RequestTimeoutSec, "STARSET_REQUEST_TIMEOUT_SEC")

	setString(&cfg.Store.Driver, "STARSET_STORE_DRIVER")
	setString(&cfg.Store.PostgresDSN, "STARSET_PG_DSN")
	setString(&cfg.Store.SQLitePath, "STARSET_SQLITE_PATH")

	setString(&cfg.Blob.KeyID, "B2_APPLICATION_KEY_ID")
	setString(&cfg.Blob.AppKey, "B2_APPLICATION_KEY")
	setString(&cfg.Blob.BucketID, "B2_BUCKET_ID")
	setString(&cfg.Blob.BucketName, "B2_BUCKET_NAME")
	setString(&cfg.Blob.APIBase, "B2_API_BASE")
	setInt(&cfg.Blob.HTTPTimeoutSec, "B2_HTTP_TIMEOUT_SEC")

	setString(&cfg.MCP.AdminAPIKey, "STARSET_ADMIN_API_KEY")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			*dst = v
		}
	}
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path required when store.driver=sqlite")
		}
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn required when store.driver=postgres")
		}
	default:
		return fmt.Errorf("unknown store.driver %q (want sqlite or postgres)", c.Store.Driver)
	}

	if c.Server.RequestTimeoutSec <= 0 {
		return fmt.Errorf("server.request_timeout_sec must be positive")
	}
	return nil
}

// BlobConfigured reports whether the object storage credentials are set.
func (c Config) BlobConfigured() bool {
	return c.Blob.KeyID != "" && c.Blob.AppKey != "" && c.Blob.BucketID != "" && c.Blob.BucketName != ""
}

// RequestTimeout returns the per-request timeout as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}

// BlobTimeout returns the object storage HTTP timeout as a duration.
func (c Config) BlobTimeout() time.Duration {
	return time.Duration(c.Blob.HTTPTimeoutSec) * time.Second
}
