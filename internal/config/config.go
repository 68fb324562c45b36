package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/noteforge/internal/batch"
	"github.com/JaimeStill/noteforge/internal/render"
	"github.com/JaimeStill/noteforge/internal/transfer"
	"github.com/JaimeStill/noteforge/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvNoteforgeEnv             = "NOTEFORGE_ENV"
	EnvNoteforgeShutdownTimeout = "NOTEFORGE_SHUTDOWN_TIMEOUT"
	EnvNoteforgeVersion         = "NOTEFORGE_VERSION"
)

var remoteEnv = &transfer.Env{
	BaseURL: "NOTEFORGE_REMOTE_BASE_URL",
	Timeout: "NOTEFORGE_REMOTE_TIMEOUT",
}

var batchEnv = &batch.Env{
	MaxFiles:     "NOTEFORGE_BATCH_MAX_FILES",
	MaxFileSize:  "NOTEFORGE_BATCH_MAX_FILE_SIZE",
	AllowedTypes: "NOTEFORGE_BATCH_ALLOWED_TYPES",
}

var renderEnv = &render.Env{
	Previews: "NOTEFORGE_RENDER_PREVIEWS",
}

var storageEnv = &storage.Env{
	ContainerName:    "NOTEFORGE_STORAGE_CONTAINER_NAME",
	ConnectionString: "NOTEFORGE_STORAGE_CONNECTION_STRING",
}

// Config is the root configuration for noteforge.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	API             APIConfig       `toml:"api"`
	Remote          transfer.Config `toml:"remote"`
	Batch           batch.Config    `toml:"batch"`
	Render          render.Config   `toml:"render"`
	Storage         storage.Config  `toml:"storage"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the NOTEFORGE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvNoteforgeEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout)
}

// Load reads .env (if present) into the process environment, then the base
// config (if present), applies any environment overlay, and finalizes all
// values. Variables already set in the environment win over .env entries.
func Load() (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.API.Merge(&overlay.API)
	c.Remote.Merge(&overlay.Remote)
	c.Batch.Merge(&overlay.Batch)
	c.Render.Merge(&overlay.Render)
	c.Storage.Merge(&overlay.Storage)
}

// Finalize applies defaults, environment variable overrides, and validation
// to the root config and every section.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(serverEnv); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Remote.Finalize(remoteEnv); err != nil {
		return fmt.Errorf("remote: %w", err)
	}
	if err := c.Batch.Finalize(batchEnv); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	if err := c.Render.Finalize(renderEnv); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	// render and convert handlers block on the remote call
	if write, remote := c.Server.WriteTimeoutDuration(), c.Remote.TimeoutDuration(); write < remote {
		return fmt.Errorf("server write_timeout %s is shorter than remote timeout %s", write, remote)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	setString(&c.ShutdownTimeout, EnvNoteforgeShutdownTimeout)
	setString(&c.Version, EnvNoteforgeVersion)
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func overlayPath() string {
	if env := os.Getenv(EnvNoteforgeEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
