package batch

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/JaimeStill/noteforge/pkg/formatting"
)

// Config holds submission limits.
type Config struct {
	MaxFiles     int      `toml:"max_files"`
	MaxFileSize  string   `toml:"max_file_size"`
	AllowedTypes []string `toml:"allowed_types"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	MaxFiles     string
	MaxFileSize  string
	AllowedTypes string
}

// MaxFileSizeBytes returns MaxFileSize in bytes, or 0 when unset or invalid.
func (c *Config) MaxFileSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxFileSize)
	if err != nil {
		return 0
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.MaxFiles != 0 {
		c.MaxFiles = overlay.MaxFiles
	}
	if overlay.MaxFileSize != "" {
		c.MaxFileSize = overlay.MaxFileSize
	}
	if overlay.AllowedTypes != nil {
		c.AllowedTypes = overlay.AllowedTypes
	}
}

func (c *Config) loadDefaults() {
	if c.MaxFiles == 0 {
		c.MaxFiles = MaxFiles
	}
	if c.MaxFileSize == "" {
		c.MaxFileSize = "10MB"
	}
	if len(c.AllowedTypes) == 0 {
		c.AllowedTypes = []string{"image/jpeg", "image/png", "image/webp"}
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.MaxFiles != "" {
		if v := os.Getenv(env.MaxFiles); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxFiles = n
			}
		}
	}
	if env.MaxFileSize != "" {
		if v := os.Getenv(env.MaxFileSize); v != "" {
			c.MaxFileSize = v
		}
	}
	if env.AllowedTypes != "" {
		if v := os.Getenv(env.AllowedTypes); v != "" {
			types := strings.Split(v, ",")
			c.AllowedTypes = make([]string, 0, len(types))
			for _, t := range types {
				if trimmed := strings.TrimSpace(t); trimmed != "" {
					c.AllowedTypes = append(c.AllowedTypes, trimmed)
				}
			}
		}
	}
}

func (c *Config) validate() error {
	if c.MaxFiles < 1 || c.MaxFiles > MaxFiles {
		return fmt.Errorf("max_files must be between 1 and %d: %d", MaxFiles, c.MaxFiles)
	}
	if _, err := formatting.ParseBytes(c.MaxFileSize); err != nil {
		return fmt.Errorf("invalid max_file_size: %w", err)
	}
	return nil
}
