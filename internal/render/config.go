package render

import (
	"os"
	"strconv"
)

// Config controls artifact post-processing.
type Config struct {
	Previews bool `toml:"previews"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Previews string
}

// Finalize applies environment variable overrides.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	return nil
}

// Merge overwrites fields from overlay. Boolean fields always apply.
func (c *Config) Merge(overlay *Config) {
	c.Previews = overlay.Previews
}

func (c *Config) loadEnv(env *Env) {
	if env.Previews != "" {
		if v := os.Getenv(env.Previews); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				c.Previews = enabled
			}
		}
	}
}
