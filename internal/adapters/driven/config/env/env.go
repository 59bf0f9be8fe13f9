package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
)

// Prefix is prepended to every environment override.
const Prefix = "STUDYPIPE_"

// Ensure Overlay implements the interface.
var _ driven.ConfigStore = (*Overlay)(nil)

// LoadDotEnv loads each file into the process environment. Missing files are
// skipped and variables already set are left alone. With no paths, ".env" in
// the working directory is tried.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Key returns the environment variable that overrides a config key.
func Key(configKey string) string {
	return Prefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(configKey))
}

// Overlay reads STUDYPIPE_* variables before falling through to the wrapped store.
// Writes always go to the wrapped store.
type Overlay struct {
	base   driven.ConfigStore
	lookup func(string) (string, bool)
}

// NewOverlay wraps base with environment overrides.
func NewOverlay(base driven.ConfigStore) *Overlay {
	return &Overlay{base: base, lookup: os.LookupEnv}
}

func (o *Overlay) env(key string) (string, bool) {
	return o.lookup(Key(key))
}

// Get retrieves a configuration value by key.
func (o *Overlay) Get(key string) (any, bool) {
	if v, ok := o.env(key); ok {
		return v, true
	}
	return o.base.Get(key)
}

// GetString retrieves a string configuration value.
func (o *Overlay) GetString(key string) string {
	if v, ok := o.env(key); ok {
		return v
	}
	return o.base.GetString(key)
}

// GetInt retrieves an integer configuration value.
func (o *Overlay) GetInt(key string) int {
	if v, ok := o.env(key); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	}
	return o.base.GetInt(key)
}

// GetFloat retrieves a floating point configuration value.
func (o *Overlay) GetFloat(key string) float64 {
	if v, ok := o.env(key); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return o.base.GetFloat(key)
}

// GetDuration accepts "90s" style durations or a bare number of seconds.
func (o *Overlay) GetDuration(key string) time.Duration {
	if v, ok := o.env(key); ok {
		v = strings.TrimSpace(v)
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
		return 0
	}
	return o.base.GetDuration(key)
}

// GetBool retrieves a boolean configuration value.
func (o *Overlay) GetBool(key string) bool {
	if v, ok := o.env(key); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	}
	return o.base.GetBool(key)
}

// GetStringSlice reads a comma-separated override.
func (o *Overlay) GetStringSlice(key string) []string {
	if v, ok := o.env(key); ok {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return o.base.GetStringSlice(key)
}

// Set stores a configuration value in the wrapped store.
func (o *Overlay) Set(key string, value any) error {
	return o.base.Set(key, value)
}

// Save persists the wrapped store.
func (o *Overlay) Save() error {
	return o.base.Save()
}

// Load reloads the wrapped store.
func (o *Overlay) Load() error {
	return o.base.Load()
}

// Path returns the wrapped store's file path.
func (o *Overlay) Path() string {
	return o.base.Path()
}
