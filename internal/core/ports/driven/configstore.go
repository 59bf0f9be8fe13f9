package driven

import "time"

// ConfigStore holds user settings under dotted keys such as
// "pipeline.quiz_count". Typed getters return the zero value when a key is
// missing or holds an incompatible type.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// GetDuration accepts "90s"-style strings and plain seconds.
	GetDuration(key string) time.Duration

	// Set stores a value. File-backed stores persist it before returning.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path names the backing file, or a placeholder for stores without one.
	Path() string
}
