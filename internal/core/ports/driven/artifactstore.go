package driven

// ArtifactStore reads and writes run artifacts.
type ArtifactStore interface {
	// WriteFile writes data to path, creating parent directories.
	// Readers never observe a partially written file.
	WriteFile(path string, data []byte) error

	// ReadFile returns the content at path.
	ReadFile(path string) ([]byte, error)

	// Validate returns domain.ErrValidationGate when path is missing or empty.
	Validate(path string) error

	// Exists reports whether path exists.
	Exists(path string) bool

	// Remove deletes path. A missing file is not an error.
	Remove(path string) error

	// EnsureDir creates dir and any parents.
	EnsureDir(dir string) error
}
