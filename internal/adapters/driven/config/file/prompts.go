package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
	"github.com/custodia-labs/studypipe/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// bundled holds the default prompt templates and the README copied into a
// fresh prompt directory.
//
//go:embed prompts
var bundled embed.FS

const bundledDir = "prompts"

// defaultPrompts maps prompt names to their built-in templates.
var defaultPrompts = readDefaults()

func readDefaults() map[string]string {
	out := make(map[string]string)
	entries, _ := fs.ReadDir(bundled, bundledDir)
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".txt")
		if !ok {
			continue
		}
		data, err := bundled.ReadFile(path.Join(bundledDir, e.Name()))
		if err != nil {
			continue
		}
		out[name] = strings.TrimSpace(string(data))
	}
	return out
}

// PromptStore serves stage prompts from a user-editable directory, falling
// back to the built-in templates. The directory is seeded on first Load.
type PromptStore struct {
	promptDir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a prompt store rooted at promptDir, or
// ~/.studypipe/prompts when empty. It performs no I/O.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".studypipe", "prompts")
	}
	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the template for name. A user file whose format verbs differ
// from the built-in template's is ignored with a warning.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cache[name]; ok {
		return existing, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

func (s *PromptStore) resolve(name string) (string, error) {
	def, known := defaultPrompts[name]
	file := filepath.Join(s.promptDir, name+".txt")

	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		user := strings.TrimSpace(string(data))
		if !known || slices.Equal(formatVerbs(user), formatVerbs(def)) {
			return user, nil
		}
		logger.Warn("prompt %s has placeholders %v, want %v; using the default",
			file, formatVerbs(user), formatVerbs(def))
		return def, nil
	case known:
		return def, nil
	default:
		return "", fmt.Errorf("load prompt %q: %w", name, errors.Join(err, s.seedErr))
	}
}

// Reload drops cached templates so the next Load reads the directory again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// seed copies bundled files that are missing from the prompt directory.
// Existing files are never touched.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	s.seedErr = fs.WalkDir(bundled, bundledDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		dst := filepath.Join(s.promptDir, d.Name())
		if _, err := os.Stat(dst); !errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		data, err := bundled.ReadFile(p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, 0600); err != nil {
			return fmt.Errorf("seed prompt %s: %w", d.Name(), err)
		}
		return nil
	})
}

var verbPattern = regexp.MustCompile(`%[-+# 0]*[0-9]*(?:\.[0-9]+)?[a-zA-Z%]`)

// formatVerbs returns the fmt verbs of a template in order, without %%.
func formatVerbs(template string) []string {
	var verbs []string
	for _, v := range verbPattern.FindAllString(template, -1) {
		if v != "%%" {
			verbs = append(verbs, v[len(v)-1:])
		}
	}
	return verbs
}
