package stages

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
)

// stubGateway answers prompts through a function.
type stubGateway struct {
	mu      sync.Mutex
	fn      func(prompt string) (string, error)
	prompts []string
}

func (g *stubGateway) Generate(ctx context.Context, prompt, _ string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.fn(prompt)
}

func (g *stubGateway) ModelName() string            { return "stub" }
func (g *stubGateway) Ping(_ context.Context) error { return nil }
func (g *stubGateway) Close() error                 { return nil }

func (g *stubGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func reply(s string) *stubGateway {
	return &stubGateway{fn: func(string) (string, error) { return s, nil }}
}

// stubPrompts returns small templates with the real placeholder layout.
type stubPrompts struct{}

func (stubPrompts) Load(name string) (string, error) {
	switch name {
	case driven.PromptClassify:
		return "labels=%s\nblock=%s", nil
	case driven.PromptContext:
		return "digest:%s", nil
	case driven.PromptQuiz:
		return "quiz count=%d\n%s", nil
	case driven.PromptFlashcards:
		return "cards count=%d\n%s", nil
	case driven.PromptExplain:
		return "Q:%s A)%s B)%s C)%s D)%s student=%s) %s correct=%s) %s", nil
	}
	return "", fmt.Errorf("unknown prompt %q", name)
}

func (stubPrompts) Reload() {}

// memArtifacts is an in-memory ArtifactStore.
type memArtifacts struct {
	mu       sync.Mutex
	files    map[string][]byte
	writeErr error
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{files: make(map[string][]byte)}
}

func (m *memArtifacts) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.files[path] = append([]byte(nil), data...)
	return nil
}

func (m *memArtifacts) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (m *memArtifacts) Validate(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.files[path]) == 0 {
		return domain.ErrValidationGate
	}
	return nil
}

func (m *memArtifacts) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

func (m *memArtifacts) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

func (m *memArtifacts) EnsureDir(string) error { return nil }

// stubRasterizer returns fixed pages.
type stubRasterizer struct {
	pages  []driven.PageImage
	err    error
	gotDPI int
}

func (r *stubRasterizer) Rasterize(_ context.Context, _ string, dpi int) ([]driven.PageImage, error) {
	r.gotDPI = dpi
	return r.pages, r.err
}

// stubRecognizer maps image bytes to text.
type stubRecognizer struct {
	text map[string]string
	err  error
}

func (r *stubRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.text[string(image)], ctx.Err()
}

func (r *stubRecognizer) Close() error { return nil }
