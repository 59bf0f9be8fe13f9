package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studypipe/internal/adapters/driven/artifacts/filesystem"
	"github.com/custodia-labs/studypipe/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
)

// reply answers one kind of prompt.
type reply func(ctx context.Context) (string, error)

func text(s string) reply {
	return func(context.Context) (string, error) { return s, nil }
}

// scriptedGateway routes prompts by their stub template prefix.
type scriptedGateway struct {
	mu      sync.Mutex
	quiz    reply
	cards   reply
	explain reply
	calls   map[string]int
}

func newScriptedGateway() *scriptedGateway {
	return &scriptedGateway{
		quiz:    text(quizJSON(2)),
		cards:   text(cardsJSON(2)),
		explain: text("**Loops** repeat `code` until the condition fails."),
		calls:   make(map[string]int),
	}
}

func (g *scriptedGateway) Generate(ctx context.Context, prompt, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	var r reply
	var kind string
	switch {
	case strings.HasPrefix(prompt, "labels="):
		kind, r = "classify", text("text")
	case strings.HasPrefix(prompt, "digest:"):
		kind, r = "context", text("Loops repeat a block of code while a condition holds.")
	case strings.HasPrefix(prompt, "quiz count="):
		kind, r = "quiz", g.quiz
	case strings.HasPrefix(prompt, "cards count="):
		kind, r = "flashcards", g.cards
	case strings.HasPrefix(prompt, "Q:"):
		kind, r = "explain", g.explain
	default:
		g.mu.Unlock()
		return "", fmt.Errorf("unexpected prompt %q", prompt)
	}
	g.calls[kind]++
	g.mu.Unlock()
	return r(ctx)
}

func (g *scriptedGateway) setQuiz(r reply) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.quiz = r
}

func (g *scriptedGateway) count(kind string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[kind]
}

func (g *scriptedGateway) ModelName() string            { return "scripted" }
func (g *scriptedGateway) Ping(_ context.Context) error { return nil }
func (g *scriptedGateway) Close() error                 { return nil }

func quizJSON(n int) string {
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, fmt.Sprintf(
			`{"question":"What does loop %d do?","options":{"A":"repeats","B":"stops","C":"prints","D":"sorts"},"answer":"A"}`, i))
	}
	return "Sure! Here is the quiz:\n[" + strings.Join(items, ",") + "]"
}

func cardsJSON(n int) string {
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, fmt.Sprintf(`{"question":"Card %d","answer":"Loops repeat."}`, i))
	}
	return "[" + strings.Join(items, ",") + "]"
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

// pageRasterizer yields one image per page whose bytes name the page.
type pageRasterizer struct {
	pages int
}

func (r pageRasterizer) Rasterize(ctx context.Context, _ string, _ int) ([]driven.PageImage, error) {
	out := make([]driven.PageImage, 0, r.pages)
	for i := 1; i <= r.pages; i++ {
		out = append(out, driven.PageImage{Page: i, PNG: []byte(fmt.Sprintf("page-%d", i))})
	}
	return out, ctx.Err()
}

// mapRecognizer maps image bytes to text.
type mapRecognizer map[string]string

func (r mapRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	return r[string(image)], ctx.Err()
}

func (r mapRecognizer) Close() error { return nil }

var lectureText = mapRecognizer{
	"page-1": "Loops",
	"page-2": "A loop repeats a block of code while its condition is true.",
}

// harness wires an orchestrator over a memory store and a temp artifact root.
type harness struct {
	orch    *Orchestrator
	store   driven.MaterialStore
	gateway *scriptedGateway
	root    string
	pdf     string
}

type harnessOption func(*OrchestratorDeps)

func withStore(s driven.MaterialStore) harnessOption {
	return func(d *OrchestratorDeps) { d.Store = s }
}

func withRecognizer(r driven.Recognizer) harnessOption {
	return func(d *OrchestratorDeps) { d.Recognizer = r }
}

func withStageTimeout(timeout time.Duration) harnessOption {
	return func(d *OrchestratorDeps) { d.Settings.StageTimeout = timeout }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	dir := t.TempDir()
	pdf := filepath.Join(dir, "Intro to Loops, Week 1.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4\n"), 0o600))

	var n int
	gw := newScriptedGateway()
	deps := OrchestratorDeps{
		Store:      memory.NewMaterialStore(),
		Artifacts:  filesystem.NewStore(),
		Gateway:    gw,
		Recognizer: lectureText,
		Rasterizer: pageRasterizer{pages: 2},
		Prompts:    stubPrompts{},
		Settings: domain.PipelineSettings{
			ArtifactRoot:    filepath.Join(dir, "data"),
			DPI:             domain.MinDPI,
			QuizCount:       2,
			FlashcardCount:  2,
			ClassifyWorkers: 2,
			StageTimeout:    5 * time.Second,
			CallTimeout:     2 * time.Second,
		},
		NewID: func() string {
			n++
			return fmt.Sprintf("m-%d", n)
		},
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &harness{
		orch:    NewOrchestrator(deps),
		store:   deps.Store,
		gateway: gw,
		root:    deps.Settings.ArtifactRoot,
		pdf:     pdf,
	}
}
