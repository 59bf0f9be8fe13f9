package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studypipe/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driving"
	"github.com/custodia-labs/studypipe/internal/core/services"
)

type mockPipeline struct {
	mu       sync.Mutex
	requests []driving.RunRequest
	result   *driving.RunResult
	err      error

	material  *domain.Material
	statusErr error
}

func (m *mockPipeline) Run(_ context.Context, req driving.RunRequest) (*driving.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	return m.result, m.err
}

func (m *mockPipeline) Status(_ context.Context, _ string) (*domain.Material, error) {
	return m.material, m.statusErr
}

func (m *mockPipeline) runs() []driving.RunRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]driving.RunRequest(nil), m.requests...)
}

type mockExplanation struct {
	got    driving.ExplainRequest
	result *driving.ExplainResult
	err    error
}

func (m *mockExplanation) Explain(_ context.Context, req driving.ExplainRequest) (*driving.ExplainResult, error) {
	m.got = req
	return m.result, m.err
}

type mockMaterials struct {
	filter    domain.ListFilter
	materials []domain.Material
	err       error
}

func (m *mockMaterials) Get(_ context.Context, id string) (*domain.Material, error) {
	for i := range m.materials {
		if m.materials[i].ID == id {
			return &m.materials[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockMaterials) List(_ context.Context, filter domain.ListFilter) ([]domain.Material, error) {
	m.filter = filter
	return m.materials, m.err
}

type testServices struct {
	pipeline    *mockPipeline
	explanation *mockExplanation
	materials   *mockMaterials
	config      *memory.ConfigStore
}

func completedMaterial() *domain.Material {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	completed := created.Add(90 * time.Second)
	set, _ := domain.DeriveArtifacts("data", domain.SubjectPython, "Loops.pdf")
	return &domain.Material{
		ID:               "m-1",
		OriginalFilename: "Loops.pdf",
		SafeName:         "Loops",
		Subject:          domain.SubjectPython,
		UploadedBy:       "teacher-1",
		Status:           domain.StatusCompleted,
		Artifacts:        set,
		QuizContent: []domain.QuizQuestion{
			{Question: "q1", Options: domain.Options{A: "a", B: "b", C: "c", D: "d"}, Answer: domain.OptionA},
			{Question: "q2", Options: domain.Options{A: "a", B: "b", C: "c", D: "d"}, Answer: domain.OptionB},
		},
		CreatedAt:   created,
		StartedAt:   &created,
		CompletedAt: &completed,
	}
}

// setupTestServices installs mock services and resets command flags on cleanup.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		pipeline:    &mockPipeline{material: completedMaterial()},
		explanation: &mockExplanation{},
		materials:   &mockMaterials{},
		config:      memory.NewConfigStore(),
	}
	SetServices(&Services{
		Pipeline:    ts.pipeline,
		Explanation: ts.explanation,
		Material:    ts.materials,
		Settings:    services.NewSettingsService(ts.config, nil),
	})

	return ts, func() {
		SetServices(nil)
		SetLoader(nil)
		resetFlags()
	}
}

func resetFlags() {
	runSubject, runUploader, runMaterialID = "", "", ""
	runQuizCount, runFlashcardCount = 0, 0
	explainAttempt = ""
	listSubject, listStatus, listUploader = "", "", ""
	listLimit = 0
	watchSettle, watchUploader = 2*time.Second, ""
	configPath, logFile = "", ""
	verbose = false
}

// execute runs rootCmd with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func requireExit(t *testing.T, want int, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, ExitCode(err), "error: %v", err)
}
