package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
	"github.com/custodia-labs/studypipe/internal/core/ports/driving"
	"github.com/custodia-labs/studypipe/internal/logger"
	"github.com/custodia-labs/studypipe/internal/stages"
)

// Ensure Orchestrator implements the interface.
var _ driving.PipelineService = (*Orchestrator)(nil)

// failureWriteTimeout bounds the failure transition when the run's context is already done.
const failureWriteTimeout = 10 * time.Second

// OrchestratorDeps wires the orchestrator's collaborators.
// Every handle is constructed once at process start and owned by the
// orchestrator from Start until Stop.
type OrchestratorDeps struct {
	Store      driven.MaterialStore
	Artifacts  driven.ArtifactStore
	Gateway    driven.InferenceGateway
	Recognizer driven.Recognizer
	Rasterizer driven.Rasterizer
	Prompts    driven.PromptStore

	Settings domain.PipelineSettings

	// Model overrides the gateway default for every stage.
	Model string

	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// Orchestrator owns the material state machine and sequences the stages.
type Orchestrator struct {
	store      driven.MaterialStore
	artifacts  driven.ArtifactStore
	gateway    driven.InferenceGateway
	recognizer driven.Recognizer
	settings   domain.PipelineSettings
	now        func() time.Time
	newID      func() string

	extractor   *stages.Extractor
	classifier  *stages.Classifier
	synthesizer *stages.Synthesizer
	quiz        *stages.QuizGenerator
	flashcards  *stages.FlashcardGenerator
}

// NewOrchestrator creates an orchestrator and its stages.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	s := deps.Settings
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}

	return &Orchestrator{
		store:      deps.Store,
		artifacts:  deps.Artifacts,
		gateway:    deps.Gateway,
		recognizer: deps.Recognizer,
		settings:   s,
		now:        deps.Now,
		newID:      deps.NewID,

		extractor: stages.NewExtractor(deps.Rasterizer, deps.Recognizer, stages.ExtractConfig{
			DPI:     s.DPI,
			Timeout: s.CallTimeout,
		}),
		classifier: stages.NewClassifier(deps.Gateway, deps.Prompts, stages.ClassifyConfig{
			Model:   deps.Model,
			Workers: s.ClassifyWorkers,
			Timeout: s.CallTimeout,
		}),
		synthesizer: stages.NewSynthesizer(deps.Gateway, deps.Prompts, deps.Artifacts, stages.SynthesizeConfig{
			Model:   deps.Model,
			Timeout: s.CallTimeout,
		}),
		quiz: stages.NewQuizGenerator(deps.Gateway, deps.Prompts, deps.Artifacts, stages.GenerateConfig{
			Model:   deps.Model,
			Count:   s.QuizCount,
			Timeout: s.CallTimeout,
		}),
		flashcards: stages.NewFlashcardGenerator(deps.Gateway, deps.Prompts, deps.Artifacts, stages.GenerateConfig{
			Model:   deps.Model,
			Count:   s.FlashcardCount,
			Timeout: s.CallTimeout,
		}),
	}
}

// Start verifies the record store is reachable. An unreachable gateway is
// logged but not fatal; runs will fail at their first call instead.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.store.Ping(ctx); err != nil {
		return storeError("ping store", err)
	}
	if o.gateway != nil {
		if err := o.gateway.Ping(ctx); err != nil {
			logger.Warn("inference gateway %s unreachable: %v", o.gateway.ModelName(), err)
		}
	}
	return nil
}

// Stop releases every handle the orchestrator owns.
func (o *Orchestrator) Stop() error {
	var errs []error
	if o.store != nil {
		errs = append(errs, o.store.Close())
	}
	if o.gateway != nil {
		errs = append(errs, o.gateway.Close())
	}
	if o.recognizer != nil {
		errs = append(errs, o.recognizer.Close())
	}
	return errors.Join(errs...)
}

// Status returns the material record for id.
func (o *Orchestrator) Status(ctx context.Context, id string) (*domain.Material, error) {
	m, err := o.store.Find(ctx, id)
	if err != nil {
		return nil, storeError("find material", err)
	}
	return m, nil
}

// Run executes one pipeline run.
//
// Input errors and store errors before the run starts return a nil result.
// Once the material is processing, a stage failure returns the failed
// material alongside the error.
func (o *Orchestrator) Run(ctx context.Context, req driving.RunRequest) (*driving.RunResult, error) {
	start := o.now()

	existing, err := o.findExisting(ctx, req.MaterialID)
	if err != nil {
		return nil, err
	}
	req = fillFromExisting(req, existing)

	if err := validateInput(req); err != nil {
		return nil, err
	}

	set, err := domain.DeriveArtifacts(o.settings.ArtifactRoot, req.Subject, req.OriginalFilename)
	if err != nil {
		return nil, err
	}

	m, err := o.prepare(ctx, req, existing, set)
	if err != nil {
		return nil, err
	}
	log := logger.With("material", m.ID, "subject", m.Subject.String())

	if err := o.transition(ctx, m, domain.StatusProcessing, domain.MaterialUpdate{
		StartedAt: domain.TimePtr(o.now()),
	}); err != nil {
		return nil, err
	}
	log.Info("processing %s", req.OriginalFilename)

	quiz, flashcardsOK, runErr := o.runStages(ctx, log, req, m)
	result := &driving.RunResult{FlashcardsWritten: flashcardsOK}

	if runErr == nil {
		runErr = o.transition(ctx, m, domain.StatusCompleted, domain.MaterialUpdate{
			QuizContent: quiz,
			CompletedAt: domain.TimePtr(o.now()),
		})
	}
	if runErr != nil {
		err := o.fail(ctx, log, m, runErr)
		result.Material = m
		result.FlashcardsWritten = false
		result.Duration = o.now().Sub(start)
		return result, err
	}

	result.Material = m
	result.Duration = o.now().Sub(start)
	log.Section("COMPLETED")
	log.Info("completed in %s with %d questions", result.Duration.Round(time.Millisecond), len(quiz))
	return result, nil
}

// runStages executes every stage with validation gates between them.
func (o *Orchestrator) runStages(
	ctx context.Context,
	log *logger.Logger,
	req driving.RunRequest,
	m *domain.Material,
) ([]domain.QuizQuestion, bool, error) {
	set := m.Artifacts
	timeout := o.settings.StageTimeout

	// Extraction and classification together produce the labelled file.
	stageStart := o.now()
	log.Section("EXTRACT")
	blocks, err := supervise(ctx, o.extractor.Name(), timeout, func(ctx context.Context) ([]domain.TextBlock, error) {
		return o.extractor.Run(ctx, req.PDFPath)
	})
	if err != nil {
		return nil, false, err
	}
	o.stageDone(log, o.extractor, stageStart)

	stageStart = o.now()
	log.Section("CLASSIFY")
	labelled, err := supervise(ctx, o.classifier.Name(), timeout, func(ctx context.Context) ([]domain.TextBlock, error) {
		return o.classifier.Run(ctx, blocks)
	})
	if err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, domain.NewStageError(o.classifier.Name(), err)
	}
	if err := o.writeJSON(set[domain.ArtifactExtracted], labelled); err != nil {
		return nil, false, domain.NewStageError(o.classifier.Name(), err)
	}
	if err := o.gate(o.classifier.Name(), set[domain.ArtifactExtracted]); err != nil {
		return nil, false, err
	}
	o.stageDone(log, o.classifier, stageStart)

	stageStart = o.now()
	log.Section("CONTEXT")
	digest, err := supervise(ctx, o.synthesizer.Name(), timeout, func(ctx context.Context) (string, error) {
		return o.synthesizer.Run(ctx, labelled, set[domain.ArtifactContext])
	})
	if err != nil {
		return nil, false, err
	}
	if err := o.gate(o.synthesizer.Name(), set[domain.ArtifactContext]); err != nil {
		return nil, false, err
	}
	o.stageDone(log, o.synthesizer, stageStart)

	stageStart = o.now()
	log.Section("QUIZ")
	quizGen := o.quiz.WithCount(req.QuizCount)
	if _, err := supervise(ctx, quizGen.Name(), timeout, func(ctx context.Context) ([]domain.QuizQuestion, error) {
		return quizGen.Run(ctx, digest, set[domain.ArtifactQuiz])
	}); err != nil {
		return nil, false, err
	}
	if err := o.gate(quizGen.Name(), set[domain.ArtifactQuiz]); err != nil {
		return nil, false, err
	}
	quiz, err := o.readQuiz(set[domain.ArtifactQuiz])
	if err != nil {
		return nil, false, domain.NewStageError(quizGen.Name(), err)
	}
	o.stageDone(log, quizGen, stageStart)

	// Flashcards are supplementary: failure is logged and the run continues.
	stageStart = o.now()
	log.Section("FLASHCARDS")
	cardsGen := o.flashcards.WithCount(req.FlashcardCount)
	_, err = supervise(ctx, cardsGen.Name(), timeout, func(ctx context.Context) ([]domain.Flashcard, error) {
		return cardsGen.Run(ctx, digest, set[domain.ArtifactFlashcards])
	})
	if err == nil {
		err = o.gate(cardsGen.Name(), set[domain.ArtifactFlashcards])
	}
	if err != nil {
		log.Warn("flashcards skipped: %v", err)
		if rmErr := o.artifacts.Remove(set[domain.ArtifactFlashcards]); rmErr != nil {
			log.Warn("remove stale flashcards: %v", rmErr)
		}
		return quiz, false, nil
	}
	o.stageDone(log, cardsGen, stageStart)

	return quiz, true, nil
}

func (o *Orchestrator) stageDone(log *logger.Logger, s stages.Stage, started time.Time) {
	log.With("stage", stages.Describe(s), "elapsed", o.now().Sub(started).String()).Info("%s done", s.Name())
}

// gate fails the stage when its declared output is missing or empty.
func (o *Orchestrator) gate(stage, path string) error {
	if err := o.artifacts.Validate(path); err != nil {
		return domain.NewStageError(stage, err)
	}
	return nil
}

func (o *Orchestrator) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := o.artifacts.WriteFile(path, data); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readQuiz decodes the persisted quiz so the record holds exactly what is on disk.
func (o *Orchestrator) readQuiz(path string) ([]domain.QuizQuestion, error) {
	data, err := o.artifacts.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quiz: %w", err)
	}
	return stages.DecodeList[domain.QuizQuestion](string(data))
}

// fail cleans up the run's artifacts and persists the failed state.
// The returned error is cause, joined with any failure to persist it.
func (o *Orchestrator) fail(ctx context.Context, log *logger.Logger, m *domain.Material, cause error) error {
	log.Section("FAILED")
	log.Error("run failed: %v", cause)
	o.cleanup(log, m.Artifacts)

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
	defer cancel()

	err := o.transition(wctx, m, domain.StatusFailed, domain.MaterialUpdate{
		Error:    domain.StringPtr(cause.Error()),
		FailedAt: domain.TimePtr(o.now()),
	})
	if err != nil {
		log.Error("record failure: %v", err)
		return errors.Join(cause, err)
	}
	return cause
}

// cleanup deletes every artifact of the run. Deletion failures are logged only.
func (o *Orchestrator) cleanup(log *logger.Logger, set domain.ArtifactSet) {
	for _, path := range set.Paths() {
		if !o.artifacts.Exists(path) {
			continue
		}
		if err := o.artifacts.Remove(path); err != nil {
			log.Warn("cleanup %s: %v", path, err)
			continue
		}
		log.Debug("removed %s", path)
	}
}

// transition moves m to next and persists the change with extra fields.
func (o *Orchestrator) transition(
	ctx context.Context,
	m *domain.Material,
	next domain.MaterialStatus,
	update domain.MaterialUpdate,
) error {
	if !m.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s for material %s", domain.ErrInvalidTransition, m.Status, next, m.ID)
	}
	update.Status = domain.StatusPtr(next)
	if err := o.store.Update(ctx, m.ID, update); err != nil {
		return storeError("mark "+next.String(), err)
	}
	update.Apply(m)
	return nil
}

// findExisting loads the material a retry targets. Unknown IDs return nil.
func (o *Orchestrator) findExisting(ctx context.Context, id string) (*domain.Material, error) {
	if id == "" {
		return nil, nil
	}
	m, err := o.store.Find(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find material", err)
	}
	return m, nil
}

// prepare durably writes the material in the created state with its artifact set.
// A retry resets the existing record; otherwise a new record is inserted.
func (o *Orchestrator) prepare(
	ctx context.Context,
	req driving.RunRequest,
	existing *domain.Material,
	set domain.ArtifactSet,
) (*domain.Material, error) {
	if existing != nil {
		if existing.Status == domain.StatusProcessing {
			logger.Warn("material %s is already processing, restarting it", existing.ID)
		}
		update := domain.MaterialUpdate{
			OriginalFilename: domain.StringPtr(req.OriginalFilename),
			Subject:          &req.Subject,
			Status:           domain.StatusPtr(domain.StatusCreated),
			Artifacts:        set,
			ClearQuiz:        true,
			Error:            domain.StringPtr(""),
			ClearTimestamps:  true,
		}
		if err := o.store.Update(ctx, existing.ID, update); err != nil {
			return nil, storeError("reset material", err)
		}
		o.cleanup(logger.With("material", existing.ID), staleArtifacts(existing.Artifacts, set))
		update.Apply(existing)
		logger.Info("retrying material %s", existing.ID)
		return existing, nil
	}

	id := req.MaterialID
	if id == "" {
		id = o.newID()
	}
	m := &domain.Material{
		ID:               id,
		OriginalFilename: req.OriginalFilename,
		SafeName:         domain.SafeName(req.OriginalFilename),
		Subject:          req.Subject,
		UploadedBy:       req.UploadedBy,
		Status:           domain.StatusCreated,
		Artifacts:        set,
		CreatedAt:        o.now(),
	}
	insertedID, err := o.store.Insert(ctx, m)
	if err != nil {
		return nil, storeError("insert material", err)
	}
	m.ID = insertedID
	return m, nil
}

// staleArtifacts returns the entries of prev whose path the next set no longer uses.
func staleArtifacts(prev, next domain.ArtifactSet) domain.ArtifactSet {
	stale := make(domain.ArtifactSet)
	used := make(map[string]bool, len(next))
	for _, path := range next {
		used[path] = true
	}
	for name, path := range prev {
		if !used[path] {
			stale[name] = path
		}
	}
	return stale
}

// fillFromExisting defaults request fields from the record being retried.
func fillFromExisting(req driving.RunRequest, existing *domain.Material) driving.RunRequest {
	if req.OriginalFilename == "" {
		if existing != nil && existing.OriginalFilename != "" {
			req.OriginalFilename = existing.OriginalFilename
		} else {
			req.OriginalFilename = filepath.Base(req.PDFPath)
		}
	}
	if existing == nil {
		return req
	}
	if req.Subject == "" {
		req.Subject = existing.Subject
	}
	if req.UploadedBy == "" {
		req.UploadedBy = existing.UploadedBy
	}
	return req
}

// validateInput checks the source file and subject before anything is written.
func validateInput(req driving.RunRequest) error {
	if req.PDFPath == "" {
		return fmt.Errorf("%w: pdf path is required", domain.ErrInput)
	}
	if !strings.EqualFold(filepath.Ext(req.PDFPath), ".pdf") {
		return fmt.Errorf("%w: %s is not a .pdf file", domain.ErrInput, req.PDFPath)
	}
	info, err := os.Stat(req.PDFPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInput, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", domain.ErrInput, req.PDFPath)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", domain.ErrInput, req.PDFPath)
	}
	if !req.Subject.IsValid() {
		return fmt.Errorf("%w: unknown subject %q", domain.ErrInput, req.Subject)
	}
	return nil
}

// storeError ensures a record store failure matches domain.ErrStore.
func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrStore) || errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStore, err)
}
