// Command studypipe turns lecture PDFs into quizzes, flashcards and tutor feedback.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/studypipe/internal/adapters/driven/ai"
	"github.com/custodia-labs/studypipe/internal/adapters/driven/artifacts/filesystem"
	"github.com/custodia-labs/studypipe/internal/adapters/driven/config/env"
	"github.com/custodia-labs/studypipe/internal/adapters/driven/config/file"
	"github.com/custodia-labs/studypipe/internal/adapters/driving/cli"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
	"github.com/custodia-labs/studypipe/internal/core/services"
	"github.com/custodia-labs/studypipe/internal/stages"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetLoader(load)
	os.Exit(cli.Execute())
}

// load wires adapters into services. Settings-only commands skip the
// gateway, recognizer and record store.
func load(ctx context.Context, configPath string, pipeline bool) (*cli.Services, error) {
	if err := env.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config, err := openConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(env.NewOverlay(config), ai.NewConfigValidator())

	s := &cli.Services{Settings: settingsService}
	if !pipeline {
		return s, nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, err
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return nil, err
	}
	artifacts := filesystem.NewStore()

	components, err := ai.Build(ctx, settings)
	if err != nil {
		return nil, err
	}

	orchestrator := services.NewOrchestrator(services.OrchestratorDeps{
		Store:      components.Store,
		Artifacts:  artifacts,
		Gateway:    components.Gateway,
		Recognizer: components.Recognizer,
		Rasterizer: components.Rasterizer,
		Prompts:    prompts,
		Settings:   settings.Pipeline,
	})
	if err := orchestrator.Start(ctx); err != nil {
		_ = orchestrator.Stop()
		return nil, err
	}

	s.Pipeline = orchestrator
	s.Material = services.NewMaterialService(components.Store)
	s.Explanation = services.NewExplanationService(
		components.Store,
		components.Gateway,
		prompts,
		artifacts,
		settings.Pipeline.ArtifactRoot,
		stages.ExplainConfig{Timeout: settings.Pipeline.CallTimeout},
	)
	s.Close = orchestrator.Stop
	return s, nil
}

func openConfig(path string) (driven.ConfigStore, error) {
	if path != "" {
		store, err := file.OpenConfigStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := file.NewConfigStore("")
	if err != nil {
		return nil, err
	}
	return store, nil
}
