// Package app wires adapters and core services into the command line.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/policyqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/policyqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/policyqa/internal/adapters/driven/loader"
	"github.com/custodia-labs/policyqa/internal/adapters/driven/strategyfile"
	"github.com/custodia-labs/policyqa/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/policyqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
	"github.com/custodia-labs/policyqa/internal/core/ports/driving"
	"github.com/custodia-labs/policyqa/internal/core/services"
	"github.com/custodia-labs/policyqa/internal/logger"
	"github.com/custodia-labs/policyqa/internal/normalisers"
	"github.com/custodia-labs/policyqa/internal/postprocessors"
)

// Ensure Bootstrap implements the CLI interface.
var _ cli.Bootstrap = (*Bootstrap)(nil)

// Bootstrap builds the settings service and the retrieval pipeline from a
// configuration directory.
type Bootstrap struct {
	// AllowFiles lets the loader read local paths. The CLI sets it; a
	// shared server may not want to.
	AllowFiles bool

	settings *services.SettingsService
	dir      string
}

// New creates a bootstrap.
func New() *Bootstrap {
	return &Bootstrap{AllowFiles: true}
}

// Settings opens the config store in configDir (default ~/.policyqa).
func (b *Bootstrap) Settings(configDir string) (driving.SettingsService, error) {
	svc, err := b.settingsService(configDir)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (b *Bootstrap) settingsService(configDir string) (*services.SettingsService, error) {
	if b.settings != nil && b.dir == configDir {
		return b.settings, nil
	}
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	b.settings = services.NewSettingsService(store, ai.NewConfigValidator())
	b.dir = configDir
	return b.settings, nil
}

// Services builds the full pipeline: embedding stack, LLM, document
// loading, chunk stores, retrieval and answering.
func (b *Bootstrap) Services(ctx context.Context, configDir string) (*cli.Services, error) {
	settingsSvc, err := b.settingsService(configDir)
	if err != nil {
		return nil, err
	}
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if err := settingsSvc.Validate(); err != nil {
		return nil, fmt.Errorf("%w (run 'policyqa settings')", err)
	}

	base, err := b.retrievalConfig(settingsSvc, settings)
	if err != nil {
		return nil, err
	}

	dir, err := resolveDir(configDir)
	if err != nil {
		return nil, err
	}
	if settings.Cache.Backend == domain.CacheBackendSQLite && settings.Cache.Path == "" {
		settings.Cache.Path = filepath.Join(dir, "cache")
	}

	stack, err := ai.Initialise(ctx, settings)
	if err != nil {
		return nil, err
	}
	for _, w := range stack.Warnings {
		logger.Warn("%s", w)
	}

	svc, err := b.assemble(settingsSvc, settings, base, stack, filepath.Join(dir, "prompts"))
	if err != nil {
		stack.Close()
		return nil, err
	}
	return svc, nil
}

func (b *Bootstrap) assemble(
	settingsSvc *services.SettingsService,
	settings *domain.AppSettings,
	base domain.RetrievalConfig,
	stack *ai.InitResult,
	promptDir string,
) (*cli.Services, error) {
	pipeline, err := postprocessors.NewPipelineFromConfig(postprocessors.DefaultRegistry(), settingsSvc.GetPipelineConfig())
	if err != nil {
		return nil, fmt.Errorf("building pipeline: %w", err)
	}
	logger.Debug("Post-processors: %v", pipeline.Names())

	builder, err := services.NewChunkStoreBuilder(pipeline, stack.EmbeddingService, flat.Factory)
	if err != nil {
		return nil, err
	}

	docLoader := loader.New(loader.Config{
		MaxBytes:   settings.Server.MaxDocumentBytes,
		AllowFiles: b.AllowFiles,
	})
	documents := services.NewDocumentService(docLoader, normalisers.DefaultRegistry(), builder, settings.Server.DocumentTTL)

	retrieval, err := services.NewRetrievalService(documents, stack.EmbeddingService, base)
	if err != nil {
		return nil, err
	}
	if settings.Retrieval.StrategyFile != "" {
		if err := retrieval.RegisterStrategy(base); err != nil {
			return nil, err
		}
	}

	generator := services.NewAnswerGenerator(stack.LLMService, driven.ChatOptions{
		MaxTokens:   settings.LLM.MaxTokens,
		Temperature: settings.LLM.Temperature,
	})
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		return nil, err
	}
	generator.SetPromptStore(prompts)

	answers := services.NewAnswerService(
		documents, retrieval, generator,
		settings.Server.MaxWorkers, settings.Server.QuestionTimeout,
	)

	return &cli.Services{
		Answer:    answers,
		Retrieval: retrieval,
		Documents: documents,
		Server:    settings.Server,
		Background: func(ctx context.Context) error {
			return file.WatchPrompts(ctx, prompts)
		},
		Close: func() error {
			stack.Close()
			return nil
		},
	}, nil
}

// retrievalConfig resolves the base strategy. A strategy file replaces the
// built-in strategy; configured overrides apply to either.
func (b *Bootstrap) retrievalConfig(
	svc *services.SettingsService, settings *domain.AppSettings,
) (domain.RetrievalConfig, error) {
	if settings.Retrieval.StrategyFile == "" {
		return svc.RetrievalConfig(settings)
	}
	cfg, err := strategyfile.NewLoader().LoadStrategy(settings.Retrieval.StrategyFile)
	if err != nil {
		return domain.RetrievalConfig{}, fmt.Errorf("loading strategy file: %w", err)
	}
	logger.Debug("Retrieval strategy %q from %s", cfg.Name, settings.Retrieval.StrategyFile)
	return services.ApplySettings(cfg, settings.Retrieval)
}

func resolveDir(configDir string) (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".policyqa"), nil
}
