// Package cli implements the policyqa command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driving"
	"github.com/custodia-labs/policyqa/internal/logger"
)

// needsServices marks commands that run the retrieval pipeline.
const needsServices = "policyqa/services"

// Services are the driving ports the pipeline commands use.
type Services struct {
	Answer    driving.AnswerService
	Retrieval driving.RetrievalService
	Documents driving.DocumentService

	// Server carries listen address and timeouts for serve and chat.
	Server domain.ServerSettings

	// Background runs for the lifetime of long-running commands. Optional.
	Background func(ctx context.Context) error

	// Close releases provider connections and caches. Optional.
	Close func() error
}

// Bootstrap builds services on demand so that settings and version work
// before any provider is configured.
type Bootstrap interface {
	Settings(configDir string) (driving.SettingsService, error)
	Services(ctx context.Context, configDir string) (*Services, error)
}

var (
	version = "dev"

	verbose   bool
	configDir string

	bootstrap Bootstrap
	closer    func() error

	settingsService  driving.SettingsService
	answerService    driving.AnswerService
	retrievalService driving.RetrievalService
	documentService  driving.DocumentService
	serverSettings   = domain.DefaultAppSettings().Server
	backgroundTask   func(ctx context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "policyqa",
	Short: "Answer questions about insurance and legal policy documents",
	Long: `policyqa selects the passages of a policy document that answer a question
and asks an LLM for an answer that cites them as CLAUSE_n.

Documents are file paths or HTTP(S) URLs (PDF, DOCX, HTML, Markdown or text).
Run 'policyqa settings' to choose embedding and LLM providers.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "configuration directory (default ~/.policyqa)")
}

// Execute runs the root command with services built by b.
func Execute(ctx context.Context, b Bootstrap, v string) error {
	bootstrap = b
	if v != "" {
		version = v
	}
	defer release()
	return rootCmd.ExecuteContext(ctx)
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil {
		return nil
	}

	if settingsService == nil {
		svc, err := bootstrap.Settings(configDir)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		settingsService = svc
	}

	if _, ok := cmd.Annotations[needsServices]; !ok || answerService != nil {
		return nil
	}
	services, err := bootstrap.Services(cmd.Context(), configDir)
	if err != nil {
		return err
	}
	answerService = services.Answer
	retrievalService = services.Retrieval
	documentService = services.Documents
	serverSettings = services.Server
	backgroundTask = services.Background
	closer = services.Close
	return nil
}

func release() {
	if closer == nil {
		return
	}
	if err := closer(); err != nil {
		logger.Warn("closing services: %v", err)
	}
	closer = nil
}

func pipelineCommand() map[string]string {
	return map[string]string{needsServices: "true"}
}
