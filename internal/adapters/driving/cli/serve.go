package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/policyqa/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves question answering over HTTP until interrupted.

Endpoints:
  POST   /v1/answer      answer a batch of questions about one document
  POST   /v1/select      passage selection and explanation only
  GET    /v1/documents   list cached chunk stores
  DELETE /v1/documents   evict a cached chunk store (?uri=...)
  GET    /healthz        liveness

Prompt templates in the configuration directory are reloaded on change.`,
	Args:        cobra.NoArgs,
	Annotations: pipelineCommand(),
	RunE:        runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if answerService == nil || retrievalService == nil {
		return errors.New("answer service not configured")
	}

	addr := serveAddr
	if addr == "" {
		addr = serverSettings.Addr
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Answer:    answerService,
		Retrieval: retrievalService,
		Documents: documentService,
	}, httpapi.Config{
		Addr:           addr,
		RequestTimeout: serverSettings.RequestTimeout,
		MaxBodyBytes:   httpapi.DefaultMaxBodyBytes,
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return server.Run(ctx)
	})
	if backgroundTask != nil {
		g.Go(func() error {
			return backgroundTask(ctx)
		})
	}
	return g.Wait()
}
