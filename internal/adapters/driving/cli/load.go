package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var loadRefresh bool

var loadCmd = &cobra.Command{
	Use:   "load <document> [document...]",
	Short: "Build chunk stores and print their summaries",
	Long: `Fetches, splits and embeds each document and prints the resulting chunk
store: chunk count, embedding model and content fingerprint.

With a persistent embedding cache (cache.backend = sqlite or postgres) this
warms the cache so later questions skip re-embedding.`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: pipelineCommand(),
	RunE:        runLoad,
}

func init() {
	loadCmd.Flags().BoolVar(&loadRefresh, "refresh", false, "rebuild even if cached")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	p := newPrinter(cmd.OutOrStdout())
	for _, uri := range args {
		load := documentService.Load
		if loadRefresh {
			load = documentService.Refresh
		}
		info, err := load(cmd.Context(), uri)
		if err != nil {
			return fmt.Errorf("loading %s: %w", uri, err)
		}
		p.document(info)
	}
	return nil
}
