package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyqa/internal/adapters/driving/httpapi"
)

var (
	selectJSON  bool
	selectFlags retrievalFlags
)

var selectCmd = &cobra.Command{
	Use:   "select <document> <question>",
	Short: "Show the passages selected for a question",
	Long: `Runs passage selection without calling the LLM and explains the result:
question complexity, matched keyword categories, scores of each selected
passage and the estimated token savings against the fixed baseline.`,
	Args:        cobra.ExactArgs(2),
	Annotations: pipelineCommand(),
	RunE:        runSelect,
}

func init() {
	selectFlags.bind(selectCmd)
	selectCmd.Flags().BoolVar(&selectJSON, "json", false, "output the HTTP API response body")
	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	opts, err := selectFlags.options()
	if err != nil {
		return err
	}

	result, err := retrievalService.Select(cmd.Context(), args[0], args[1], opts)
	if err != nil {
		return fmt.Errorf("selection failed: %w", err)
	}

	if selectJSON {
		data, err := json.MarshalIndent(httpapi.NewSelectResponse(args[1], result), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal selection: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	newPrinter(cmd.OutOrStdout()).selection(result)
	return nil
}
