package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	analyzeDomain string
	analyzeJSON   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <question>",
	Short: "Classify a question without loading a document",
	Long: `Prints the complexity tier and keyword categories the retriever would
use for a question. Multiple arguments are joined into one question.`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: pipelineCommand(),
	RunE:        runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeDomain, "domain", "d", "", "retrieval strategy (insurance, legal)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	question := strings.Join(args, " ")
	profile, err := retrievalService.Analyze(question, analyzeDomain)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if analyzeJSON {
		out := struct {
			Question   string   `json:"question"`
			Complexity string   `json:"complexity"`
			Keywords   []string `json:"keywords"`
		}{
			Question:   profile.Question,
			Complexity: profile.Complexity.String(),
			Keywords:   append([]string{}, profile.Keywords...),
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	newPrinter(cmd.OutOrStdout()).profile(profile)
	return nil
}
