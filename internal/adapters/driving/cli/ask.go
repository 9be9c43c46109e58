package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyqa/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/policyqa/internal/core/domain"
)

var (
	askJSON    bool
	askExplain bool
	askFlags   retrievalFlags
)

var askCmd = &cobra.Command{
	Use:   "ask <document> <question> [question...]",
	Short: "Answer questions about a document",
	Long: `Answers one or more questions about a policy document.

Each question is answered independently from the passages selected for it;
a failing question does not stop the others. Answers cite the passages they
rely on as CLAUSE_n.

Examples:
  policyqa ask policy.pdf "Does the policy cover knee surgery?"
  policyqa ask https://example.com/policy.pdf "What is the grace period?" "Are dental procedures excluded?"`,
	Args:        cobra.MinimumNArgs(2),
	Annotations: pipelineCommand(),
	RunE:        runAsk,
}

func init() {
	askFlags.bind(askCmd)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the HTTP API response body")
	askCmd.Flags().BoolVar(&askExplain, "explain", false, "include the selection explanation")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	opts, err := askFlags.options()
	if err != nil {
		return err
	}
	req := domain.AnswerRequest{
		DocumentURI: args[0],
		Questions:   args[1:],
		Options:     opts,
	}

	batch, err := answerService.Answer(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("answering failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(httpapi.NewAnswerResponse(req.Questions, batch, askExplain), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answers: %w", err)
		}
		cmd.Println(string(data))
	} else {
		p := newPrinter(cmd.OutOrStdout())
		for _, res := range batch.Results {
			if res.Index < 0 || res.Index >= len(req.Questions) {
				continue
			}
			p.answer(res.Index+1, res, req.Questions[res.Index], askExplain)
		}
	}

	if failed := batch.Failures(); failed > 0 {
		return fmt.Errorf("%d of %d questions failed", failed, len(req.Questions))
	}
	return nil
}
