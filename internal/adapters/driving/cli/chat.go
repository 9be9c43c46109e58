package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui"
	"github.com/custodia-labs/policyqa/internal/logger"
)

var chatFlags retrievalFlags

var chatCmd = &cobra.Command{
	Use:   "chat <document>",
	Short: "Ask questions interactively in the terminal UI",
	Long: `Opens an interactive chat over one policy document.

The document is loaded once when the chat starts. Each answer lists the
clauses it cites; select an answer to see the passages and how they were
scored.

Controls:
  Enter    - Ask / open answer
  ↑/k, ↓/j - Navigate answers
  n        - New question
  Esc      - Back
  ?        - Help
  Ctrl+C   - Quit`,
	Args:        cobra.ExactArgs(1),
	Annotations: pipelineCommand(),
	RunE:        runChat,
}

func init() {
	chatFlags.bind(chatCmd)
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if answerService == nil {
		return errors.New("answer service not configured")
	}
	opts, err := chatFlags.options()
	if err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{
		Answer:    answerService,
		Documents: documentService,
		Settings:  settingsService,
	}, tui.Session{
		Document: args[0],
		Options:  opts,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Prompt reloads keep working during a long chat.
	if backgroundTask != nil {
		go func() {
			if err := backgroundTask(ctx); err != nil {
				logger.Warn("background task stopped: %v", err)
			}
		}()
	}

	if err := app.WithContext(ctx).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
