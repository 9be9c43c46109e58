// Command policyqa answers questions about insurance and legal policy
// documents from a small set of scored passages.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/policyqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/policyqa/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A .env file in the working directory supplies POLICYQA_* overrides.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, app.New(), version)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
