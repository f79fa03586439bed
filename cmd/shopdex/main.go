package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/shopdex/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := serveCmd()

	root := &cobra.Command{
		Use:   "shopdex",
		Short: "shopdex - shopping query routing and product search",
		Long: `shopdex classifies shopping queries, routes them to exact, keyword or
semantic retrieval over a Redis product index, and ranks the results.

Without a subcommand it starts the API server.

Environment variables:
  ENV              config/<env>.yaml to load (default: local)
  REDIS_ADDR       Redis address (default: localhost:6379)
  OPENAI_API_KEY   key for the optional intent analyzer`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(classifyCmd())
	root.AddCommand(conceptsCmd())
	return root
}
