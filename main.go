// Command circles is the university circle management server.
//
// Wiring is split across the init_*.go files: repositories, services,
// handlers, routes and hub callbacks. Each subcommand lives in a cmd_*.go
// file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // APP_TIMEZONE must resolve on hosts without zoneinfo

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akinalp/circles/pkg/logger"
)

var (
	verbose bool

	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "circles",
	Short: "University circle management server",
	Long: `circles serves the JSON API and WebSocket endpoint used by the
circle (club) management frontend.

Run without a subcommand to start the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = logger.New(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(embeddingsCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(vapidKeysCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
