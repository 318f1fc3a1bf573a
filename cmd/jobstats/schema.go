package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobstats/internal/store"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the database tables if missing",
	Long:  "Creates raw_ads and agg_daily in the configured database. Existing tables and rows are left untouched.",
	RunE:  runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlStore := store.NewSQLiteStore(cfg.DatabasePath)
	if err := sqlStore.EnsureSchema(ctx); err != nil {
		logFailure(logger, "ensure schema failed", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Schema ready in %s\n", sqlStore.Path())
	return nil
}
