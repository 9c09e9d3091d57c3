package main

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/spf13/cobra"

	"hitrank/internal/adapter/repository"
	"hitrank/internal/infrastructure/firebase"
	"hitrank/pkg/config"
	"hitrank/pkg/logger"
)

const dryRunKey = "dry-run"

func main() {
	if err := command().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func command() *cobra.Command {
	c := &cobra.Command{
		Use:   "migrate",
		Short: "Backfills reputation and aggregate defaults on existing users and pins",
		RunE:  migrateFunc,
	}
	c.Flags().Bool(dryRunKey, false, "Report what would change without writing")
	return c
}

func migrateFunc(c *cobra.Command, _ []string) error {
	dryRun, err := c.Flags().GetBool(dryRunKey)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel, "hitrank-migrate")

	ctx := c.Context()
	opts, err := firebase.ClientOptions(cfg)
	if err != nil {
		return err
	}

	client, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		return fmt.Errorf("create firestore client: %w", err)
	}
	defer client.Close()

	logger.Info("Starting data migration (dry run: %t)...", dryRun)
	report, err := repository.Backfill(ctx, client, dryRun)
	if err != nil {
		return err
	}

	logger.Info("Users: %d scanned, %d patched", report.UsersScanned, report.UsersPatched)
	logger.Info("Pins: %d scanned, %d patched", report.PinsScanned, report.PinsPatched)
	logger.Info("Data migration complete")
	return nil
}
