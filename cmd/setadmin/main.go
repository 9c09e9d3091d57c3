package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hitrank/internal/infrastructure/firebase"
	"hitrank/pkg/config"
	"hitrank/pkg/logger"
)

const (
	uidKey    = "uid"
	revokeKey = "revoke"
)

func main() {
	if err := command().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "setadmin: %v\n", err)
		os.Exit(1)
	}
}

func command() *cobra.Command {
	c := &cobra.Command{
		Use:   "setadmin",
		Short: "Grants or revokes the admin custom claim on a Firebase user",
		RunE:  setAdminFunc,
	}
	flags := c.Flags()
	flags.String(uidKey, "", "Firebase uid to update (required)")
	flags.Bool(revokeKey, false, "Remove the admin claim instead of granting it")
	_ = c.MarkFlagRequired(uidKey)
	return c
}

func setAdminFunc(c *cobra.Command, _ []string) error {
	flags := c.Flags()
	uid, err := flags.GetString(uidKey)
	if err != nil {
		return err
	}
	revoke, err := flags.GetBool(revokeKey)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel, "hitrank-setadmin")

	ctx := c.Context()
	app, _, err := firebase.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return fmt.Errorf("initialize firebase auth: %w", err)
	}

	if err := firebase.NewFirebaseAuthClient(authClient).SetAdminClaim(ctx, uid, !revoke); err != nil {
		return err
	}

	if revoke {
		logger.Info("Admin claim removed for uid %s", uid)
	} else {
		logger.Info("Admin claim set for uid %s", uid)
	}
	return nil
}
