package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/anonify/cmd/anonifyctl/ui"
	"github.com/redmonkez12/anonify/internal/account"
	"github.com/redmonkez12/anonify/internal/auth"
	"github.com/redmonkez12/anonify/internal/config"
	"github.com/redmonkez12/anonify/internal/database"
	"github.com/redmonkez12/anonify/internal/jobs"
	"github.com/redmonkez12/anonify/internal/logging"
)

var errMemoryDriver = errors.New("anonifyctl needs STORAGE_DRIVER=postgres")

// cli holds the dependencies shared by every command. Tests replace the
// openers to run against the in-memory store.
type cli struct {
	out       io.Writer
	logger    *logging.Logger
	openDB    func(ctx context.Context) (*bun.DB, func(), error)
	openStore func(ctx context.Context) (account.Store, func(), error)
	runForm   func(ui.AccountInput) (ui.AccountInput, error)
}

func main() {
	c := &cli{
		out:     os.Stdout,
		logger:  logging.NewDiscardLogger(),
		openDB:  openPostgres,
		runForm: ui.RunAccountForm,
	}
	c.openStore = func(ctx context.Context) (account.Store, func(), error) {
		db, closeFn, err := c.openDB(ctx)
		if err != nil {
			return nil, nil, err
		}
		return account.NewRepository(db), closeFn, nil
	}

	if err := c.rootCmd().Execute(); err != nil {
		ui.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "anonifyctl",
		Short:         "Operator tooling for the Anonify API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE:  c.runMigrateUp,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			RunE:  c.runMigrateStatus,
		},
	)

	purgeCmd := &cobra.Command{
		Use:   "purge-unverified",
		Short: "Delete unverified accounts whose code expired long ago",
		RunE:  c.runPurge,
	}
	purgeCmd.Flags().Duration("older-than", 7*24*time.Hour, "Minimum time since the verification code expired")

	createCmd := &cobra.Command{
		Use:   "create-account",
		Short: "Create an already verified account",
		Long:  "Create a verified account without the email round trip. Missing fields are prompted for interactively.",
		RunE:  c.runCreateAccount,
	}
	createCmd.Flags().String("username", "", "Username")
	createCmd.Flags().String("email", "", "Email address")
	createCmd.Flags().String("password", "", "Password")

	rootCmd.AddCommand(migrateCmd, purgeCmd, createCmd)
	return rootCmd
}

func (c *cli) runMigrateUp(cmd *cobra.Command, _ []string) error {
	db, closeFn, err := c.openDB(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	if err := database.Migrate(cmd.Context(), db); err != nil {
		return err
	}
	ui.PrintSuccess(c.out, "Migrations applied")
	return nil
}

func (c *cli) runMigrateStatus(cmd *cobra.Command, _ []string) error {
	db, closeFn, err := c.openDB(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	ui.PrintTitle(c.out, "Migration status")
	return database.MigrationStatus(db)
}

func (c *cli) runPurge(cmd *cobra.Command, _ []string) error {
	olderThan, _ := cmd.Flags().GetDuration("older-than")
	if olderThan < 0 {
		return fmt.Errorf("--older-than must not be negative")
	}

	store, closeFn, err := c.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	job := jobs.NewPurgeUnverifiedJob(store, olderThan, c.logger, nil)
	n, err := job.RunContext(cmd.Context())
	if err != nil {
		return err
	}
	ui.PrintSuccess(c.out, fmt.Sprintf("Purged %d unverified account(s)", n))
	return nil
}

func (c *cli) runCreateAccount(cmd *cobra.Command, _ []string) error {
	var in ui.AccountInput
	in.Username, _ = cmd.Flags().GetString("username")
	in.Email, _ = cmd.Flags().GetString("email")
	in.Password, _ = cmd.Flags().GetString("password")

	if !in.Complete() {
		var err error
		if in, err = c.runForm(in); err != nil {
			return fmt.Errorf("form cancelled: %w", err)
		}
	}

	store, closeFn, err := c.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	// Provision touches only the store; sessions and mail are not involved.
	svc := auth.NewService(store, nil, nil, nil, c.logger, nil, auth.Settings{})
	acc, err := svc.Provision(cmd.Context(), auth.SignupInput{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
	})
	if err != nil {
		return err
	}

	ui.PrintAccount(c.out, acc)
	return nil
}

func openPostgres(ctx context.Context) (*bun.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Driver != config.StorageDriverPostgres {
		return nil, nil, errMemoryDriver
	}

	db, err := database.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}
