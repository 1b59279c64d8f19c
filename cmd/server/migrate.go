package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	appConfig "github.com/festy23/prmetrics/internal/config"
	"github.com/festy23/prmetrics/internal/database/database"
	"github.com/festy23/prmetrics/internal/database/migrate"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(func(db *gorm.DB) error {
					if err := migrate.Migrate(db); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil {
						return fmt.Errorf("invalid steps %q: %w", args[0], err)
					}
					steps = n
				}
				return withDatabase(func(db *gorm.DB) error {
					if err := migrate.Down(db, steps); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(func(db *gorm.DB) error {
					version, dirty, err := migrate.Version(db)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}

func withDatabase(fn func(db *gorm.DB) error) error {
	cfg := appConfig.LoadFromEnv()
	if err := cfg.Logger.Validate(); err != nil {
		return err
	}

	log, db, err := bootstrap(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close(db)
		_ = log.Sync()
	}()

	return fn(db)
}
