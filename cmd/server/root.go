package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appConfig "github.com/festy23/prmetrics/internal/config"
	"github.com/festy23/prmetrics/internal/database/database"
	"github.com/festy23/prmetrics/pkg/logger"
)

var envFiles []string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "prmetrics",
		Short:         "Ingest GitHub pull request webhooks and serve review statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := appConfig.LoadDotEnv(envFiles...); err != nil {
				return fmt.Errorf("failed to load env files: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Env file(s) to load (default .env)")

	serve := newServeCmd()
	root.AddCommand(serve, newMigrateCmd(), newProjectCmd())
	// serving is the default action
	root.RunE = serve.RunE
	return root
}

// bootstrap builds the logger and opens the database shared by every command.
func bootstrap(cfg appConfig.Config) (*zap.SugaredLogger, *gorm.DB, error) {
	log, err := logger.NewWithConfig(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.New(logger.Component(log, "database"))
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	return log, db, nil
}
