package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	projectModel "github.com/festy23/prmetrics/internal/project/model"
	projectRepository "github.com/festy23/prmetrics/internal/project/repository"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects that send webhooks",
	}

	var (
		userID   string
		name     string
		timeZone string
		secret   string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a project and print its API key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := time.LoadLocation(timeZone); err != nil {
				return fmt.Errorf("invalid time zone %q: %w", timeZone, err)
			}
			project := &projectModel.Project{
				UserID:        userID,
				Name:          name,
				APIKey:        uuid.NewString(),
				WebhookSecret: secret,
				TimeZone:      timeZone,
			}
			return withDatabase(func(db *gorm.DB) error {
				repo := projectRepository.New(db, zap.NewNop().Sugar())
				if err := repo.Create(context.Background(), project); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "project %d created, api key: %s\n", project.ID, project.APIKey)
				return nil
			})
		},
	}
	create.Flags().StringVar(&userID, "user", "", "Owner user id")
	create.Flags().StringVar(&name, "name", "", "Project name")
	create.Flags().StringVar(&timeZone, "time-zone", "UTC", "IANA time zone for statistics")
	create.Flags().StringVar(&secret, "webhook-secret", "", "Secret for X-Hub-Signature-256 verification")
	_ = create.MarkFlagRequired("user")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(create)
	return cmd
}
