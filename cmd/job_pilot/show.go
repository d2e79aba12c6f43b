package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/job-pilot/internal/db"
	"github.com/jonathan/job-pilot/internal/observability"
)

var showUserID string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a user's profile and applications",
	Long:  `Connect to the database and print a formatted summary of one user's career profile and saved applications.`,
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showUserID, "user", "", "User id (UUID) to inspect")
	_ = showCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(showUserID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", showUserID, err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	profile, apps, err := database.Load(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user data: %w", err)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if profile == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No profile saved for this user.")
	} else {
		printer.PrintProfile(profile)
	}
	printer.PrintApplicationList(apps)
	return nil
}
