package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fitcoach-backend/internal/core"
	"fitcoach-backend/internal/db"
	"fitcoach-backend/internal/models"
)

func newBackfillProgressCmd(root *rootOptions) *cobra.Command {
	var userID, routineID, week string
	cmd := &cobra.Command{
		Use:   "backfill-progress",
		Short: "Rebuild a weekly routine progress tracker from completed workouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			weekStart, err := parseWeekFlag(week)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), root.timeout)
			defer cancel()
			closeDB, err := connect(ctx, root)
			if err != nil {
				return err
			}
			defer closeDB()

			client := db.GetFirestoreClient()
			svc := core.NewProgressService(
				db.NewFirestoreWorkoutRepository(client),
				db.NewFirestoreRoutineRepository(client),
				db.NewFirestoreProgressRepository(client),
				root.logger,
			)
			p, err := svc.Backfill(ctx, userID, routineID, weekStart)
			if err != nil {
				return err
			}
			root.logger.Info("Backfilled routine progress", zap.String("id", p.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d days, completion %.0f%%\n",
				p.WeekStart, len(p.CompletedDays), p.TargetDays, p.CompletionRate*100)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user UID")
	cmd.Flags().StringVar(&routineID, "routine", "", "routine ID")
	cmd.Flags().StringVar(&week, "week", "", "any date in the week, YYYY-MM-DD (default: current week)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("routine")
	return cmd
}

func newCoachCodeCmd(root *rootOptions) *cobra.Command {
	var trainerID string
	cmd := &cobra.Command{
		Use:   "coach-code",
		Short: "Issue a new coach code for a trainer, retiring the old one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), root.timeout)
			defer cancel()
			closeDB, err := connect(ctx, root)
			if err != nil {
				return err
			}
			defer closeDB()

			client := db.GetFirestoreClient()
			svc := core.NewTrainerService(
				db.NewFirestoreTrainerRepository(client),
				db.NewFirestoreUserRepository(client),
				db.NewFirestoreWorkoutRepository(client),
				db.NewFirestoreAssignedRoutineRepository(client),
				db.NewFirestoreChallengeRepository(client),
				nil,
				root.logger,
			)
			code, err := svc.RegenerateCode(ctx, trainerID)
			if errors.Is(err, core.ErrTrainerNotFound) {
				return fmt.Errorf("no trainer profile for %q", trainerID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
	cmd.Flags().StringVar(&trainerID, "trainer", "", "trainer UID")
	_ = cmd.MarkFlagRequired("trainer")
	return cmd
}

func parseWeekFlag(week string) (time.Time, error) {
	if week == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(models.WeekStartLayout, week)
	if err != nil {
		return time.Time{}, fmt.Errorf("--week must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}
