package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fitcoach-backend/internal/db"
	"fitcoach-backend/internal/models"
)

// ErrProgressNotFound is returned when no tracker exists for the week.
var ErrProgressNotFound = errors.New("routine progress not found")

type progressService struct {
	workouts db.WorkoutRepository
	routines db.RoutineRepository
	progress db.ProgressRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewProgressService creates a new ProgressService instance.
func NewProgressService(workouts db.WorkoutRepository, routines db.RoutineRepository, progress db.ProgressRepository, logger *zap.Logger) ProgressService {
	return &progressService{
		workouts: workouts,
		routines: routines,
		progress: progress,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Backfill rebuilds the week's tracker from the completed workouts on that routine.
// Running it twice gives the same document.
func (s *progressService) Backfill(ctx context.Context, userID, routineID string, week time.Time) (*models.RoutineProgress, error) {
	routine, err := s.routines.GetByID(ctx, userID, routineID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: routine '%s'", ErrRoutineNotFound, routineID)
		}
		return nil, fmt.Errorf("failed to get routine '%s': %w", routineID, err)
	}

	start := models.WeekStart(week)
	end := start.AddDate(0, 0, 7)
	workouts, err := s.workouts.ListCompleted(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed workouts for backfill: %w", err)
	}

	weekStart := start.Format(models.WeekStartLayout)
	p := &models.RoutineProgress{
		ID:            models.RoutineProgressID(userID, routineID, weekStart),
		UserID:        userID,
		RoutineID:     routineID,
		WeekStart:     weekStart,
		TargetDays:    len(routine.Days),
		CompletedDays: []string{},
		WorkoutIDs:    []string{},
		UpdatedAt:     s.now(),
	}
	seenDay := make(map[string]bool)
	for _, w := range workouts {
		if w.RoutineID != routineID || w.Status != models.WorkoutCompleted {
			continue
		}
		p.CompletedWorkouts++
		p.WorkoutIDs = append(p.WorkoutIDs, w.ID)
		day := w.StartedAt.UTC().Format(models.WeekStartLayout)
		if !seenDay[day] {
			seenDay[day] = true
			p.CompletedDays = append(p.CompletedDays, day)
		}
	}
	p.CompletionRate = CompletionRate(len(p.CompletedDays), p.TargetDays)

	if err := s.progress.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to store routine progress '%s': %w", p.ID, err)
	}
	s.logger.Debug("Routine progress backfilled",
		zap.String("id", p.ID), zap.Int("completedDays", len(p.CompletedDays)), zap.Float64("rate", p.CompletionRate))
	return p, nil
}

// CompletionRate is completed training days over target days, capped at 1.
func CompletionRate(completedDays, targetDays int) float64 {
	if targetDays <= 0 {
		return 0
	}
	rate := float64(completedDays) / float64(targetDays)
	if rate > 1 {
		return 1
	}
	return rate
}

func (s *progressService) GetWeek(ctx context.Context, userID, routineID string, week time.Time) (*models.RoutineProgress, error) {
	id := models.RoutineProgressID(userID, routineID, models.WeekStart(week).Format(models.WeekStartLayout))
	p, err := s.progress.Get(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProgressNotFound, id)
		}
		return nil, fmt.Errorf("failed to get routine progress '%s': %w", id, err)
	}
	return p, nil
}
