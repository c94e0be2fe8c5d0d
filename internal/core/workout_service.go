package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"fitcoach-backend/internal/catalog"
	"fitcoach-backend/internal/db"
	"fitcoach-backend/internal/events"
	"fitcoach-backend/internal/models"
)

var (
	ErrWorkoutNotFound  = errors.New("workout not found")
	ErrWorkoutNotActive = errors.New("workout is not active")
	ErrEmptyWorkout     = errors.New("workout has no logged sets")
	ErrUnknownExercise  = errors.New("unknown exercise")
	ErrInvalidSet       = errors.New("invalid set")
	ErrInvalidDayIndex  = errors.New("routine has no such day")
	ErrRoutineNotFound  = errors.New("routine not found")
)

// PointsPerStudentWorkout is credited to the coach for each completed student workout.
const PointsPerStudentWorkout = 5

// WorkoutDeps are the collaborators of the workout logger. Progress, Trainers,
// Challenges and Publisher drive the finish side effects and may be nil.
type WorkoutDeps struct {
	Workouts        db.WorkoutRepository
	PersonalRecords db.PersonalRecordRepository
	Users           db.UserRepository
	Routines        db.RoutineRepository
	Catalog         *catalog.Catalog
	Progress        ProgressService
	Trainers        TrainerService
	Challenges      ChallengeService
	Publisher       events.Publisher
	Logger          *zap.Logger
}

type workoutService struct {
	WorkoutDeps
	now func() time.Time
}

// NewWorkoutService creates a new WorkoutService instance.
func NewWorkoutService(deps WorkoutDeps) WorkoutService {
	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}
	return &workoutService{
		WorkoutDeps: deps,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// StartWorkout opens an active session, pre-filled from a routine day when one is given.
func (s *workoutService) StartWorkout(ctx context.Context, userID string, req models.StartWorkoutRequest) (*models.Workout, error) {
	now := s.now()
	w := &models.Workout{
		UserID:    userID,
		Name:      req.Name,
		Status:    models.WorkoutActive,
		Exercises: []models.WorkoutExercise{},
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if req.RoutineID != "" {
		routine, err := s.Routines.GetByID(ctx, userID, req.RoutineID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, fmt.Errorf("%w: routine '%s'", ErrRoutineNotFound, req.RoutineID)
			}
			return nil, fmt.Errorf("failed to load routine '%s': %w", req.RoutineID, err)
		}
		if req.DayIndex < 0 || req.DayIndex >= len(routine.Days) {
			return nil, fmt.Errorf("%w: day %d of %d", ErrInvalidDayIndex, req.DayIndex, len(routine.Days))
		}
		day := routine.Days[req.DayIndex]
		w.RoutineID = routine.ID
		w.DayIndex = req.DayIndex
		if w.Name == "" {
			w.Name = day.Name
		}
		for _, ex := range day.Exercises {
			w.Exercises = append(w.Exercises, models.WorkoutExercise{ExerciseID: ex.ExerciseID, Name: ex.Name, Sets: []models.WorkoutSet{}})
		}
	}
	if w.Name == "" {
		w.Name = "Workout " + now.Format("2006-01-02")
	}

	if _, err := s.Workouts.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to start workout: %w", err)
	}
	return w, nil
}

// LogSet appends a set to an active workout.
func (s *workoutService) LogSet(ctx context.Context, userID, workoutID string, req models.LogSetRequest) (*models.Workout, error) {
	if req.Reps <= 0 || req.WeightKg < 0 {
		return nil, fmt.Errorf("%w: reps must be positive and weight not negative", ErrInvalidSet)
	}
	ex, err := s.Catalog.Get(req.ExerciseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownExercise, req.ExerciseID)
	}

	now := s.now()
	set := models.WorkoutSet{Reps: req.Reps, WeightKg: req.WeightKg, LoggedAt: now}
	return s.modifyActive(ctx, userID, workoutID, func(w *models.Workout) error {
		appended := false
		for i := range w.Exercises {
			if w.Exercises[i].ExerciseID == ex.ID {
				w.Exercises[i].Sets = append(w.Exercises[i].Sets, set)
				appended = true
				break
			}
		}
		if !appended {
			w.Exercises = append(w.Exercises, models.WorkoutExercise{ExerciseID: ex.ID, Name: ex.Name, Sets: []models.WorkoutSet{set}})
		}
		w.RecomputeTotals()
		w.UpdatedAt = now
		return nil
	})
}

// FinishWorkout completes the session and runs the side effects. Only the
// transaction that moves the workout out of active runs them; everything after
// the write is logged as a warning.
func (s *workoutService) FinishWorkout(ctx context.Context, userID, workoutID string) (*FinishResult, error) {
	now := s.now()
	w, err := s.modifyActive(ctx, userID, workoutID, func(w *models.Workout) error {
		w.RecomputeTotals()
		if w.TotalSets == 0 {
			return ErrEmptyWorkout
		}
		finished := now
		w.Status = models.WorkoutCompleted
		w.FinishedAt = &finished
		w.DurationSeconds = int(now.Sub(w.StartedAt).Seconds())
		w.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := s.Logger.With(zap.String("userID", userID), zap.String("workoutID", workoutID))
	result := &FinishResult{Workout: w, NewRecords: s.updatePersonalRecords(ctx, w, log)}

	if w.RoutineID != "" && s.Progress != nil {
		if _, err := s.Progress.Backfill(ctx, userID, w.RoutineID, w.StartedAt); err != nil {
			log.Warn("Failed to backfill routine progress", zap.Error(err))
		}
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		log.Warn("Failed to load user after finishing workout", zap.Error(err))
		user = &models.User{ID: userID}
	}
	if user.CoachID != "" {
		if s.Trainers != nil {
			if _, err := s.Trainers.AwardPoints(ctx, user.CoachID, PointsPerStudentWorkout, "student workout"); err != nil {
				log.Warn("Failed to reward coach", zap.String("trainerID", user.CoachID), zap.Error(err))
			}
		}
		if s.Challenges != nil {
			if err := s.Challenges.RecordWorkout(ctx, userID, user.CoachID, w); err != nil {
				log.Warn("Failed to update challenge progress", zap.Error(err))
			}
		}
	}

	evt := events.New(events.WorkoutCompleted, userID, user.CoachID, map[string]string{
		"workoutId":   w.ID,
		"workoutName": w.Name,
		"studentName": user.DisplayName,
		"totalVolume": strconv.FormatFloat(w.TotalVolume, 'f', 0, 64),
		"totalSets":   strconv.Itoa(w.TotalSets),
	})
	if err := s.Publisher.Publish(ctx, evt); err != nil {
		log.Warn("Failed to publish workout event", zap.Error(err))
	}
	return result, nil
}

// updatePersonalRecords stores the workout's best sets that beat the stored records.
func (s *workoutService) updatePersonalRecords(ctx context.Context, w *models.Workout, log *zap.Logger) []*models.PersonalRecord {
	var records []*models.PersonalRecord
	bestSets := w.BestSets()
	for _, ex := range w.Exercises {
		best, ok := bestSets[ex.ExerciseID]
		if !ok || best.WeightKg <= 0 {
			continue
		}
		current, err := s.PersonalRecords.Get(ctx, w.UserID, ex.ExerciseID)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			log.Warn("Failed to read personal record", zap.String("exerciseID", ex.ExerciseID), zap.Error(err))
			continue
		}
		if current != nil && !beats(best, current) {
			continue
		}
		pr := &models.PersonalRecord{
			ExerciseID: ex.ExerciseID,
			WeightKg:   best.WeightKg,
			Reps:       best.Reps,
			WorkoutID:  w.ID,
			AchievedAt: *w.FinishedAt,
		}
		if err := s.PersonalRecords.Upsert(ctx, w.UserID, pr); err != nil {
			log.Warn("Failed to store personal record", zap.String("exerciseID", ex.ExerciseID), zap.Error(err))
			continue
		}
		records = append(records, pr)
	}
	return records
}

func beats(set models.WorkoutSet, pr *models.PersonalRecord) bool {
	return set.WeightKg > pr.WeightKg || (set.WeightKg == pr.WeightKg && set.Reps > pr.Reps)
}

// AbandonWorkout closes an active session without any totals side effects.
func (s *workoutService) AbandonWorkout(ctx context.Context, userID, workoutID string) (*models.Workout, error) {
	now := s.now()
	return s.modifyActive(ctx, userID, workoutID, func(w *models.Workout) error {
		w.Status = models.WorkoutAbandoned
		w.FinishedAt = &now
		w.UpdatedAt = now
		return nil
	})
}

// modifyActive applies fn to an active workout owned by userID in one repository
// transaction. Errors raised by the checks or by fn come back unwrapped.
func (s *workoutService) modifyActive(ctx context.Context, userID, workoutID string, fn func(w *models.Workout) error) (*models.Workout, error) {
	var rejected error
	w, err := s.Workouts.Modify(ctx, workoutID, func(w *models.Workout) error {
		switch {
		case w.UserID != userID:
			rejected = fmt.Errorf("%w: workout '%s'", ErrWorkoutNotFound, workoutID)
		case w.Status != models.WorkoutActive:
			rejected = fmt.Errorf("%w: status is %s", ErrWorkoutNotActive, w.Status)
		default:
			rejected = fn(w)
		}
		return rejected
	})
	switch {
	case err == nil:
		return w, nil
	case rejected != nil:
		return nil, rejected
	case errors.Is(err, db.ErrNotFound):
		return nil, fmt.Errorf("%w: workout '%s'", ErrWorkoutNotFound, workoutID)
	default:
		return nil, fmt.Errorf("failed to update workout '%s': %w", workoutID, err)
	}
}

// GetWorkout returns a workout owned by the user. Someone else's workout is reported as not found.
func (s *workoutService) GetWorkout(ctx context.Context, userID, workoutID string) (*models.Workout, error) {
	w, err := s.Workouts.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: workout '%s'", ErrWorkoutNotFound, workoutID)
		}
		return nil, fmt.Errorf("failed to get workout '%s': %w", workoutID, err)
	}
	if w.UserID != userID {
		return nil, fmt.Errorf("%w: workout '%s'", ErrWorkoutNotFound, workoutID)
	}
	return w, nil
}

func (s *workoutService) ListWorkouts(ctx context.Context, userID string, limit int) ([]*models.Workout, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	workouts, err := s.Workouts.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts for user '%s': %w", userID, err)
	}
	return workouts, nil
}

func (s *workoutService) ListPersonalRecords(ctx context.Context, userID string) ([]*models.PersonalRecord, error) {
	records, err := s.PersonalRecords.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list personal records for user '%s': %w", userID, err)
	}
	return records, nil
}
