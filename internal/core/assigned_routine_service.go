package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"fitcoach-backend/internal/catalog"
	"fitcoach-backend/internal/db"
	"fitcoach-backend/internal/events"
	"fitcoach-backend/internal/models"
	"fitcoach-backend/internal/planner"
)

var (
	ErrNotStudentOfTrainer     = errors.New("user is not a student of this trainer")
	ErrAssignedRoutineNotFound = errors.New("assigned routine not found")
)

type assignedRoutineService struct {
	assigned  db.AssignedRoutineRepository
	trainers  db.TrainerRepository
	users     db.UserRepository
	records   db.PersonalRecordRepository
	catalog   *catalog.Catalog
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewAssignedRoutineService creates a new AssignedRoutineService instance.
func NewAssignedRoutineService(assigned db.AssignedRoutineRepository, trainers db.TrainerRepository, users db.UserRepository,
	records db.PersonalRecordRepository, cat *catalog.Catalog, publisher events.Publisher, logger *zap.Logger) AssignedRoutineService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &assignedRoutineService{
		assigned:  assigned,
		trainers:  trainers,
		users:     users,
		records:   records,
		catalog:   cat,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Assign prescribes a routine to one of the trainer's students. Exercises must exist
// in the catalog; weights come from the student's records, then their profile.
func (s *assignedRoutineService) Assign(ctx context.Context, trainerID string, req models.AssignRoutineRequest) (*models.AssignedRoutine, error) {
	if _, err := s.trainers.GetByID(ctx, trainerID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTrainerNotFound, trainerID)
		}
		return nil, fmt.Errorf("failed to get trainer '%s': %w", trainerID, err)
	}
	student, err := s.users.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, req.StudentID)
		}
		return nil, fmt.Errorf("failed to get student '%s': %w", req.StudentID, err)
	}
	if student.CoachID != trainerID {
		return nil, ErrNotStudentOfTrainer
	}

	for _, d := range req.Days {
		for _, ex := range d.Exercises {
			if _, err := s.catalog.Get(ex.ExerciseID); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrUnknownExercise, ex.ExerciseID)
			}
		}
	}
	routine, err := planner.NormalizeRoutine(models.Routine{Name: req.Name, Days: req.Days}, planner.RoutineInput{
		Profile: student.Profile,
		Catalog: s.catalog,
		Weight:  recordWeightFunc(ctx, s.records, student.ID, student.Profile, s.logger),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoutineGeneration, err)
	}

	now := s.now()
	a := &models.AssignedRoutine{
		TrainerID:  trainerID,
		StudentID:  student.ID,
		Name:       strings.TrimSpace(req.Name),
		Notes:      req.Notes,
		Days:       routine.Days,
		AssignedAt: now,
		UpdatedAt:  now,
	}
	if _, err := s.assigned.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to assign routine: %w", err)
	}

	if err := s.publisher.Publish(ctx, events.New(events.RoutineAssigned, student.ID, trainerID, map[string]string{
		"assignedRoutineId": a.ID,
		"routineName":       a.Name,
	})); err != nil {
		s.logger.Warn("Failed to publish routine assignment", zap.String("id", a.ID), zap.Error(err))
	}
	return a, nil
}

func (s *assignedRoutineService) ListForStudent(ctx context.Context, studentID string) ([]*models.AssignedRoutine, error) {
	list, err := s.assigned.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned routines for student '%s': %w", studentID, err)
	}
	return list, nil
}

func (s *assignedRoutineService) ListForTrainer(ctx context.Context, trainerID string) ([]*models.AssignedRoutine, error) {
	list, err := s.assigned.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned routines for trainer '%s': %w", trainerID, err)
	}
	return list, nil
}

// Delete removes an assignment. Assignments of other trainers read as not found.
func (s *assignedRoutineService) Delete(ctx context.Context, trainerID, assignedID string) error {
	a, err := s.assigned.GetByID(ctx, assignedID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrAssignedRoutineNotFound, assignedID)
		}
		return fmt.Errorf("failed to get assigned routine '%s': %w", assignedID, err)
	}
	if a.TrainerID != trainerID {
		return fmt.Errorf("%w: %s", ErrAssignedRoutineNotFound, assignedID)
	}
	if err := s.assigned.Delete(ctx, assignedID); err != nil {
		return fmt.Errorf("failed to delete assigned routine '%s': %w", assignedID, err)
	}
	return nil
}
