package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"fitcoach-backend/internal/catalog"
	"fitcoach-backend/internal/db"
	"fitcoach-backend/internal/weights"
)

type weightService struct {
	users   db.UserRepository
	records db.PersonalRecordRepository
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewWeightService creates a new WeightService instance.
func NewWeightService(users db.UserRepository, records db.PersonalRecordRepository, cat *catalog.Catalog, logger *zap.Logger) WeightService {
	return &weightService{users: users, records: records, catalog: cat, logger: logger}
}

// SuggestWeight loads the profile, the personal record and the catalog entry and
// runs the suggestion formula. A failed record lookup degrades to the profile path.
func (s *weightService) SuggestWeight(ctx context.Context, userID, exerciseID string) (*WeightSuggestion, error) {
	ex, err := s.catalog.Get(exerciseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownExercise, exerciseID)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", userID, err)
	}

	prKg := 0.0
	pr, err := s.records.Get(ctx, userID, exerciseID)
	switch {
	case err == nil:
		prKg = pr.WeightKg
	case !errors.Is(err, db.ErrNotFound):
		s.logger.Warn("Failed to load personal record, using profile estimate",
			zap.String("userID", userID), zap.String("exerciseID", exerciseID), zap.Error(err))
	}

	p := user.Profile
	suggestion := weights.CalculateSmartWeightSync(weights.Input{
		BodyWeightKg:     p.WeightKg,
		Gender:           p.Gender,
		Experience:       p.Experience,
		MuscleGroup:      ex.MuscleGroup,
		Equipment:        ex.Equipment,
		Technique:        ex.Technique,
		Benchmarks:       p.Benchmarks,
		ExerciseRatio:    ex.Ratio,
		PersonalRecordKg: prKg,
	})
	return &WeightSuggestion{
		ExerciseID: ex.ID,
		Name:       ex.Name,
		WeightKg:   suggestion.WeightKg,
		Source:     suggestion.Source,
	}, nil
}
