package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fitcoach-backend/internal/ai"
	"fitcoach-backend/internal/cache"
	"fitcoach-backend/internal/catalog"
	"fitcoach-backend/internal/db"
	"fitcoach-backend/internal/models"
	"fitcoach-backend/internal/planner"
	"fitcoach-backend/internal/weights"
)

var (
	ErrPremiumRequired   = errors.New("premium subscription required")
	ErrAIQuotaExceeded   = errors.New("AI quota exceeded, try again later")
	ErrNoActiveRoutine   = errors.New("user has no active routine")
	ErrRoutineGeneration = errors.New("failed to generate routine")
)

type routineService struct {
	users     db.UserRepository
	routines  db.RoutineRepository
	records   db.PersonalRecordRepository
	catalog   *catalog.Catalog
	generator ai.Generator
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewRoutineService creates a new RoutineService instance. generator may be nil when
// no AI provider is configured; c may be cache.Noop{}.
func NewRoutineService(users db.UserRepository, routines db.RoutineRepository, records db.PersonalRecordRepository,
	cat *catalog.Catalog, generator ai.Generator, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) RoutineService {
	if c == nil {
		c = cache.Noop{}
	}
	return &routineService{
		users:     users,
		routines:  routines,
		records:   records,
		catalog:   cat,
		generator: generator,
		cache:     c,
		cacheTTL:  cacheTTL,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GenerateRoutine builds a routine, stores it and makes it the user's active routine.
// AI output that is missing or unusable falls back to the rule engine; an exhausted
// AI quota is reported to the caller instead.
func (s *routineService) GenerateRoutine(ctx context.Context, userID string, useAI bool) (*models.Routine, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", userID, err)
	}
	if !user.OnboardingCompleted {
		return nil, ErrOnboardingRequired
	}
	if useAI && !user.IsPremium {
		return nil, ErrPremiumRequired
	}

	in := planner.RoutineInput{
		Profile: user.Profile,
		Catalog: s.catalog,
		Weight:  recordWeightFunc(ctx, s.records, userID, user.Profile, s.logger),
	}

	var routine models.Routine
	generated := false
	if useAI {
		routine, err = s.generateWithAI(ctx, user, in)
		switch {
		case err == nil:
			generated = true
		case errors.Is(err, ai.ErrQuotaExceeded):
			return nil, fmt.Errorf("%w: %v", ErrAIQuotaExceeded, err)
		default:
			s.logger.Warn("AI routine generation failed, using rule engine", zap.String("userID", userID), zap.Error(err))
		}
	}
	if !generated {
		routine, err = planner.GenerateRoutine(in)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRoutineGeneration, err)
		}
	}
	routine.CreatedAt = s.now()

	if _, err := s.routines.Create(ctx, userID, &routine); err != nil {
		return nil, fmt.Errorf("failed to store routine for user '%s': %w", userID, err)
	}
	if err := s.users.SetActiveRoutine(ctx, userID, routine.ID); err != nil {
		return nil, fmt.Errorf("failed to activate routine '%s': %w", routine.ID, err)
	}
	return &routine, nil
}

// generateWithAI asks the provider chain for a routine. Raw responses that normalize
// cleanly are cached by request hash.
func (s *routineService) generateWithAI(ctx context.Context, user *models.User, in planner.RoutineInput) (models.Routine, error) {
	if s.generator == nil {
		return models.Routine{}, ai.ErrNotConfigured
	}

	key, err := routineCacheKey(user.Profile)
	if err != nil {
		return models.Routine{}, err
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Routine cache read failed", zap.Error(err))
		raw = ""
	}
	fromCache := raw != ""
	if !fromCache {
		raw, err = s.generator.GenerateJSON(ctx, routineSystemPrompt, routinePrompt(user.Profile, s.catalog))
		if err != nil {
			return models.Routine{}, err
		}
	}

	var draft models.Routine
	if err := ai.DecodeJSON(raw, &draft, "days"); err != nil {
		return models.Routine{}, fmt.Errorf("decode AI routine: %w", err)
	}
	routine, err := planner.NormalizeRoutine(draft, in)
	if err != nil {
		return models.Routine{}, err
	}
	routine.Source = models.RoutineSourceAI

	if !fromCache {
		if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
			s.logger.Warn("Routine cache write failed", zap.Error(err))
		}
	}
	return routine, nil
}

// routineCacheKey hashes the profile fields the prompt depends on.
func routineCacheKey(p models.Profile) (string, error) {
	b, err := json.Marshal(struct {
		Gender      string   `json:"g"`
		Age         int      `json:"a"`
		WeightKg    float64  `json:"w"`
		Goal        string   `json:"goal"`
		Experience  string   `json:"x"`
		DaysPerWeek int      `json:"d"`
		Equipment   []string `json:"e"`
	}{p.Gender, p.Age, p.WeightKg, p.Goal, p.Experience, p.DaysPerWeek, p.Equipment})
	if err != nil {
		return "", err
	}
	return cache.Key("routine", string(b)), nil
}

// recordWeightFunc prefers the user's personal records over the profile estimate.
func recordWeightFunc(ctx context.Context, records db.PersonalRecordRepository, userID string, p models.Profile, logger *zap.Logger) planner.WeightFunc {
	prs := make(map[string]float64)
	list, err := records.ListByUser(ctx, userID)
	if err != nil {
		logger.Warn("Failed to load personal records for routine weights", zap.String("userID", userID), zap.Error(err))
	}
	for _, pr := range list {
		prs[pr.ExerciseID] = pr.WeightKg
	}
	return func(ex catalog.Exercise) weights.Suggestion {
		return weights.CalculateSmartWeightSync(weights.Input{
			BodyWeightKg:     p.WeightKg,
			Gender:           p.Gender,
			Experience:       p.Experience,
			MuscleGroup:      ex.MuscleGroup,
			Equipment:        ex.Equipment,
			Technique:        ex.Technique,
			Benchmarks:       p.Benchmarks,
			ExerciseRatio:    ex.Ratio,
			PersonalRecordKg: prs[ex.ID],
		})
	}
}

func (s *routineService) GetActiveRoutine(ctx context.Context, userID string) (*models.Routine, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", userID, err)
	}
	if user.ActiveRoutineID == "" {
		return nil, ErrNoActiveRoutine
	}
	routine, err := s.routines.GetByID(ctx, userID, user.ActiveRoutineID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: routine '%s'", ErrRoutineNotFound, user.ActiveRoutineID)
		}
		return nil, fmt.Errorf("failed to get routine '%s': %w", user.ActiveRoutineID, err)
	}
	return routine, nil
}

func (s *routineService) ListRoutines(ctx context.Context, userID string, limit int) ([]*models.Routine, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	routines, err := s.routines.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list routines for user '%s': %w", userID, err)
	}
	return routines, nil
}
