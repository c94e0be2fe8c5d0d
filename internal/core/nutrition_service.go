package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fitcoach-backend/internal/ai"
	"fitcoach-backend/internal/cache"
	"fitcoach-backend/internal/db"
	"fitcoach-backend/internal/models"
	"fitcoach-backend/internal/planner"
)

// ErrNutritionPlanNotFound is returned when the user never generated a plan.
var ErrNutritionPlanNotFound = errors.New("nutrition plan not found")

const (
	nutritionSourceRules = "rules"
	nutritionSourceAI    = "ai"
	recipeSourceAI       = "ai"

	// recipeConcurrency bounds parallel provider calls for one plan.
	recipeConcurrency = 3
)

type nutritionService struct {
	users     db.UserRepository
	routines  db.RoutineRepository
	plans     db.NutritionRepository
	generator ai.Generator
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewNutritionService creates a new NutritionService instance. generator may be nil.
func NewNutritionService(users db.UserRepository, routines db.RoutineRepository, plans db.NutritionRepository,
	generator ai.Generator, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) NutritionService {
	if c == nil {
		c = cache.Noop{}
	}
	return &nutritionService{
		users:     users,
		routines:  routines,
		plans:     plans,
		generator: generator,
		cache:     c,
		cacheTTL:  cacheTTL,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GeneratePlan computes targets, splits them into meals, picks a recipe per meal and
// syncs the daily targets with the active routine. Any recipe the AI cannot provide
// gets the fallback recipe.
func (s *nutritionService) GeneratePlan(ctx context.Context, userID string, useAI bool) (*models.NutritionPlan, error) {
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

	p := user.Profile
	targets, energy, err := planner.NutritionTargets(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	meals := planner.SplitMeals(targets, planner.ClampMealsPerDay(p.MealsPerDay))

	aiRecipes := s.fillRecipes(ctx, meals, p.DietaryRestrictions, useAI && s.generator != nil)

	plan := &models.NutritionPlan{
		UserID:    userID,
		BMR:       energy.BMR,
		TDEE:      energy.TDEE,
		Targets:   targets,
		Meals:     meals,
		Source:    nutritionSourceRules,
		CreatedAt: s.now(),
	}
	if aiRecipes > 0 {
		plan.Source = nutritionSourceAI
	}

	var routine *models.Routine
	if user.ActiveRoutineID != "" {
		routine, err = s.routines.GetByID(ctx, userID, user.ActiveRoutineID)
		if err != nil {
			s.logger.Warn("Active routine unavailable, using flat targets", zap.String("userID", userID), zap.Error(err))
			routine = nil
		}
	}
	if routine != nil {
		plan.RoutineID = routine.ID
	}
	plan.Days = planner.SyncNutritionWithRoutine(targets, routine)

	if _, err := s.plans.Create(ctx, userID, plan); err != nil {
		return nil, fmt.Errorf("failed to store nutrition plan for user '%s': %w", userID, err)
	}
	return plan, nil
}

// fillRecipes sets a recipe on every meal and reports how many came from the AI.
func (s *nutritionService) fillRecipes(ctx context.Context, meals []models.Meal, restrictions []string, useAI bool) int {
	fromAI := make([]bool, len(meals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recipeConcurrency)
	for i := range meals {
		g.Go(func() error {
			if useAI {
				recipe, err := s.aiRecipe(gctx, meals[i], restrictions)
				if err == nil {
					meals[i].Recipe = recipe
					fromAI[i] = true
					return nil
				}
				s.logger.Warn("AI recipe failed, using fallback", zap.String("meal", meals[i].Name), zap.Error(err))
			}
			meals[i].Recipe = planner.FallbackRecipe(meals[i], restrictions)
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range fromAI {
		if ok {
			n++
		}
	}
	return n
}

func (s *nutritionService) aiRecipe(ctx context.Context, meal models.Meal, restrictions []string) (models.Recipe, error) {
	key := cache.Key("recipe", meal.Name, strconv.Itoa(meal.Targets.Calories), strconv.Itoa(meal.Targets.ProteinG),
		strconv.Itoa(meal.Targets.CarbsG), strconv.Itoa(meal.Targets.FatG), strings.Join(restrictions, ","))

	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Recipe cache read failed", zap.Error(err))
		raw = ""
	}
	fromCache := raw != ""
	if !fromCache {
		raw, err = s.generator.GenerateJSON(ctx, recipeSystemPrompt, recipePrompt(meal, restrictions))
		if err != nil {
			return models.Recipe{}, err
		}
	}

	var recipe models.Recipe
	if err := ai.DecodeJSON(raw, &recipe, "title", "ingredients"); err != nil {
		return models.Recipe{}, err
	}
	if strings.TrimSpace(recipe.Title) == "" || len(recipe.Ingredients) == 0 {
		return models.Recipe{}, fmt.Errorf("incomplete recipe: %w", ai.ErrEmptyResponse)
	}
	recipe.Source = recipeSourceAI

	if !fromCache {
		if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
			s.logger.Warn("Recipe cache write failed", zap.Error(err))
		}
	}
	return recipe, nil
}

func (s *nutritionService) GetLatestPlan(ctx context.Context, userID string) (*models.NutritionPlan, error) {
	plan, err := s.plans.GetLatest(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user '%s'", ErrNutritionPlanNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get nutrition plan for user '%s': %w", userID, err)
	}
	return plan, nil
}
