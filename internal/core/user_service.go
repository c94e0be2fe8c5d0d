package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fitcoach-backend/internal/crypto"
	"fitcoach-backend/internal/db"
	"fitcoach-backend/internal/models"
	"fitcoach-backend/internal/planner"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidProfile     = errors.New("invalid profile data")
	ErrOnboardingRequired = errors.New("onboarding not completed")
	ErrEncryptionFailed   = errors.New("failed to encrypt sensitive profile data")
)

// userService implements the UserService interface.
type userService struct {
	userRepo db.UserRepository
	cipher   *crypto.FieldCipher
	logger   *zap.Logger
	now      func() time.Time
}

// NewUserService creates a new UserService instance.
func NewUserService(userRepo db.UserRepository, cipher *crypto.FieldCipher, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		cipher:   cipher,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreate retrieves a user by ID, creating it from the token claims on first sight.
// Returns the user, whether it was created, and an error if any.
func (s *userService) GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.User, bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to get user by ID '%s' from repository: %w", userID, err)
	}

	now := s.now()
	newUser := &models.User{
		ID:          userID,
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		// Two first requests can race; the loser reads the winner's document.
		if errors.Is(err, db.ErrAlreadyExists) {
			existing, getErr := s.userRepo.GetByID(ctx, userID)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to get user '%s' after concurrent create: %w", userID, getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user (id: %s) after not found: %w", userID, err)
	}
	s.logger.Info("Created user on first login", zap.String("userID", userID))
	return newUser, true, nil
}

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user by ID '%s' from repository: %w", userID, err)
	}
	return user, nil
}

// CompleteOnboarding stores the onboarding answers. Medical notes are encrypted
// before they reach Firestore.
func (s *userService) CompleteOnboarding(ctx context.Context, userID string, req models.OnboardingRequest) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !planner.IsValidActivityLevel(req.ActivityLevel) {
		return nil, fmt.Errorf("%w: unknown activity level '%s'", ErrInvalidProfile, req.ActivityLevel)
	}

	encrypted, err := s.cipher.Encrypt(req.MedicalNotes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	mealsPerDay := req.MealsPerDay
	if mealsPerDay != 0 {
		mealsPerDay = planner.ClampMealsPerDay(mealsPerDay)
	}

	user.Profile = models.Profile{
		Gender:                req.Gender,
		Age:                   req.Age,
		HeightCm:              req.HeightCm,
		WeightKg:              req.WeightKg,
		Goal:                  req.Goal,
		Experience:            req.Experience,
		ActivityLevel:         req.ActivityLevel,
		DaysPerWeek:           planner.ClampDaysPerWeek(req.DaysPerWeek),
		Equipment:             req.Equipment,
		Benchmarks:            positiveBenchmarks(req.Benchmarks),
		MealsPerDay:           mealsPerDay,
		DietaryRestrictions:   req.DietaryRestrictions,
		MedicalNotesEncrypted: encrypted,
	}
	user.OnboardingCompleted = true
	user.UpdatedAt = s.now()

	update := db.ProfileUpdate{Profile: user.Profile, OnboardingCompleted: true}
	if err := s.userRepo.UpdateProfile(ctx, userID, update); err != nil {
		return nil, fmt.Errorf("failed to save onboarding for user '%s': %w", userID, err)
	}
	return user, nil
}

// UpdateProfile applies the fields present in req. Billing fields are never touched here.
func (s *userService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.WeightKg != nil {
		if *req.WeightKg <= 0 {
			return nil, fmt.Errorf("%w: weight must be positive", ErrInvalidProfile)
		}
		user.Profile.WeightKg = *req.WeightKg
	}
	if req.Goal != nil {
		user.Profile.Goal = *req.Goal
	}
	if req.Experience != nil {
		user.Profile.Experience = *req.Experience
	}
	if req.ActivityLevel != nil {
		if !planner.IsValidActivityLevel(*req.ActivityLevel) {
			return nil, fmt.Errorf("%w: unknown activity level '%s'", ErrInvalidProfile, *req.ActivityLevel)
		}
		user.Profile.ActivityLevel = *req.ActivityLevel
	}
	if req.DaysPerWeek != nil {
		user.Profile.DaysPerWeek = planner.ClampDaysPerWeek(*req.DaysPerWeek)
	}
	if req.Equipment != nil {
		user.Profile.Equipment = *req.Equipment
	}
	if req.Benchmarks != nil {
		user.Profile.Benchmarks = positiveBenchmarks(*req.Benchmarks)
	}
	if req.MealsPerDay != nil {
		user.Profile.MealsPerDay = planner.ClampMealsPerDay(*req.MealsPerDay)
	}
	user.UpdatedAt = s.now()

	update := db.ProfileUpdate{DisplayName: req.DisplayName, Profile: user.Profile}
	if err := s.userRepo.UpdateProfile(ctx, userID, update); err != nil {
		return nil, fmt.Errorf("failed to update profile for user '%s': %w", userID, err)
	}
	return user, nil
}

func (s *userService) MedicalNotes(ctx context.Context, userID string) (string, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	notes, err := s.cipher.Decrypt(user.Profile.MedicalNotesEncrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt medical notes for user '%s': %w", userID, err)
	}
	return notes, nil
}

// positiveBenchmarks drops zero and negative entries so they never override the estimate.
func positiveBenchmarks(in map[string]float64) map[string]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if v > 0 {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
