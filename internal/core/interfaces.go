package core

import (
	"context"
	"time"

	"fitcoach-backend/internal/models"
	"fitcoach-backend/internal/weights"
)

// UserService defines the interface for user-related operations.
type UserService interface {
	// GetOrCreate retrieves a user by ID. If the user doesn't exist, it creates a new one.
	GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.User, bool, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	CompleteOnboarding(ctx context.Context, userID string, req models.OnboardingRequest) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error)
	// MedicalNotes returns the decrypted onboarding medical notes.
	MedicalNotes(ctx context.Context, userID string) (string, error)
}

// WorkoutService is the active-workout logger.
type WorkoutService interface {
	StartWorkout(ctx context.Context, userID string, req models.StartWorkoutRequest) (*models.Workout, error)
	LogSet(ctx context.Context, userID, workoutID string, req models.LogSetRequest) (*models.Workout, error)
	FinishWorkout(ctx context.Context, userID, workoutID string) (*FinishResult, error)
	AbandonWorkout(ctx context.Context, userID, workoutID string) (*models.Workout, error)
	GetWorkout(ctx context.Context, userID, workoutID string) (*models.Workout, error)
	ListWorkouts(ctx context.Context, userID string, limit int) ([]*models.Workout, error)
	ListPersonalRecords(ctx context.Context, userID string) ([]*models.PersonalRecord, error)
}

// FinishResult is a completed workout with the personal records it set.
type FinishResult struct {
	Workout    *models.Workout          `json:"workout"`
	NewRecords []*models.PersonalRecord `json:"newRecords"`
}

// WeightService suggests working weights for a user.
type WeightService interface {
	SuggestWeight(ctx context.Context, userID, exerciseID string) (*WeightSuggestion, error)
}

// WeightSuggestion is a suggestion for one catalog exercise.
type WeightSuggestion struct {
	ExerciseID string         `json:"exerciseId"`
	Name       string         `json:"name"`
	WeightKg   float64        `json:"weightKg"`
	Source     weights.Source `json:"source"`
}

// RoutineService generates and serves weekly routines.
type RoutineService interface {
	GenerateRoutine(ctx context.Context, userID string, useAI bool) (*models.Routine, error)
	GetActiveRoutine(ctx context.Context, userID string) (*models.Routine, error)
	ListRoutines(ctx context.Context, userID string, limit int) ([]*models.Routine, error)
}

// NutritionService generates nutrition plans.
type NutritionService interface {
	GeneratePlan(ctx context.Context, userID string, useAI bool) (*models.NutritionPlan, error)
	GetLatestPlan(ctx context.Context, userID string) (*models.NutritionPlan, error)
}

// ProgressService maintains weekly routine completion trackers.
type ProgressService interface {
	Backfill(ctx context.Context, userID, routineID string, week time.Time) (*models.RoutineProgress, error)
	GetWeek(ctx context.Context, userID, routineID string, week time.Time) (*models.RoutineProgress, error)
}

// TrainerService covers coach profiles, codes, student links and rewards.
type TrainerService interface {
	RegisterTrainer(ctx context.Context, userID string, req models.RegisterTrainerRequest) (*models.Trainer, error)
	GetTrainer(ctx context.Context, trainerID string) (*models.Trainer, error)
	LinkStudent(ctx context.Context, studentID, code string) (*models.Trainer, error)
	UnlinkStudent(ctx context.Context, studentID string) error
	AwardPoints(ctx context.Context, trainerID string, points int, reason string) (*models.Trainer, error)
	Dashboard(ctx context.Context, trainerID string) (*models.TrainerDashboard, error)
	RegenerateCode(ctx context.Context, trainerID string) (string, error)
}

// AssignedRoutineService lets trainers prescribe routines to their students.
type AssignedRoutineService interface {
	Assign(ctx context.Context, trainerID string, req models.AssignRoutineRequest) (*models.AssignedRoutine, error)
	ListForStudent(ctx context.Context, studentID string) ([]*models.AssignedRoutine, error)
	ListForTrainer(ctx context.Context, trainerID string) ([]*models.AssignedRoutine, error)
	Delete(ctx context.Context, trainerID, assignedID string) error
}

// ChallengeService runs trainer team challenges.
type ChallengeService interface {
	Create(ctx context.Context, trainerID string, req models.CreateChallengeRequest) (*models.TeamChallenge, error)
	Join(ctx context.Context, studentID, challengeID string) (*models.TeamChallenge, error)
	// RecordWorkout credits a completed workout to every active challenge the student joined.
	RecordWorkout(ctx context.Context, studentID, trainerID string, w *models.Workout) error
	List(ctx context.Context, trainerID string) ([]*models.TeamChallenge, error)
}

// NotificationService serves in-app notifications.
type NotificationService interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID string, limit int, unreadOnly bool) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

// BillingService handles the premium paywall.
type BillingService interface {
	CreateCheckoutSession(ctx context.Context, userID string) (string, error)
	CreatePortalSession(ctx context.Context, userID string) (string, error)
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
	CreatePreference(ctx context.Context, userID string) (string, error)
	HandleMercadoPagoNotification(ctx context.Context, paymentID string) error
}
