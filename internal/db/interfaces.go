package db

import (
	"context"
	"errors"
	"time"

	"fitcoach-backend/internal/models"
)

// Transaction outcomes reported by the trainer repository.
var (
	ErrAlreadyLinked = errors.New("student already linked to a trainer")
	ErrSelfLink      = errors.New("trainer cannot link to themselves")
	ErrNotLinked     = errors.New("student is not linked to a trainer")
	ErrCodeTaken     = errors.New("coach code already in use")
	ErrAlreadyExists = errors.New("document already exists")
)

// UserRepository defines the interface for user data storage operations.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// UpdateProfile writes only the fields the user owns; billing and coach
	// fields have their own writers.
	UpdateProfile(ctx context.Context, userID string, u ProfileUpdate) error
	SetPremium(ctx context.Context, userID string, update PremiumUpdate) error
	FindByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error)
	ListByCoachID(ctx context.Context, trainerID string) ([]*models.User, error)
	SetActiveRoutine(ctx context.Context, userID, routineID string) error
}

// ProfileUpdate replaces the profile map. DisplayName is written only when set,
// and OnboardingCompleted only ever flips to true.
type ProfileUpdate struct {
	DisplayName         *string
	Profile             models.Profile
	OnboardingCompleted bool
}

// PremiumUpdate is the set of billing fields written when premium changes.
// Empty strings leave the stored value untouched.
type PremiumUpdate struct {
	IsPremium            bool
	Provider             string
	StripeCustomerID     string
	StripeSubscriptionID string
	Since                *time.Time
}

// PersonalRecordRepository stores users/{uid}/personalRecords/{exerciseId}.
type PersonalRecordRepository interface {
	Get(ctx context.Context, userID, exerciseID string) (*models.PersonalRecord, error)
	Upsert(ctx context.Context, userID string, pr *models.PersonalRecord) error
	ListByUser(ctx context.Context, userID string) ([]*models.PersonalRecord, error)
}

// WorkoutRepository stores the top-level workouts collection.
type WorkoutRepository interface {
	Create(ctx context.Context, w *models.Workout) (string, error)
	GetByID(ctx context.Context, workoutID string) (*models.Workout, error)
	// Modify reads the workout, applies fn and writes the result in one
	// transaction. An error from fn aborts the write and is returned as is.
	// fn may run more than once under contention.
	Modify(ctx context.Context, workoutID string, fn func(w *models.Workout) error) (*models.Workout, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Workout, error)
	// ListCompleted returns completed workouts started in [from, to).
	ListCompleted(ctx context.Context, userID string, from, to time.Time) ([]*models.Workout, error)
}

// LevelFunc maps reward points to a reward level name.
type LevelFunc func(points int) string

// RewardResult is a trainer after a points change, with the level it had before.
type RewardResult struct {
	Trainer       *models.Trainer
	PreviousLevel string
}

// TrainerRepository stores trainers and the coachCodes index. Counter and link
// changes run inside Firestore transactions.
type TrainerRepository interface {
	GetByID(ctx context.Context, trainerID string) (*models.Trainer, error)
	// CreateWithCode writes the trainer and its coachCodes entry atomically.
	// Returns ErrCodeTaken when the code is in use and ErrAlreadyExists when the trainer exists.
	CreateWithCode(ctx context.Context, t *models.Trainer) error
	Update(ctx context.Context, t *models.Trainer) error
	ResolveCode(ctx context.Context, code string) (string, error)
	ReplaceCode(ctx context.Context, trainerID, newCode string) error
	LinkStudent(ctx context.Context, studentID, code string, points int, level LevelFunc) (*RewardResult, error)
	UnlinkStudent(ctx context.Context, studentID string) (string, error)
	AwardPoints(ctx context.Context, trainerID string, points int, level LevelFunc) (*RewardResult, error)
}

// RoutineRepository stores users/{uid}/routines.
type RoutineRepository interface {
	Create(ctx context.Context, userID string, r *models.Routine) (string, error)
	GetByID(ctx context.Context, userID, routineID string) (*models.Routine, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Routine, error)
}

// NutritionRepository stores users/{uid}/nutritionPlans.
type NutritionRepository interface {
	Create(ctx context.Context, userID string, p *models.NutritionPlan) (string, error)
	GetLatest(ctx context.Context, userID string) (*models.NutritionPlan, error)
}

// ProgressRepository stores routineProgress documents.
type ProgressRepository interface {
	Get(ctx context.Context, id string) (*models.RoutineProgress, error)
	Upsert(ctx context.Context, p *models.RoutineProgress) error
}

// AssignedRoutineRepository stores assignedRoutines.
type AssignedRoutineRepository interface {
	Create(ctx context.Context, a *models.AssignedRoutine) (string, error)
	GetByID(ctx context.Context, id string) (*models.AssignedRoutine, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.AssignedRoutine, error)
	ListByTrainer(ctx context.Context, trainerID string) ([]*models.AssignedRoutine, error)
	Delete(ctx context.Context, id string) error
}

// ChallengeRepository stores teamChallenges.
type ChallengeRepository interface {
	Create(ctx context.Context, c *models.TeamChallenge) (string, error)
	GetByID(ctx context.Context, id string) (*models.TeamChallenge, error)
	ListByTrainer(ctx context.Context, trainerID string) ([]*models.TeamChallenge, error)
	AddParticipant(ctx context.Context, challengeID, studentID string, p models.ChallengeParticipant) error
	// AddProgress increments a participant's progress in a transaction and reports
	// whether this call completed the challenge for them.
	AddProgress(ctx context.Context, challengeID, studentID string, delta float64, at time.Time) (bool, error)
}

// NotificationRepository stores notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int, unreadOnly bool) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}
