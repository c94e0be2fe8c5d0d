package db

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcoach-backend/internal/models"
)

// Runs against the Firestore emulator only (FIRESTORE_EMULATOR_HOST).
func emulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "fitcoach-test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func levelByPoints(points int) string {
	if points >= 500 {
		return "silver"
	}
	return "bronze"
}

func TestTrainerRepository_LinkAndUnlink(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	users := NewFirestoreUserRepository(client)
	trainers := NewFirestoreTrainerRepository(client)

	trainerID := "t-" + uuid.NewString()
	studentID := "s-" + uuid.NewString()
	code := uuid.NewString()[:8]

	require.NoError(t, users.Create(ctx, &models.User{ID: studentID, Email: "s@example.com"}))
	require.NoError(t, trainers.CreateWithCode(ctx, &models.Trainer{
		ID: trainerID, DisplayName: "Coach", CoachCode: code, RewardPoints: 480, RewardLevel: "bronze",
	}))

	err := trainers.CreateWithCode(ctx, &models.Trainer{ID: "other-" + uuid.NewString(), CoachCode: code})
	assert.ErrorIs(t, err, ErrCodeTaken)

	res, err := trainers.LinkStudent(ctx, studentID, code, 50, levelByPoints)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Trainer.StudentCount)
	assert.Equal(t, 530, res.Trainer.RewardPoints)
	assert.Equal(t, "bronze", res.PreviousLevel)
	assert.Equal(t, "silver", res.Trainer.RewardLevel)

	_, err = trainers.LinkStudent(ctx, studentID, code, 50, levelByPoints)
	assert.ErrorIs(t, err, ErrAlreadyLinked)

	students, err := users.ListByCoachID(ctx, trainerID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, studentID, students[0].ID)

	former, err := trainers.UnlinkStudent(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, trainerID, former)

	trainer, err := trainers.GetByID(ctx, trainerID)
	require.NoError(t, err)
	assert.Equal(t, 0, trainer.StudentCount)

	_, err = trainers.UnlinkStudent(ctx, studentID)
	assert.ErrorIs(t, err, ErrNotLinked)
}

func TestChallengeRepository_AddProgress(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	challenges := NewFirestoreChallengeRepository(client)

	now := time.Now().UTC()
	id, err := challenges.Create(ctx, &models.TeamChallenge{
		TrainerID: "t1", Title: "3 workouts", Metric: models.ChallengeMetricWorkouts, Target: 2,
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, challenges.AddParticipant(ctx, id, "s1", models.ChallengeParticipant{JoinedAt: now}))

	done, err := challenges.AddProgress(ctx, id, "s1", 1, now)
	require.NoError(t, err)
	assert.False(t, done)

	done, err = challenges.AddProgress(ctx, id, "s1", 1, now)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = challenges.AddProgress(ctx, id, "s1", 1, now)
	require.NoError(t, err)
	assert.False(t, done, "completion is reported once")

	_, err = challenges.AddProgress(ctx, id, "nobody", 1, now)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	client := emulatorClient(t)
	_, err := NewFirestoreUserRepository(client).GetByID(context.Background(), "missing-"+uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorkoutRepository_ModifyFinishesOnce(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	workouts := NewFirestoreWorkoutRepository(client)

	id, err := workouts.Create(ctx, &models.Workout{
		UserID: "u-" + uuid.NewString(), Name: "Legs", Status: models.WorkoutActive, StartedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	errClosed := errors.New("workout already closed")
	finish := func(w *models.Workout) error {
		if w.Status != models.WorkoutActive {
			return errClosed
		}
		w.Status = models.WorkoutCompleted
		return nil
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = workouts.Modify(ctx, id, finish)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, errClosed)
	}
	assert.Equal(t, 1, succeeded)

	stored, err := workouts.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.WorkoutCompleted, stored.Status)

	_, err = workouts.Modify(ctx, "missing-"+uuid.NewString(), finish)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_UpdateProfileKeepsBillingAndCoach(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	users := NewFirestoreUserRepository(client)

	id := "u-" + uuid.NewString()
	require.NoError(t, users.Create(ctx, &models.User{ID: id, Email: "u@example.com", DisplayName: "Ana"}))
	require.NoError(t, users.SetPremium(ctx, id, PremiumUpdate{IsPremium: true, Provider: "stripe", StripeSubscriptionID: "sub_1"}))
	require.NoError(t, users.SetActiveRoutine(ctx, id, "r1"))

	name := "Ana Maria"
	require.NoError(t, users.UpdateProfile(ctx, id, ProfileUpdate{
		DisplayName:         &name,
		Profile:             models.Profile{WeightKg: 61, Goal: models.GoalStrength},
		OnboardingCompleted: true,
	}))

	stored, err := users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", stored.DisplayName)
	assert.Equal(t, 61.0, stored.Profile.WeightKg)
	assert.True(t, stored.OnboardingCompleted)
	assert.True(t, stored.IsPremium)
	assert.Equal(t, "sub_1", stored.StripeSubscriptionID)
	assert.Equal(t, "r1", stored.ActiveRoutineID)

	err = users.UpdateProfile(ctx, "missing-"+uuid.NewString(), ProfileUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}
