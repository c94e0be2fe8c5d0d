package core

import (
	"context"
	"encoding/base64"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fitcoach-backend/internal/catalog"
	"fitcoach-backend/internal/crypto"
	"fitcoach-backend/internal/db"
	"fitcoach-backend/internal/models"
	"fitcoach-backend/internal/weights"
)

func testCipher(t *testing.T) *crypto.FieldCipher {
	t.Helper()
	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	c, err := crypto.NewFieldCipher(key)
	require.NoError(t, err)
	return c
}

func TestUserService_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers()
	svc := NewUserService(users, testCipher(t), zap.NewNop())

	user, created, err := svc.GetOrCreate(ctx, "u1", "a@example.com", "Ana", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "a@example.com", user.Email)
	assert.False(t, user.OnboardingCompleted)

	again, created, err := svc.GetOrCreate(ctx, "u1", "other@example.com", "Other", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "a@example.com", again.Email)

	_, err = svc.GetByID(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_OnboardingEncryptsMedicalNotes(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers(&models.User{ID: "u1"})
	svc := NewUserService(users, testCipher(t), zap.NewNop())

	req := models.OnboardingRequest{
		Gender: "female", Age: 28, HeightCm: 165, WeightKg: 60,
		Goal: models.GoalStrength, Experience: "beginner", ActivityLevel: "light",
		DaysPerWeek: 9, MealsPerDay: 1,
		Benchmarks:   map[string]float64{"squat": 80, "bench_press": 0},
		MedicalNotes: "knee surgery 2019",
	}
	user, err := svc.CompleteOnboarding(ctx, "u1", req)
	require.NoError(t, err)

	assert.True(t, user.OnboardingCompleted)
	assert.Equal(t, 7, user.Profile.DaysPerWeek)
	assert.Equal(t, 3, user.Profile.MealsPerDay)
	assert.Equal(t, map[string]float64{"squat": 80}, user.Profile.Benchmarks)

	stored := users.get("u1")
	assert.NotEmpty(t, stored.Profile.MedicalNotesEncrypted)
	assert.NotContains(t, stored.Profile.MedicalNotesEncrypted, "knee")

	notes, err := svc.MedicalNotes(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "knee surgery 2019", notes)

	req.ActivityLevel = "couch"
	_, err = svc.CompleteOnboarding(ctx, "u1", req)
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	u := onboardedUser("u1")
	u.IsPremium = true
	users := newFakeUsers(u)
	svc := NewUserService(users, testCipher(t), zap.NewNop())

	weight := 82.5
	days := 5
	user, err := svc.UpdateProfile(ctx, "u1", models.UpdateProfileRequest{WeightKg: &weight, DaysPerWeek: &days})
	require.NoError(t, err)
	assert.Equal(t, 82.5, user.Profile.WeightKg)
	assert.Equal(t, 5, user.Profile.DaysPerWeek)
	assert.Equal(t, models.GoalGainMuscle, user.Profile.Goal)
	assert.True(t, users.get("u1").IsPremium)

	bad := -1.0
	_, err = svc.UpdateProfile(ctx, "u1", models.UpdateProfileRequest{WeightKg: &bad})
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

// concurrentWriterUsers activates premium and links a coach right after the
// first read, the way a webhook or a link request racing a profile edit would.
type concurrentWriterUsers struct {
	*fakeUsers
	once sync.Once
}

func (u *concurrentWriterUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := u.fakeUsers.GetByID(ctx, id)
	u.once.Do(func() {
		_ = u.fakeUsers.SetPremium(ctx, id, db.PremiumUpdate{IsPremium: true, Provider: ProviderStripe})
		u.fakeUsers.setCoach(id, "coach")
	})
	return user, err
}

func TestUserService_ProfileWritesKeepBillingAndCoach(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		write func(svc UserService) error
	}{
		{
			name: "update profile",
			write: func(svc UserService) error {
				name := "Renamed"
				_, err := svc.UpdateProfile(ctx, "u1", models.UpdateProfileRequest{DisplayName: &name})
				return err
			},
		},
		{
			name: "complete onboarding",
			write: func(svc UserService) error {
				_, err := svc.CompleteOnboarding(ctx, "u1", models.OnboardingRequest{
					Gender: "male", Age: 30, HeightCm: 180, WeightKg: 80,
					Goal: models.GoalStrength, Experience: "beginner", ActivityLevel: "moderate", DaysPerWeek: 3,
				})
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &concurrentWriterUsers{fakeUsers: newFakeUsers(&models.User{ID: "u1", DisplayName: "Ana"})}
			svc := NewUserService(users, testCipher(t), zap.NewNop())

			require.NoError(t, tt.write(svc))

			stored := users.get("u1")
			assert.True(t, stored.IsPremium)
			assert.Equal(t, ProviderStripe, stored.PremiumProvider)
			assert.Equal(t, "coach", stored.CoachID)
		})
	}
}

func TestWeightService_SuggestWeight(t *testing.T) {
	ctx := context.Background()
	u := onboardedUser("u1")
	u.Profile.Benchmarks = map[string]float64{"bench_press": 100}
	users := newFakeUsers(u)
	records := newFakeRecords()
	svc := NewWeightService(users, records, catalog.MustLoad(), zap.NewNop())

	s, err := svc.SuggestWeight(ctx, "u1", "push_up")
	require.NoError(t, err)
	assert.Equal(t, weights.SourceBodyweight, s.Source)
	assert.Zero(t, s.WeightKg)

	s, err = svc.SuggestWeight(ctx, "u1", "barbell_bench_press")
	require.NoError(t, err)
	assert.Equal(t, weights.SourceBenchmark, s.Source)

	require.NoError(t, records.Upsert(ctx, "u1", &models.PersonalRecord{ExerciseID: "barbell_bench_press", WeightKg: 90, Reps: 5}))
	s, err = svc.SuggestWeight(ctx, "u1", "barbell_bench_press")
	require.NoError(t, err)
	assert.Equal(t, weights.SourceHistory, s.Source)
	assert.Zero(t, math.Mod(s.WeightKg, 2.5))

	_, err = svc.SuggestWeight(ctx, "u1", "moon_press")
	assert.ErrorIs(t, err, ErrUnknownExercise)
}
