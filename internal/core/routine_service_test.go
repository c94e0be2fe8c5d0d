package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fitcoach-backend/internal/ai"
	"fitcoach-backend/internal/catalog"
	"fitcoach-backend/internal/models"
)

const aiRoutineJSON = "```json\n" + `{"name":"AI Upper/Lower","days":[
{"name":"Upper","exercises":[{"exerciseId":"barbell_bench_press","sets":4,"reps":6,"restSeconds":120},{"exerciseId":"made_up_lift","sets":3,"reps":10}]},
{"name":"Lower","exercises":[{"exerciseId":"back_squat","sets":5,"reps":5,"restSeconds":180}]}]}` + "\n```"

func newRoutineFixture(users *fakeUsers, gen ai.Generator, c *memCache) (RoutineService, *fakeRoutines, *fakeRecords) {
	routines := newFakeRoutines()
	records := newFakeRecords()
	var svc RoutineService
	if c == nil {
		svc = NewRoutineService(users, routines, records, catalog.MustLoad(), gen, nil, time.Hour, zap.NewNop())
	} else {
		svc = NewRoutineService(users, routines, records, catalog.MustLoad(), gen, c, time.Hour, zap.NewNop())
	}
	return svc, routines, records
}

func premiumUser(id string) *models.User {
	u := onboardedUser(id)
	u.IsPremium = true
	return u
}

func TestRoutineService_RuleEngine(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers(onboardedUser("u1"))
	svc, _, records := newRoutineFixture(users, nil, nil)
	require.NoError(t, records.Upsert(ctx, "u1", &models.PersonalRecord{ExerciseID: "back_squat", WeightKg: 140, Reps: 5}))

	routine, err := svc.GenerateRoutine(ctx, "u1", false)
	require.NoError(t, err)

	assert.Equal(t, models.RoutineSourceRules, routine.Source)
	assert.Len(t, routine.Days, 3)
	assert.Equal(t, routine.ID, users.get("u1").ActiveRoutineID)

	active, err := svc.GetActiveRoutine(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, routine.ID, active.ID)
}

func TestRoutineService_Gates(t *testing.T) {
	ctx := context.Background()
	fresh := &models.User{ID: "new"}
	users := newFakeUsers(onboardedUser("free"), fresh)
	svc, _, _ := newRoutineFixture(users, &scriptedGenerator{response: aiRoutineJSON}, nil)

	_, err := svc.GenerateRoutine(ctx, "new", false)
	assert.ErrorIs(t, err, ErrOnboardingRequired)

	_, err = svc.GenerateRoutine(ctx, "free", true)
	assert.ErrorIs(t, err, ErrPremiumRequired)

	_, err = svc.GenerateRoutine(ctx, "ghost", false)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.GetActiveRoutine(ctx, "free")
	assert.ErrorIs(t, err, ErrNoActiveRoutine)
}

func TestRoutineService_AIRoutineIsNormalizedAndCached(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers(premiumUser("p1"))
	gen := &scriptedGenerator{response: aiRoutineJSON}
	c := newMemCache()
	svc, _, _ := newRoutineFixture(users, gen, c)

	routine, err := svc.GenerateRoutine(ctx, "p1", true)
	require.NoError(t, err)

	assert.Equal(t, models.RoutineSourceAI, routine.Source)
	assert.Equal(t, "AI Upper/Lower", routine.Name)
	require.Len(t, routine.Days, 2)
	require.Len(t, routine.Days[0].Exercises, 1, "unknown exercises are dropped")
	assert.Equal(t, 4, routine.Days[0].Exercises[0].Sets)
	assert.Equal(t, "Barbell Bench Press", routine.Days[0].Exercises[0].Name)
	assert.Len(t, c.items, 1)

	_, err = svc.GenerateRoutine(ctx, "p1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, gen.callCount(), "second request is served from cache")
}

func TestRoutineService_AIFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers(premiumUser("p1"))
	c := newMemCache()
	svc, _, _ := newRoutineFixture(users, &scriptedGenerator{response: "I cannot help with that"}, c)

	routine, err := svc.GenerateRoutine(ctx, "p1", true)
	require.NoError(t, err)
	assert.Equal(t, models.RoutineSourceRules, routine.Source)
	assert.Empty(t, c.items, "unusable output is not cached")

	svc, _, _ = newRoutineFixture(users, nil, nil)
	routine, err = svc.GenerateRoutine(ctx, "p1", true)
	require.NoError(t, err)
	assert.Equal(t, models.RoutineSourceRules, routine.Source)
}

func TestRoutineService_AIQuotaIsReported(t *testing.T) {
	users := newFakeUsers(premiumUser("p1"))
	gen := &scriptedGenerator{err: fmt.Errorf("gemini: %w", ai.ErrQuotaExceeded)}
	svc, routines, _ := newRoutineFixture(users, gen, nil)

	_, err := svc.GenerateRoutine(context.Background(), "p1", true)
	assert.True(t, errors.Is(err, ErrAIQuotaExceeded))
	assert.Empty(t, routines.routines)
}
