package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fitcoach-backend/internal/models"
)

const aiRecipeJSON = `{"title":"Chicken rice bowl","ingredients":["150 g chicken","100 g rice"],"instructions":["Cook","Serve"]}`

func TestNutritionService_FallbackRecipes(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers(onboardedUser("u1"))
	plans := &fakePlans{}
	svc := NewNutritionService(users, newFakeRoutines(), plans, nil, nil, time.Hour, zap.NewNop())

	plan, err := svc.GeneratePlan(ctx, "u1", false)
	require.NoError(t, err)

	assert.Equal(t, "rules", plan.Source)
	assert.Greater(t, plan.TDEE, plan.BMR)
	require.Len(t, plan.Meals, 4)
	for _, m := range plan.Meals {
		assert.Equal(t, "fallback", m.Recipe.Source, m.Name)
		assert.NotEmpty(t, m.Recipe.Title)
	}
	assert.Len(t, plan.Days, 7)
	assert.Empty(t, plan.RoutineID)

	latest, err := svc.GetLatestPlan(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, plan.ID, latest.ID)
}

func TestNutritionService_SyncsWithActiveRoutine(t *testing.T) {
	ctx := context.Background()
	user := onboardedUser("u1")
	routines := newFakeRoutines()
	routineID, err := routines.Create(ctx, "u1", &models.Routine{Days: []models.RoutineDay{
		{Weekday: time.Monday}, {Weekday: time.Wednesday}, {Weekday: time.Friday},
	}})
	require.NoError(t, err)
	user.ActiveRoutineID = routineID

	svc := NewNutritionService(newFakeUsers(user), routines, &fakePlans{}, nil, nil, time.Hour, zap.NewNop())
	plan, err := svc.GeneratePlan(ctx, "u1", false)
	require.NoError(t, err)

	assert.Equal(t, routineID, plan.RoutineID)
	training := 0
	for _, d := range plan.Days {
		if d.TrainingDay {
			training++
		}
	}
	assert.Equal(t, 3, training)
}

func TestNutritionService_AIRecipes(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers(premiumUser("p1"))
	gen := &scriptedGenerator{response: aiRecipeJSON}
	c := newMemCache()
	svc := NewNutritionService(users, newFakeRoutines(), &fakePlans{}, gen, c, time.Hour, zap.NewNop())

	plan, err := svc.GeneratePlan(ctx, "p1", true)
	require.NoError(t, err)

	assert.Equal(t, "ai", plan.Source)
	for _, m := range plan.Meals {
		assert.Equal(t, "Chicken rice bowl", m.Recipe.Title)
		assert.Equal(t, "ai", m.Recipe.Source)
	}
	assert.Len(t, c.items, len(plan.Meals))
}

func TestNutritionService_AIErrorsFallBackPerMeal(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers(premiumUser("p1"), onboardedUser("free"))
	gen := &scriptedGenerator{err: errors.New("upstream timeout")}
	svc := NewNutritionService(users, newFakeRoutines(), &fakePlans{}, gen, nil, time.Hour, zap.NewNop())

	plan, err := svc.GeneratePlan(ctx, "p1", true)
	require.NoError(t, err)
	assert.Equal(t, "rules", plan.Source)
	for _, m := range plan.Meals {
		assert.Equal(t, "fallback", m.Recipe.Source)
	}

	_, err = svc.GeneratePlan(ctx, "free", true)
	assert.ErrorIs(t, err, ErrPremiumRequired)

	_, err = svc.GetLatestPlan(ctx, "free")
	assert.ErrorIs(t, err, ErrNutritionPlanNotFound)
}
