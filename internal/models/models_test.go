package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkout_RecomputeTotals(t *testing.T) {
	w := &Workout{
		Exercises: []WorkoutExercise{
			{ExerciseID: "back_squat", Sets: []WorkoutSet{{Reps: 5, WeightKg: 100}, {Reps: 5, WeightKg: 100}}},
			{ExerciseID: "push_up", Sets: []WorkoutSet{{Reps: 20, WeightKg: 0}}},
		},
	}

	w.RecomputeTotals()

	assert.Equal(t, 1000.0, w.TotalVolume)
	assert.Equal(t, 3, w.TotalSets)
}

func TestWorkout_BestSets(t *testing.T) {
	w := &Workout{
		Exercises: []WorkoutExercise{
			{ExerciseID: "deadlift", Sets: []WorkoutSet{{Reps: 5, WeightKg: 140}, {Reps: 3, WeightKg: 150}, {Reps: 4, WeightKg: 150}}},
		},
	}

	best := w.BestSets()

	assert.Equal(t, WorkoutSet{Reps: 4, WeightKg: 150}, best["deadlift"])
}

func TestWeekStart(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC), "2026-10-19"}, // Monday
		{time.Date(2026, 10, 25, 23, 59, 0, 0, time.UTC), "2026-10-19"}, // Sunday
		{time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC), "2026-10-26"},   // Sunday across month
		{time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), "2026-12-28"},    // Friday across year
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, WeekStart(tc.in).Format(WeekStartLayout), "input %s", tc.in)
	}
}

func TestRoutineProgressID(t *testing.T) {
	assert.Equal(t, "u1_r1_2026-10-19", RoutineProgressID("u1", "r1", "2026-10-19"))
}

func TestTeamChallenge_IsActiveAt(t *testing.T) {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	c := &TeamChallenge{StartDate: start, EndDate: start.AddDate(0, 0, 30)}

	assert.True(t, c.IsActiveAt(start))
	assert.True(t, c.IsActiveAt(start.AddDate(0, 0, 30)))
	assert.False(t, c.IsActiveAt(start.Add(-time.Second)))
	assert.False(t, c.IsActiveAt(start.AddDate(0, 0, 31)))
}

func TestProfile_EquipmentSet(t *testing.T) {
	assert.Nil(t, Profile{}.EquipmentSet())
	assert.Equal(t, map[string]bool{"dumbbell": true, "band": true}, Profile{Equipment: []string{"dumbbell", "band"}}.EquipmentSet())
}
