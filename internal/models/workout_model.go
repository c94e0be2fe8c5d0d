package models

import "time"

// WorkoutStatus tracks a logging session.
type WorkoutStatus string

const (
	WorkoutActive    WorkoutStatus = "active"
	WorkoutCompleted WorkoutStatus = "completed"
	WorkoutAbandoned WorkoutStatus = "abandoned"
)

// Workout is a logging session stored in the top-level workouts collection.
type Workout struct {
	ID              string            `json:"id" firestore:"-"`
	UserID          string            `json:"userId" firestore:"userId"`
	RoutineID       string            `json:"routineId,omitempty" firestore:"routineId,omitempty"`
	DayIndex        int               `json:"dayIndex" firestore:"dayIndex"`
	Name            string            `json:"name" firestore:"name"`
	Status          WorkoutStatus     `json:"status" firestore:"status"`
	Exercises       []WorkoutExercise `json:"exercises" firestore:"exercises"`
	TotalVolume     float64           `json:"totalVolume" firestore:"totalVolume"`
	TotalSets       int               `json:"totalSets" firestore:"totalSets"`
	StartedAt       time.Time         `json:"startedAt" firestore:"startedAt"`
	FinishedAt      *time.Time        `json:"finishedAt,omitempty" firestore:"finishedAt,omitempty"`
	DurationSeconds int               `json:"durationSeconds,omitempty" firestore:"durationSeconds,omitempty"`
	CreatedAt       time.Time         `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt       time.Time         `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// WorkoutExercise groups the sets logged for one exercise.
type WorkoutExercise struct {
	ExerciseID string       `json:"exerciseId" firestore:"exerciseId"`
	Name       string       `json:"name" firestore:"name"`
	Sets       []WorkoutSet `json:"sets" firestore:"sets"`
}

// WorkoutSet is a single logged set.
type WorkoutSet struct {
	Reps     int       `json:"reps" firestore:"reps"`
	WeightKg float64   `json:"weightKg" firestore:"weightKg"`
	LoggedAt time.Time `json:"loggedAt" firestore:"loggedAt"`
}

// RecomputeTotals refreshes TotalVolume and TotalSets from the logged sets.
func (w *Workout) RecomputeTotals() {
	volume := 0.0
	sets := 0
	for _, ex := range w.Exercises {
		for _, s := range ex.Sets {
			volume += float64(s.Reps) * s.WeightKg
			sets++
		}
	}
	w.TotalVolume = volume
	w.TotalSets = sets
}

// BestSets returns, per exercise, the heaviest set logged in this workout.
// Ties on weight are broken by reps.
func (w *Workout) BestSets() map[string]WorkoutSet {
	best := make(map[string]WorkoutSet)
	for _, ex := range w.Exercises {
		for _, s := range ex.Sets {
			cur, ok := best[ex.ExerciseID]
			if !ok || s.WeightKg > cur.WeightKg || (s.WeightKg == cur.WeightKg && s.Reps > cur.Reps) {
				best[ex.ExerciseID] = s
			}
		}
	}
	return best
}
