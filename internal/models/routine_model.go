package models

import "time"

// Where a routine came from.
const (
	RoutineSourceRules   = "rules"
	RoutineSourceAI      = "ai"
	RoutineSourceTrainer = "trainer"
)

// Routine is a weekly training plan stored at users/{uid}/routines/{id}.
type Routine struct {
	ID          string       `json:"id" firestore:"-"`
	UserID      string       `json:"userId" firestore:"userId"`
	Name        string       `json:"name" firestore:"name"`
	Source      string       `json:"source" firestore:"source"`
	Goal        string       `json:"goal" firestore:"goal"`
	Split       string       `json:"split" firestore:"split"`
	DaysPerWeek int          `json:"daysPerWeek" firestore:"daysPerWeek"`
	Days        []RoutineDay `json:"days" firestore:"days"`
	CreatedAt   time.Time    `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

// RoutineDay is one training day of a routine.
type RoutineDay struct {
	Index        int               `json:"index" firestore:"index"`
	Name         string            `json:"name" firestore:"name"`
	Weekday      time.Weekday      `json:"weekday" firestore:"weekday"`
	MuscleGroups []string          `json:"muscleGroups" firestore:"muscleGroups"`
	Exercises    []RoutineExercise `json:"exercises" firestore:"exercises"`
}

// RoutineExercise is a prescribed exercise with its set/rep scheme.
type RoutineExercise struct {
	ExerciseID        string  `json:"exerciseId" firestore:"exerciseId"`
	Name              string  `json:"name" firestore:"name"`
	MuscleGroup       string  `json:"muscleGroup" firestore:"muscleGroup"`
	Equipment         string  `json:"equipment" firestore:"equipment"`
	Sets              int     `json:"sets" firestore:"sets"`
	Reps              int     `json:"reps" firestore:"reps"`
	RestSeconds       int     `json:"restSeconds" firestore:"restSeconds"`
	SuggestedWeightKg float64 `json:"suggestedWeightKg" firestore:"suggestedWeightKg"`
	WeightSource      string  `json:"weightSource,omitempty" firestore:"weightSource,omitempty"`
}

// TrainingWeekdays returns the set of weekdays the routine trains on.
func (r *Routine) TrainingWeekdays() map[time.Weekday]bool {
	days := make(map[time.Weekday]bool, len(r.Days))
	for _, d := range r.Days {
		days[d.Weekday] = true
	}
	return days
}

// AssignedRoutine is a routine a trainer prescribed to one of their students.
type AssignedRoutine struct {
	ID         string       `json:"id" firestore:"-"`
	TrainerID  string       `json:"trainerId" firestore:"trainerId"`
	StudentID  string       `json:"studentId" firestore:"studentId"`
	Name       string       `json:"name" firestore:"name"`
	Notes      string       `json:"notes,omitempty" firestore:"notes,omitempty"`
	Days       []RoutineDay `json:"days" firestore:"days"`
	AssignedAt time.Time    `json:"assignedAt" firestore:"assignedAt"`
	UpdatedAt  time.Time    `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
