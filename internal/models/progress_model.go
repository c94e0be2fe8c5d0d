package models

import (
	"fmt"
	"time"
)

// WeekStartLayout is the date format used in routineProgress document IDs.
const WeekStartLayout = "2006-01-02"

// RoutineProgress is the weekly completion tracker at
// routineProgress/{userId}_{routineId}_{weekStart}.
type RoutineProgress struct {
	ID                string    `json:"id" firestore:"-"`
	UserID            string    `json:"userId" firestore:"userId"`
	RoutineID         string    `json:"routineId" firestore:"routineId"`
	WeekStart         string    `json:"weekStart" firestore:"weekStart"`
	TargetDays        int       `json:"targetDays" firestore:"targetDays"`
	CompletedDays     []string  `json:"completedDays" firestore:"completedDays"`
	CompletedWorkouts int       `json:"completedWorkouts" firestore:"completedWorkouts"`
	WorkoutIDs        []string  `json:"workoutIds" firestore:"workoutIds"`
	CompletionRate    float64   `json:"completionRate" firestore:"completionRate"`
	UpdatedAt         time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// RoutineProgressID builds the document ID for a user's week on a routine.
func RoutineProgressID(userID, routineID, weekStart string) string {
	return fmt.Sprintf("%s_%s_%s", userID, routineID, weekStart)
}

// WeekStart returns the Monday (UTC, midnight) of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := t.AddDate(0, 0, -(weekday - 1))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
}
