package models

import "time"

// OnboardingRequest is the body of POST /users/me/onboarding.
type OnboardingRequest struct {
	Gender              string             `json:"gender" binding:"required,oneof=male female other"`
	Age                 int                `json:"age" binding:"required,min=13,max=100"`
	HeightCm            float64            `json:"heightCm" binding:"required,gt=0"`
	WeightKg            float64            `json:"weightKg" binding:"required,gt=0"`
	Goal                string             `json:"goal" binding:"required,oneof=lose_fat gain_muscle strength endurance maintain"`
	Experience          string             `json:"experience" binding:"required,oneof=beginner intermediate advanced"`
	ActivityLevel       string             `json:"activityLevel" binding:"required"`
	DaysPerWeek         int                `json:"daysPerWeek" binding:"required,min=1,max=7"`
	Equipment           []string           `json:"equipment,omitempty"`
	Benchmarks          map[string]float64 `json:"benchmarks,omitempty"`
	MealsPerDay         int                `json:"mealsPerDay,omitempty"`
	DietaryRestrictions []string           `json:"dietaryRestrictions,omitempty"`
	MedicalNotes        string             `json:"medicalNotes,omitempty"` // plain text, encrypted before storage
}

// UpdateProfileRequest is a partial profile update.
// Pointers distinguish "not provided" from zero values.
type UpdateProfileRequest struct {
	DisplayName   *string             `json:"displayName,omitempty"`
	WeightKg      *float64            `json:"weightKg,omitempty"`
	Goal          *string             `json:"goal,omitempty"`
	Experience    *string             `json:"experience,omitempty"`
	ActivityLevel *string             `json:"activityLevel,omitempty"`
	DaysPerWeek   *int                `json:"daysPerWeek,omitempty"`
	Equipment     *[]string           `json:"equipment,omitempty"`
	Benchmarks    *map[string]float64 `json:"benchmarks,omitempty"`
	MealsPerDay   *int                `json:"mealsPerDay,omitempty"`
}

// StartWorkoutRequest starts a logging session, optionally from a routine day.
type StartWorkoutRequest struct {
	RoutineID string `json:"routineId,omitempty"`
	DayIndex  int    `json:"dayIndex,omitempty"`
	Name      string `json:"name,omitempty"`
}

// LogSetRequest appends one set to an active workout.
type LogSetRequest struct {
	ExerciseID string  `json:"exerciseId" binding:"required"`
	Reps       int     `json:"reps" binding:"required,min=1"`
	WeightKg   float64 `json:"weightKg" binding:"min=0"`
}

// GeneratePlanRequest is shared by routine and nutrition generation.
type GeneratePlanRequest struct {
	UseAI bool `json:"useAI"`
}

// RegisterTrainerRequest creates a coach profile for the caller.
type RegisterTrainerRequest struct {
	DisplayName string   `json:"displayName" binding:"required"`
	Bio         string   `json:"bio,omitempty"`
	Specialties []string `json:"specialties,omitempty"`
}

// LinkCoachRequest links the caller to a trainer by coach code.
type LinkCoachRequest struct {
	CoachCode string `json:"coachCode" binding:"required"`
}

// AssignRoutineRequest prescribes a routine to a student.
type AssignRoutineRequest struct {
	StudentID string       `json:"studentId" binding:"required"`
	Name      string       `json:"name" binding:"required"`
	Notes     string       `json:"notes,omitempty"`
	Days      []RoutineDay `json:"days" binding:"required,min=1"`
}

// CreateChallengeRequest creates a team challenge.
type CreateChallengeRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description,omitempty"`
	Metric      string    `json:"metric" binding:"required,oneof=workouts volume"`
	Target      float64   `json:"target" binding:"required,gt=0"`
	StartDate   time.Time `json:"startDate" binding:"required"`
	EndDate     time.Time `json:"endDate" binding:"required,gtfield=StartDate"`
}
