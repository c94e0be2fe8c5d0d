package models

import "time"

// MacroTargets is a calorie and macro budget.
type MacroTargets struct {
	Calories int `json:"calories" firestore:"calories"`
	ProteinG int `json:"proteinG" firestore:"proteinG"`
	CarbsG   int `json:"carbsG" firestore:"carbsG"`
	FatG     int `json:"fatG" firestore:"fatG"`
}

// NutritionPlan is stored at users/{uid}/nutritionPlans/{id}.
type NutritionPlan struct {
	ID        string         `json:"id" firestore:"-"`
	UserID    string         `json:"userId" firestore:"userId"`
	BMR       int            `json:"bmr" firestore:"bmr"`
	TDEE      int            `json:"tdee" firestore:"tdee"`
	Targets   MacroTargets   `json:"targets" firestore:"targets"`
	Meals     []Meal         `json:"meals" firestore:"meals"`
	Days      []DailyTargets `json:"days,omitempty" firestore:"days,omitempty"`
	RoutineID string         `json:"routineId,omitempty" firestore:"routineId,omitempty"`
	Source    string         `json:"source" firestore:"source"`
	CreatedAt time.Time      `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

// Meal is one slot of the daily plan.
type Meal struct {
	Order   int          `json:"order" firestore:"order"`
	Name    string       `json:"name" firestore:"name"`
	Targets MacroTargets `json:"targets" firestore:"targets"`
	Recipe  Recipe       `json:"recipe" firestore:"recipe"`
}

// Recipe is a suggested dish for a meal.
type Recipe struct {
	Title        string   `json:"title" firestore:"title"`
	Ingredients  []string `json:"ingredients" firestore:"ingredients"`
	Instructions []string `json:"instructions" firestore:"instructions"`
	Source       string   `json:"source" firestore:"source"` // "ai" or "fallback"
}

// DailyTargets are the per-weekday targets after syncing with the routine.
type DailyTargets struct {
	Weekday     time.Weekday `json:"weekday" firestore:"weekday"`
	TrainingDay bool         `json:"trainingDay" firestore:"trainingDay"`
	Targets     MacroTargets `json:"targets" firestore:"targets"`
}
