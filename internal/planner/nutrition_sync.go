package planner

import (
	"math"
	"time"

	"fitcoach-backend/internal/models"
)

const (
	trainingDayCarbs = 1.15
	restDayCarbs     = 0.85
)

// SyncNutritionWithRoutine returns targets for each weekday, Sunday first. Carbs are
// raised on the routine's training days and lowered on rest days; protein and fat
// stay fixed and calories are recomputed from the macros. A rest-day cut never
// takes a day below CalorieFloor. A nil routine yields the base targets every day.
func SyncNutritionWithRoutine(base models.MacroTargets, routine *models.Routine) []models.DailyTargets {
	var training map[time.Weekday]bool
	if routine != nil {
		training = routine.TrainingWeekdays()
	}

	days := make([]models.DailyTargets, 0, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if routine == nil {
			days = append(days, models.DailyTargets{Weekday: wd, Targets: base})
			continue
		}
		mult := restDayCarbs
		if training[wd] {
			mult = trainingDayCarbs
		}
		t := base
		t.CarbsG = int(math.Round(float64(base.CarbsG) * mult))
		t.Calories = 4*t.ProteinG + 4*t.CarbsG + 9*t.FatG
		if t.Calories < CalorieFloor {
			t.CarbsG = int(math.Ceil(float64(CalorieFloor-4*t.ProteinG-9*t.FatG) / 4))
			t.Calories = 4*t.ProteinG + 4*t.CarbsG + 9*t.FatG
		}
		days = append(days, models.DailyTargets{Weekday: wd, TrainingDay: training[wd], Targets: t})
	}
	return days
}
