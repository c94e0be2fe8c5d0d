package core

import (
	"fmt"
	"strings"

	"fitcoach-backend/internal/catalog"
	"fitcoach-backend/internal/models"
	"fitcoach-backend/internal/weights"
)

const routineSystemPrompt = `You are a certified strength and conditioning coach.
Answer with a single JSON object and nothing else, shaped as:
{"name": string, "days": [{"name": string, "exercises": [{"exerciseId": string, "sets": int, "reps": int, "restSeconds": int}]}]}
Only use exerciseId values from the provided catalog.`

const recipeSystemPrompt = `You are a sports nutritionist.
Answer with a single JSON object and nothing else, shaped as:
{"title": string, "ingredients": [string], "instructions": [string]}
Ingredient lines include quantities in grams or household units.`

func routinePrompt(p models.Profile, cat *catalog.Catalog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Build a %d-day weekly routine.\n", p.DaysPerWeek)
	fmt.Fprintf(&b, "Goal: %s. Experience: %s. Gender: %s. Age: %d. Body weight: %.1f kg.\n",
		orDefault(p.Goal, models.GoalMaintain), orDefault(p.Experience, "beginner"), orDefault(p.Gender, "unspecified"), p.Age, p.WeightKg)
	if len(p.Equipment) > 0 {
		fmt.Fprintf(&b, "Available equipment: %s.\n", strings.Join(p.Equipment, ", "))
	}
	b.WriteString("Catalog (exerciseId: name [muscle group, equipment]):\n")
	equipment := p.EquipmentSet()
	for _, ex := range cat.All() {
		if equipment != nil && ex.Equipment != weights.EquipmentBodyweight && !equipment[ex.Equipment] {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s [%s, %s]\n", ex.ID, ex.Name, ex.MuscleGroup, ex.Equipment)
	}
	return b.String()
}

func recipePrompt(meal models.Meal, restrictions []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest one recipe for %s.\n", strings.ToLower(meal.Name))
	fmt.Fprintf(&b, "Targets: %d kcal, %d g protein, %d g carbs, %d g fat.\n",
		meal.Targets.Calories, meal.Targets.ProteinG, meal.Targets.CarbsG, meal.Targets.FatG)
	if len(restrictions) > 0 {
		fmt.Fprintf(&b, "Dietary restrictions: %s.\n", strings.Join(restrictions, ", "))
	}
	return b.String()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
