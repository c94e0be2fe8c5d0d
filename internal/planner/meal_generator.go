package planner

import (
	"math"
	"strings"

	"fitcoach-backend/internal/models"
)

// CalorieFloor is the lowest daily calorie target ever prescribed.
const CalorieFloor = 1200

const fatShare = 0.25

type goalNutrition struct {
	calorieDelta int
	proteinPerKg float64
}

func nutritionForGoal(goal string) goalNutrition {
	switch goal {
	case models.GoalLoseFat:
		return goalNutrition{calorieDelta: -500, proteinPerKg: 2.2}
	case models.GoalGainMuscle, models.GoalStrength:
		return goalNutrition{calorieDelta: 300, proteinPerKg: 2.0}
	default:
		return goalNutrition{calorieDelta: 0, proteinPerKg: 1.8}
	}
}

// NutritionTargets returns daily calorie and macro targets together with the energy
// estimate they were derived from.
func NutritionTargets(p models.Profile) (models.MacroTargets, Energy, error) {
	energy, err := ComputeEnergy(p)
	if err != nil {
		return models.MacroTargets{}, Energy{}, err
	}

	g := nutritionForGoal(p.Goal)
	calories := energy.TDEE + g.calorieDelta
	if calories < CalorieFloor {
		calories = CalorieFloor
	}

	protein := int(math.Round(p.WeightKg * g.proteinPerKg))
	fat := int(math.Round(float64(calories) * fatShare / 9))
	carbs := int(math.Round(float64(calories-4*protein-9*fat) / 4))
	if carbs < 0 {
		carbs = 0
	}

	return models.MacroTargets{
		Calories: calories,
		ProteinG: protein,
		CarbsG:   carbs,
		FatG:     fat,
	}, energy, nil
}

// Meal slot kinds, used to pick fallback recipes.
const (
	slotBreakfast = "breakfast"
	slotLunch     = "lunch"
	slotDinner    = "dinner"
	slotSnack     = "snack"
)

type mealSlot struct {
	name  string
	kind  string
	share float64
}

var mealLayouts = map[int][]mealSlot{
	3: {
		{"Breakfast", slotBreakfast, 0.30},
		{"Lunch", slotLunch, 0.40},
		{"Dinner", slotDinner, 0.30},
	},
	4: {
		{"Breakfast", slotBreakfast, 0.25},
		{"Lunch", slotLunch, 0.35},
		{"Afternoon Snack", slotSnack, 0.10},
		{"Dinner", slotDinner, 0.30},
	},
	5: {
		{"Breakfast", slotBreakfast, 0.20},
		{"Morning Snack", slotSnack, 0.10},
		{"Lunch", slotLunch, 0.30},
		{"Afternoon Snack", slotSnack, 0.10},
		{"Dinner", slotDinner, 0.30},
	},
	6: {
		{"Breakfast", slotBreakfast, 0.20},
		{"Morning Snack", slotSnack, 0.10},
		{"Lunch", slotLunch, 0.25},
		{"Afternoon Snack", slotSnack, 0.10},
		{"Dinner", slotDinner, 0.25},
		{"Evening Snack", slotSnack, 0.10},
	},
}

// DefaultMealsPerDay applies when the profile has no preference.
const DefaultMealsPerDay = 4

// ClampMealsPerDay keeps the meal count within 3..6.
func ClampMealsPerDay(n int) int {
	switch {
	case n == 0:
		return DefaultMealsPerDay
	case n < 3:
		return 3
	case n > 6:
		return 6
	}
	return n
}

// SplitMeals distributes the daily targets over n meals. The last meal absorbs
// rounding so per-meal targets always sum to the daily targets.
func SplitMeals(t models.MacroTargets, n int) []models.Meal {
	layout := mealLayouts[ClampMealsPerDay(n)]
	meals := make([]models.Meal, len(layout))

	var used models.MacroTargets
	for i, slot := range layout {
		var mt models.MacroTargets
		if i == len(layout)-1 {
			mt = models.MacroTargets{
				Calories: t.Calories - used.Calories,
				ProteinG: t.ProteinG - used.ProteinG,
				CarbsG:   t.CarbsG - used.CarbsG,
				FatG:     t.FatG - used.FatG,
			}
		} else {
			mt = models.MacroTargets{
				Calories: share(t.Calories, slot.share),
				ProteinG: share(t.ProteinG, slot.share),
				CarbsG:   share(t.CarbsG, slot.share),
				FatG:     share(t.FatG, slot.share),
			}
			used.Calories += mt.Calories
			used.ProteinG += mt.ProteinG
			used.CarbsG += mt.CarbsG
			used.FatG += mt.FatG
		}
		meals[i] = models.Meal{Order: i + 1, Name: slot.name, Targets: mt}
	}
	return meals
}

func share(total int, s float64) int {
	return int(math.Round(float64(total) * s))
}

// MealKind classifies a meal name as breakfast, lunch, dinner or snack.
func MealKind(name string) string {
	lower := strings.ToLower(name)
	for _, k := range []string{slotBreakfast, slotLunch, slotDinner} {
		if strings.Contains(lower, k) {
			return k
		}
	}
	return slotSnack
}

var fallbackRecipes = map[string]models.Recipe{
	slotBreakfast: {
		Title:        "Oats with Greek yogurt and berries",
		Ingredients:  []string{"rolled oats", "Greek yogurt", "mixed berries", "honey", "chia seeds"},
		Instructions: []string{"Cook the oats with water or milk.", "Top with yogurt, berries and chia.", "Drizzle with honey."},
	},
	slotLunch: {
		Title:        "Grilled chicken rice bowl",
		Ingredients:  []string{"chicken breast", "brown rice", "broccoli", "olive oil", "lemon"},
		Instructions: []string{"Grill the seasoned chicken.", "Steam the broccoli.", "Serve over rice with olive oil and lemon."},
	},
	slotDinner: {
		Title:        "Baked salmon with sweet potato",
		Ingredients:  []string{"salmon fillet", "sweet potato", "green beans", "olive oil", "garlic"},
		Instructions: []string{"Roast the sweet potato for 25 minutes.", "Add salmon and green beans for the last 12 minutes.", "Finish with garlic and olive oil."},
	},
	slotSnack: {
		Title:        "Cottage cheese with fruit and nuts",
		Ingredients:  []string{"cottage cheese", "banana", "almonds"},
		Instructions: []string{"Slice the banana.", "Combine with cottage cheese and almonds."},
	},
}

var vegetarianRecipes = map[string]models.Recipe{
	slotBreakfast: fallbackRecipes[slotBreakfast],
	slotLunch: {
		Title:        "Chickpea and quinoa bowl",
		Ingredients:  []string{"chickpeas", "quinoa", "spinach", "cherry tomatoes", "tahini"},
		Instructions: []string{"Cook the quinoa.", "Warm the chickpeas with spices.", "Assemble over spinach and dress with tahini."},
	},
	slotDinner: {
		Title:        "Tofu stir-fry with noodles",
		Ingredients:  []string{"firm tofu", "rice noodles", "bell pepper", "soy sauce", "sesame oil"},
		Instructions: []string{"Press and cube the tofu.", "Stir-fry tofu and vegetables in sesame oil.", "Toss with noodles and soy sauce."},
	},
	slotSnack: fallbackRecipes[slotSnack],
}

// FallbackRecipe returns the hardcoded recipe for a meal, used when AI generation
// fails or is not available.
func FallbackRecipe(meal models.Meal, restrictions []string) models.Recipe {
	table := fallbackRecipes
	for _, r := range restrictions {
		if r == "vegetarian" || r == "vegan" {
			table = vegetarianRecipes
			break
		}
	}
	recipe := table[MealKind(meal.Name)]
	recipe.Source = "fallback"
	return recipe
}
