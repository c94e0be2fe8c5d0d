// Package planner builds weekly routines and nutrition targets from a user profile.
// All functions are deterministic; AI-generated plans are normalised through here too.
package planner

import (
	"errors"
	"fmt"
	"time"

	"fitcoach-backend/internal/catalog"
	"fitcoach-backend/internal/models"
	"fitcoach-backend/internal/weights"
)

// ErrEmptyRoutine is returned when nothing usable is left after normalising a routine.
var ErrEmptyRoutine = errors.New("routine has no usable training days")

// Split names.
const (
	SplitFullBody     = "full_body"
	SplitUpperLower   = "upper_lower"
	SplitPushPullLegs = "push_pull_legs"
)

// Scheme is a set/rep/rest prescription.
type Scheme struct {
	Sets        int
	Reps        int
	RestSeconds int
}

var (
	strengthScheme    = Scheme{Sets: 5, Reps: 5, RestSeconds: 180}
	hypertrophyScheme = Scheme{Sets: 4, Reps: 10, RestSeconds: 90}
	enduranceScheme   = Scheme{Sets: 3, Reps: 15, RestSeconds: 45}
	// accessory work inside a strength block
	strengthAccessoryScheme = Scheme{Sets: 3, Reps: 10, RestSeconds: 90}
)

// SchemeForGoal returns the main prescription for a training goal.
func SchemeForGoal(goal string) Scheme {
	switch goal {
	case models.GoalStrength:
		return strengthScheme
	case models.GoalLoseFat, models.GoalEndurance:
		return enduranceScheme
	default:
		return hypertrophyScheme
	}
}

type dayTemplate struct {
	name   string
	groups []string
}

var splitTemplates = map[string][]dayTemplate{
	SplitFullBody: {
		{"Full Body A", []string{"quadriceps", "chest", "back", "shoulders", "core"}},
		{"Full Body B", []string{"hamstrings", "back", "chest", "glutes", "biceps"}},
		{"Full Body C", []string{"quadriceps", "shoulders", "back", "triceps", "calves"}},
	},
	SplitUpperLower: {
		{"Upper", []string{"chest", "back", "shoulders", "biceps", "triceps"}},
		{"Lower", []string{"quadriceps", "hamstrings", "glutes", "calves", "core"}},
	},
	SplitPushPullLegs: {
		{"Push", []string{"chest", "shoulders", "triceps"}},
		{"Pull", []string{"back", "biceps", "forearms"}},
		{"Legs", []string{"quadriceps", "hamstrings", "glutes", "calves"}},
	},
}

var weekdaySchedules = map[int][]time.Weekday{
	1: {time.Monday},
	2: {time.Monday, time.Thursday},
	3: {time.Monday, time.Wednesday, time.Friday},
	4: {time.Monday, time.Tuesday, time.Thursday, time.Friday},
	5: {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	6: {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
	7: {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday},
}

// DefaultDaysPerWeek applies when onboarding did not record a frequency.
const DefaultDaysPerWeek = 3

// ClampDaysPerWeek keeps the training frequency within 1..7.
func ClampDaysPerWeek(n int) int {
	switch {
	case n <= 0:
		return DefaultDaysPerWeek
	case n > 7:
		return 7
	}
	return n
}

// SplitForDays picks the split for a weekly training frequency.
func SplitForDays(daysPerWeek int) string {
	switch {
	case daysPerWeek <= 3:
		return SplitFullBody
	case daysPerWeek == 4:
		return SplitUpperLower
	default:
		return SplitPushPullLegs
	}
}

// Schedule returns the training weekdays for a frequency.
func Schedule(daysPerWeek int) []time.Weekday {
	return weekdaySchedules[ClampDaysPerWeek(daysPerWeek)]
}

// WeightFunc suggests a starting weight for a catalog exercise.
type WeightFunc func(ex catalog.Exercise) weights.Suggestion

// ProfileWeightFunc suggests weights from the profile and its benchmarks only.
func ProfileWeightFunc(p models.Profile) WeightFunc {
	return func(ex catalog.Exercise) weights.Suggestion {
		return weights.CalculateSmartWeightSync(weights.Input{
			BodyWeightKg:  p.WeightKg,
			Gender:        p.Gender,
			Experience:    p.Experience,
			MuscleGroup:   ex.MuscleGroup,
			Equipment:     ex.Equipment,
			Technique:     ex.Technique,
			Benchmarks:    p.Benchmarks,
			ExerciseRatio: ex.Ratio,
		})
	}
}

// RoutineInput is what the rule engine needs.
type RoutineInput struct {
	Profile models.Profile
	Catalog *catalog.Catalog
	Weight  WeightFunc // nil means ProfileWeightFunc(Profile)
}

// GenerateRoutine builds a weekly routine from the profile using the split and
// scheme tables. The same input always yields the same routine.
func GenerateRoutine(in RoutineInput) (models.Routine, error) {
	if in.Catalog == nil {
		return models.Routine{}, errors.New("planner: catalog is required")
	}
	weightFn := in.Weight
	if weightFn == nil {
		weightFn = ProfileWeightFunc(in.Profile)
	}

	daysPerWeek := ClampDaysPerWeek(in.Profile.DaysPerWeek)
	split := SplitForDays(daysPerWeek)
	templates := splitTemplates[split]
	schedule := Schedule(daysPerWeek)
	scheme := SchemeForGoal(in.Profile.Goal)
	equipment := in.Profile.EquipmentSet()

	routine := models.Routine{
		Name:        fmt.Sprintf("%d-day %s", daysPerWeek, splitLabel(split)),
		Source:      models.RoutineSourceRules,
		Goal:        in.Profile.Goal,
		Split:       split,
		DaysPerWeek: daysPerWeek,
	}

	for i, weekday := range schedule {
		tpl := templates[i%len(templates)]
		occurrence := i / len(templates)
		perGroup := 1
		if len(tpl.groups) <= 3 {
			perGroup = 2
		}

		day := models.RoutineDay{
			Index:        i,
			Name:         tpl.name,
			Weekday:      weekday,
			MuscleGroups: tpl.groups,
		}
		used := make(map[string]bool)
		for _, group := range tpl.groups {
			candidates := in.Catalog.Filter(group, equipment)
			if len(candidates) == 0 {
				continue
			}
			picked := 0
			for k := 0; k < len(candidates) && picked < perGroup; k++ {
				ex := candidates[(occurrence*perGroup+k)%len(candidates)]
				if used[ex.ID] {
					continue
				}
				used[ex.ID] = true
				picked++
				day.Exercises = append(day.Exercises, prescribe(ex, scheme, in.Profile.Goal, weightFn))
			}
		}
		if len(day.Exercises) > 0 {
			routine.Days = append(routine.Days, day)
		}
	}

	if len(routine.Days) == 0 {
		return models.Routine{}, ErrEmptyRoutine
	}
	return routine, nil
}

func prescribe(ex catalog.Exercise, scheme Scheme, goal string, weightFn WeightFunc) models.RoutineExercise {
	if goal == models.GoalStrength && !ex.IsCompound() {
		scheme = strengthAccessoryScheme
	}
	suggestion := weightFn(ex)
	return models.RoutineExercise{
		ExerciseID:        ex.ID,
		Name:              ex.Name,
		MuscleGroup:       ex.MuscleGroup,
		Equipment:         ex.Equipment,
		Sets:              scheme.Sets,
		Reps:              scheme.Reps,
		RestSeconds:       scheme.RestSeconds,
		SuggestedWeightKg: suggestion.WeightKg,
		WeightSource:      string(suggestion.Source),
	}
}

func splitLabel(split string) string {
	switch split {
	case SplitUpperLower:
		return "Upper/Lower"
	case SplitPushPullLegs:
		return "Push/Pull/Legs"
	default:
		return "Full Body"
	}
}

// NormalizeRoutine cleans a routine produced outside the rule engine (AI output or a
// trainer's assignment): unknown exercises are dropped, catalog metadata and weight
// suggestions are filled in, non-positive prescriptions get the goal scheme, and
// weekdays follow the standard schedule for the resulting number of days.
func NormalizeRoutine(r models.Routine, in RoutineInput) (models.Routine, error) {
	if in.Catalog == nil {
		return models.Routine{}, errors.New("planner: catalog is required")
	}
	weightFn := in.Weight
	if weightFn == nil {
		weightFn = ProfileWeightFunc(in.Profile)
	}
	scheme := SchemeForGoal(in.Profile.Goal)

	var days []models.RoutineDay
	for _, d := range r.Days {
		var exercises []models.RoutineExercise
		groups := make([]string, 0)
		seenGroup := make(map[string]bool)
		for _, re := range d.Exercises {
			ex, err := in.Catalog.Get(re.ExerciseID)
			if err != nil {
				continue
			}
			out := prescribe(ex, scheme, in.Profile.Goal, weightFn)
			if re.Sets > 0 && re.Sets <= 10 {
				out.Sets = re.Sets
			}
			if re.Reps > 0 && re.Reps <= 50 {
				out.Reps = re.Reps
			}
			if re.RestSeconds > 0 && re.RestSeconds <= 600 {
				out.RestSeconds = re.RestSeconds
			}
			exercises = append(exercises, out)
			if !seenGroup[ex.MuscleGroup] {
				seenGroup[ex.MuscleGroup] = true
				groups = append(groups, ex.MuscleGroup)
			}
		}
		if len(exercises) == 0 {
			continue
		}
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("Day %d", len(days)+1)
		}
		days = append(days, models.RoutineDay{Name: name, MuscleGroups: groups, Exercises: exercises})
	}

	if len(days) == 0 {
		return models.Routine{}, ErrEmptyRoutine
	}
	if len(days) > 7 {
		days = days[:7]
	}
	schedule := Schedule(len(days))
	for i := range days {
		days[i].Index = i
		days[i].Weekday = schedule[i]
	}

	r.Days = days
	r.DaysPerWeek = len(days)
	if r.Goal == "" {
		r.Goal = in.Profile.Goal
	}
	if r.Split == "" {
		r.Split = SplitForDays(len(days))
	}
	if r.Name == "" {
		r.Name = fmt.Sprintf("%d-day %s", len(days), splitLabel(r.Split))
	}
	return r, nil
}
