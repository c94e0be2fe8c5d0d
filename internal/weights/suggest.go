// Package weights computes the starting weight suggested for an exercise from the
// lifter's profile, self-reported benchmarks and logged history.
//
// Everything here is a pure function over static tables; loading the profile and the
// personal record is the caller's job (see core.WeightService).
package weights

import "math"

// EquipmentBodyweight marks exercises that are never loaded with external weight.
const EquipmentBodyweight = "bodyweight"

// Source tells the client which path produced a suggestion.
type Source string

const (
	SourceBodyweight Source = "bodyweight"
	SourceHistory    Source = "history"
	SourceBenchmark  Source = "benchmark"
	SourceProfile    Source = "profile"
)

// Ratio ties an exercise to one of the onboarding benchmarks.
// An incline dumbbell press might be {Benchmark: "bench_press", Factor: 0.3}.
type Ratio struct {
	Benchmark string  `json:"benchmark" yaml:"benchmark"`
	Factor    float64 `json:"factor" yaml:"factor"`
}

// Input is everything the formula looks at. Zero values fall back to table defaults.
type Input struct {
	BodyWeightKg     float64
	Gender           string
	Experience       string
	MuscleGroup      string
	Equipment        string
	Technique        string
	Benchmarks       map[string]float64
	ExerciseRatio    *Ratio
	PersonalRecordKg float64
}

// Suggestion is the result of CalculateSmartWeightSync.
type Suggestion struct {
	WeightKg float64 `json:"weightKg"`
	Source   Source  `json:"source"`
}

// CalculateSmartWeightSync returns the suggested working weight for one exercise.
//
// Precedence: bodyweight exercises always suggest 0; a logged personal record wins over a
// benchmark; a benchmark wins over the profile estimate. Every loaded suggestion is
// rounded to the nearest Increment and never goes below MinimumKg.
func CalculateSmartWeightSync(in Input) Suggestion {
	if in.Equipment == EquipmentBodyweight {
		return Suggestion{WeightKg: 0, Source: SourceBodyweight}
	}

	if in.PersonalRecordKg > 0 {
		return Suggestion{WeightKg: finalize(in.PersonalRecordKg * HistoryRatio), Source: SourceHistory}
	}

	if w, ok := benchmarkWeight(in); ok {
		return Suggestion{WeightKg: finalize(w), Source: SourceBenchmark}
	}

	return Suggestion{WeightKg: finalize(ProfileEstimate(in)), Source: SourceProfile}
}

// ProfileEstimate is the raw (unrounded) table formula.
func ProfileEstimate(in Input) float64 {
	bodyWeight := in.BodyWeightKg
	if bodyWeight <= 0 {
		bodyWeight = DefaultBodyWeightKg
	}
	return bodyWeight *
		lookup(muscleGroupFactors, in.MuscleGroup, unknownMuscleGroupFactor) *
		lookup(genderFactors, in.Gender, unknownGenderFactor) *
		lookup(experienceFactors, in.Experience, experienceFactors["beginner"]) *
		lookup(techniqueFactors, in.Technique, techniqueFactors["compound"]) *
		lookup(equipmentFactors, in.Equipment, 1.0)
}

func benchmarkWeight(in Input) (float64, bool) {
	if in.ExerciseRatio == nil || in.ExerciseRatio.Factor <= 0 {
		return 0, false
	}
	benchmark, ok := in.Benchmarks[in.ExerciseRatio.Benchmark]
	if !ok || benchmark <= 0 {
		return 0, false
	}
	return benchmark * in.ExerciseRatio.Factor, true
}

func finalize(w float64) float64 {
	return math.Max(MinimumKg, RoundToIncrement(w, Increment))
}

// RoundToIncrement rounds w to the nearest multiple of inc. Halves round up.
func RoundToIncrement(w, inc float64) float64 {
	if inc <= 0 {
		return w
	}
	return math.Floor(w/inc+0.5) * inc
}
