package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fitcoach-backend/internal/catalog"
	"fitcoach-backend/internal/weights"
)

type suggestOptions struct {
	exerciseID string
	muscle     string
	equipment  string
	technique  string
	bodyWeight float64
	gender     string
	experience string
	pr         float64
	benchmarks map[string]string
}

func newSuggestWeightCmd() *cobra.Command {
	opts := &suggestOptions{}
	cmd := &cobra.Command{
		Use:   "suggest-weight",
		Short: "Compute a starting weight without touching Firestore",
		Long: `Runs the smart weight formula on the given profile.

--exercise fills muscle group, equipment, technique and benchmark ratio from
the bundled catalog; explicit flags override the catalog values.

Example:
  fitctl suggest-weight --exercise barbell_bench_press --bodyweight 82 \
    --gender male --experience intermediate --benchmark bench_press=100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := opts.input(cmd)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(weights.CalculateSmartWeightSync(in))
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.exerciseID, "exercise", "", "catalog exercise ID")
	f.StringVar(&opts.muscle, "muscle", "", "muscle group")
	f.StringVar(&opts.equipment, "equipment", "", "equipment (barbell, dumbbell, bodyweight, ...)")
	f.StringVar(&opts.technique, "technique", "", "compound or isolation")
	f.Float64Var(&opts.bodyWeight, "bodyweight", weights.DefaultBodyWeightKg, "body weight in kg")
	f.StringVar(&opts.gender, "gender", "", "male, female or other")
	f.StringVar(&opts.experience, "experience", "beginner", "beginner, intermediate or advanced")
	f.Float64Var(&opts.pr, "pr", 0, "personal record in kg")
	f.StringToStringVar(&opts.benchmarks, "benchmark", nil, "benchmark lifts in kg, e.g. bench_press=100,squat=140")
	return cmd
}

func (o *suggestOptions) input(cmd *cobra.Command) (weights.Input, error) {
	in := weights.Input{
		BodyWeightKg:     o.bodyWeight,
		Gender:           o.gender,
		Experience:       o.experience,
		MuscleGroup:      o.muscle,
		Equipment:        o.equipment,
		Technique:        o.technique,
		PersonalRecordKg: o.pr,
	}

	if o.exerciseID != "" {
		cat, err := catalog.Load()
		if err != nil {
			return in, err
		}
		ex, err := cat.Get(o.exerciseID)
		if err != nil {
			return in, fmt.Errorf("%w: %s", err, o.exerciseID)
		}
		flags := cmd.Flags()
		if !flags.Changed("muscle") {
			in.MuscleGroup = ex.MuscleGroup
		}
		if !flags.Changed("equipment") {
			in.Equipment = ex.Equipment
		}
		if !flags.Changed("technique") {
			in.Technique = ex.Technique
		}
		in.ExerciseRatio = ex.Ratio
	}

	if len(o.benchmarks) > 0 {
		in.Benchmarks = make(map[string]float64, len(o.benchmarks))
		for k, v := range o.benchmarks {
			kg, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return in, fmt.Errorf("benchmark %s: %w", k, err)
			}
			in.Benchmarks[k] = kg
		}
	}
	return in, nil
}
