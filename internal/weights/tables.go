package weights

// DefaultBodyWeightKg is used when the profile has no body weight recorded.
const DefaultBodyWeightKg = 70.0

// Rounding and floor applied to every non-bodyweight suggestion.
const (
	Increment    = 2.5
	MinimumKg    = 5.0
	HistoryRatio = 0.85
)

// Fraction of body weight a working set typically uses for an intermediate male lifter.
var muscleGroupFactors = map[string]float64{
	"chest":      0.6,
	"back":       0.6,
	"shoulders":  0.35,
	"biceps":     0.2,
	"triceps":    0.2,
	"quadriceps": 0.8,
	"hamstrings": 0.6,
	"glutes":     0.8,
	"calves":     0.5,
	"core":       0.15,
	"forearms":   0.15,
	"full_body":  0.5,
}

const unknownMuscleGroupFactor = 0.3

var genderFactors = map[string]float64{
	"male":   1.0,
	"female": 0.65,
}

const unknownGenderFactor = 0.85

var experienceFactors = map[string]float64{
	"beginner":     0.6,
	"intermediate": 1.0,
	"advanced":     1.3,
}

var techniqueFactors = map[string]float64{
	"compound":  1.0,
	"isolation": 0.6,
}

var equipmentFactors = map[string]float64{
	"barbell":    1.0,
	"machine":    0.9,
	"smith":      0.85,
	"cable":      0.5,
	"dumbbell":   0.4,
	"kettlebell": 0.4,
	"band":       0.3,
}

// MuscleGroups returns the muscle groups the formula knows about.
func MuscleGroups() []string {
	groups := make([]string, 0, len(muscleGroupFactors))
	for g := range muscleGroupFactors {
		groups = append(groups, g)
	}
	return groups
}

// IsKnownEquipment reports whether equipment has its own factor, bodyweight included.
func IsKnownEquipment(equipment string) bool {
	if equipment == EquipmentBodyweight {
		return true
	}
	_, ok := equipmentFactors[equipment]
	return ok
}

func lookup(table map[string]float64, key string, fallback float64) float64 {
	if f, ok := table[key]; ok {
		return f
	}
	return fallback
}
