package planner

import (
	"errors"
	"math"

	"fitcoach-backend/internal/models"
)

// ErrIncompleteProfile is returned when biometrics needed for energy estimates are missing.
var ErrIncompleteProfile = errors.New("profile is missing age, height or weight")

// activityMultipliers maps activity level strings to their TDEE multiplier.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// IsValidActivityLevel is used by request validation.
func IsValidActivityLevel(level string) bool {
	_, ok := activityMultipliers[level]
	return ok
}

// Energy holds basal and total daily energy expenditure in kcal.
type Energy struct {
	BMR  int
	TDEE int
}

// ComputeEnergy returns BMR (Mifflin-St Jeor) and TDEE for the profile.
// Unknown activity levels count as sedentary.
func ComputeEnergy(p models.Profile) (Energy, error) {
	if p.Age <= 0 || p.HeightCm <= 0 || p.WeightKg <= 0 {
		return Energy{}, ErrIncompleteProfile
	}

	bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	switch p.Gender {
	case "male":
		bmr += 5
	case "female":
		bmr -= 161
	default:
		bmr -= 78 // midpoint of the two constants
	}

	mult, ok := activityMultipliers[p.ActivityLevel]
	if !ok {
		mult = activityMultipliers["sedentary"]
	}

	return Energy{
		BMR:  int(math.Round(bmr)),
		TDEE: int(math.Round(bmr * mult)),
	}, nil
}
