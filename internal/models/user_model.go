package models

import "time"

// Training goals collected during onboarding.
const (
	GoalLoseFat    = "lose_fat"
	GoalGainMuscle = "gain_muscle"
	GoalStrength   = "strength"
	GoalEndurance  = "endurance"
	GoalMaintain   = "maintain"
)

// User represents a user in the system.
type User struct {
	ID                   string     `json:"id" firestore:"-"` // Firebase Auth UID, also the document ID
	Email                string     `json:"email" firestore:"email"`
	DisplayName          string     `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	PhotoURL             string     `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
	Profile              Profile    `json:"profile" firestore:"profile"`
	OnboardingCompleted  bool       `json:"onboardingCompleted" firestore:"onboardingCompleted"`
	CoachID              string     `json:"coachId,omitempty" firestore:"coachId,omitempty"`
	IsPremium            bool       `json:"isPremium" firestore:"isPremium"`
	PremiumProvider      string     `json:"premiumProvider,omitempty" firestore:"premiumProvider,omitempty"` // "stripe" or "mercadopago"
	PremiumSince         *time.Time `json:"premiumSince,omitempty" firestore:"premiumSince,omitempty"`
	StripeCustomerID     string     `json:"-" firestore:"stripeCustomerId,omitempty"`
	StripeSubscriptionID string     `json:"-" firestore:"stripeSubscriptionId,omitempty"`
	ActiveRoutineID      string     `json:"activeRoutineId,omitempty" firestore:"activeRoutineId,omitempty"`
	CreatedAt            time.Time  `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt            time.Time  `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// Profile holds biometrics and onboarding answers.
type Profile struct {
	Gender              string             `json:"gender,omitempty" firestore:"gender,omitempty"`
	Age                 int                `json:"age,omitempty" firestore:"age,omitempty"`
	HeightCm            float64            `json:"heightCm,omitempty" firestore:"heightCm,omitempty"`
	WeightKg            float64            `json:"weightKg,omitempty" firestore:"weightKg,omitempty"`
	Goal                string             `json:"goal,omitempty" firestore:"goal,omitempty"`
	Experience          string             `json:"experience,omitempty" firestore:"experience,omitempty"`
	ActivityLevel       string             `json:"activityLevel,omitempty" firestore:"activityLevel,omitempty"`
	DaysPerWeek         int                `json:"daysPerWeek,omitempty" firestore:"daysPerWeek,omitempty"`
	Equipment           []string           `json:"equipment,omitempty" firestore:"equipment,omitempty"`
	Benchmarks          map[string]float64 `json:"benchmarks,omitempty" firestore:"benchmarks,omitempty"` // 1RM-style, kg
	MealsPerDay         int                `json:"mealsPerDay,omitempty" firestore:"mealsPerDay,omitempty"`
	DietaryRestrictions []string           `json:"dietaryRestrictions,omitempty" firestore:"dietaryRestrictions,omitempty"`
	// AES-256 ciphertext, never returned to clients.
	MedicalNotesEncrypted string `json:"-" firestore:"medicalNotesEncrypted,omitempty"`
}

// EquipmentSet returns the profile equipment as a lookup set, or nil when the user
// did not restrict equipment.
func (p Profile) EquipmentSet() map[string]bool {
	if len(p.Equipment) == 0 {
		return nil
	}
	set := make(map[string]bool, len(p.Equipment))
	for _, e := range p.Equipment {
		set[e] = true
	}
	return set
}

// PersonalRecord is stored at users/{uid}/personalRecords/{exerciseId}.
type PersonalRecord struct {
	ExerciseID string    `json:"exerciseId" firestore:"-"`
	WeightKg   float64   `json:"weightKg" firestore:"weightKg"`
	Reps       int       `json:"reps" firestore:"reps"`
	WorkoutID  string    `json:"workoutId" firestore:"workoutId"`
	AchievedAt time.Time `json:"achievedAt" firestore:"achievedAt"`
}
