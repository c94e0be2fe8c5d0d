package models

import "time"

// Trainer is a coach profile stored at trainers/{uid}.
type Trainer struct {
	ID           string    `json:"id" firestore:"-"`
	DisplayName  string    `json:"displayName" firestore:"displayName"`
	Bio          string    `json:"bio,omitempty" firestore:"bio,omitempty"`
	Specialties  []string  `json:"specialties,omitempty" firestore:"specialties,omitempty"`
	CoachCode    string    `json:"coachCode" firestore:"coachCode"`
	RewardPoints int       `json:"rewardPoints" firestore:"rewardPoints"`
	RewardLevel  string    `json:"rewardLevel" firestore:"rewardLevel"`
	StudentCount int       `json:"studentCount" firestore:"studentCount"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt    time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// CoachCodeIndex is the coachCodes/{code} document pointing back at the trainer.
type CoachCodeIndex struct {
	TrainerID string    `firestore:"trainerId"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// StudentSummary is the dashboard view of a linked student.
type StudentSummary struct {
	ID              string     `json:"id"`
	DisplayName     string     `json:"displayName"`
	Email           string     `json:"email"`
	IsPremium       bool       `json:"isPremium"`
	ActiveRoutineID string     `json:"activeRoutineId,omitempty"`
	LastWorkoutAt   *time.Time `json:"lastWorkoutAt,omitempty"`
}

// TrainerDashboard aggregates what a coach sees on the dashboard screen.
type TrainerDashboard struct {
	Trainer          *Trainer           `json:"trainer"`
	Students         []StudentSummary   `json:"students"`
	AssignedRoutines []*AssignedRoutine `json:"assignedRoutines"`
	Challenges       []*TeamChallenge   `json:"challenges"`
	NextLevel        string             `json:"nextLevel,omitempty"`
	PointsToNext     int                `json:"pointsToNext,omitempty"`
}
