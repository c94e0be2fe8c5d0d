package models

import "time"

// Challenge metrics.
const (
	ChallengeMetricWorkouts = "workouts"
	ChallengeMetricVolume   = "volume"
)

// TeamChallenge is a trainer-run goal shared by their students.
type TeamChallenge struct {
	ID           string                          `json:"id" firestore:"-"`
	TrainerID    string                          `json:"trainerId" firestore:"trainerId"`
	Title        string                          `json:"title" firestore:"title"`
	Description  string                          `json:"description,omitempty" firestore:"description,omitempty"`
	Metric       string                          `json:"metric" firestore:"metric"`
	Target       float64                         `json:"target" firestore:"target"`
	StartDate    time.Time                       `json:"startDate" firestore:"startDate"`
	EndDate      time.Time                       `json:"endDate" firestore:"endDate"`
	Participants map[string]ChallengeParticipant `json:"participants" firestore:"participants"`
	CreatedAt    time.Time                       `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

// ChallengeParticipant is a student's standing in a challenge.
type ChallengeParticipant struct {
	Progress    float64    `json:"progress" firestore:"progress"`
	Completed   bool       `json:"completed" firestore:"completed"`
	JoinedAt    time.Time  `json:"joinedAt" firestore:"joinedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" firestore:"completedAt,omitempty"`
}

// IsActiveAt reports whether t falls inside the challenge window (inclusive).
func (c *TeamChallenge) IsActiveAt(t time.Time) bool {
	return !t.Before(c.StartDate) && !t.After(c.EndDate)
}
