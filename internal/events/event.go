// Package events carries domain events from services to asynchronous consumers,
// either through RabbitMQ or an in-process dispatcher.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	WorkoutCompleted = "workout.completed"
	StudentLinked    = "student.linked"
	StudentUnlinked  = "student.unlinked"
	RewardLevelUp    = "reward.level_up"
	PremiumActivated = "premium.activated"
	RoutineAssigned  = "routine.assigned"
)

// Event is a domain event. UserID is the user the event is about; TrainerID is set
// when a coach is involved.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	UserID     string            `json:"userId,omitempty"`
	TrainerID  string            `json:"trainerId,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// New stamps an event with an ID and the current time.
func New(eventType, userID, trainerID string, data map[string]string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		TrainerID:  trainerID,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}
