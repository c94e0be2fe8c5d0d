package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fitcoach-backend/internal/models"
)

// NotificationWriter stores in-app notifications.
type NotificationWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

// UserReader looks up recipients for email.
type UserReader interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// Mailer sends a single email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotificationConsumer turns domain events into notification documents and, for
// premium activations, a welcome email.
type NotificationConsumer struct {
	notifications NotificationWriter
	users         UserReader
	mailer        Mailer // nil disables email
	logger        *zap.Logger
	now           func() time.Time
}

// NewNotificationConsumer wires the consumer. mailer may be nil.
func NewNotificationConsumer(notifications NotificationWriter, users UserReader, mailer Mailer, logger *zap.Logger) *NotificationConsumer {
	return &NotificationConsumer{
		notifications: notifications,
		users:         users,
		mailer:        mailer,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type notice struct {
	recipient string
	title     string
	body      string
}

// Handle implements Handler.
func (c *NotificationConsumer) Handle(ctx context.Context, e Event) error {
	var notices []notice
	switch e.Type {
	case WorkoutCompleted:
		notices = append(notices, notice{e.UserID, "Workout complete", fmt.Sprintf("Great job! You moved %s kg in total.", e.Data["totalVolume"])})
		if e.TrainerID != "" {
			notices = append(notices, notice{e.TrainerID, "Student trained", fmt.Sprintf("%s finished %s.", nameOr(e.Data["studentName"], "A student"), nameOr(e.Data["workoutName"], "a workout"))})
		}
	case StudentLinked:
		notices = append(notices,
			notice{e.TrainerID, "New student", fmt.Sprintf("%s joined with your coach code.", nameOr(e.Data["studentName"], "A new student"))},
			notice{e.UserID, "Coach linked", fmt.Sprintf("You are now coached by %s.", nameOr(e.Data["trainerName"], "your trainer"))},
		)
	case StudentUnlinked:
		notices = append(notices, notice{e.TrainerID, "Student left", fmt.Sprintf("%s is no longer linked to you.", nameOr(e.Data["studentName"], "A student"))})
	case RewardLevelUp:
		notices = append(notices, notice{e.TrainerID, "Level up!", fmt.Sprintf("You reached the %s reward level.", e.Data["level"])})
	case RoutineAssigned:
		notices = append(notices, notice{e.UserID, "New routine", fmt.Sprintf("Your coach assigned \"%s\".", e.Data["routineName"])})
	case PremiumActivated:
		notices = append(notices, notice{e.UserID, "Welcome to Premium", "AI routines and recipes are now unlocked."})
		c.sendPremiumEmail(ctx, e.UserID)
	default:
		c.logger.Debug("Ignoring event", zap.String("type", e.Type))
		return nil
	}

	var errs []error
	for _, n := range notices {
		if n.recipient == "" {
			continue
		}
		err := c.notifications.Create(ctx, &models.Notification{
			UserID:    n.recipient,
			Type:      e.Type,
			Title:     n.title,
			Body:      n.body,
			Data:      e.Data,
			CreatedAt: c.now(),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", n.recipient, err))
		}
	}
	return errors.Join(errs...)
}

// Email failures are logged only; the notification is what the client relies on.
func (c *NotificationConsumer) sendPremiumEmail(ctx context.Context, uid string) {
	if c.mailer == nil || c.users == nil {
		return
	}
	user, err := c.users.GetByID(ctx, uid)
	if err != nil || user.Email == "" {
		c.logger.Warn("Skipping premium email, no address", zap.String("userID", uid), zap.Error(err))
		return
	}
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your FitCoach Premium subscription is active. AI-generated routines and recipes are now available in the app.</p>",
		nameOr(user.DisplayName, "there"))
	if err := c.mailer.Send(ctx, user.Email, "Welcome to FitCoach Premium", body); err != nil {
		c.logger.Warn("Failed to send premium email", zap.String("userID", uid), zap.Error(err))
	}
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
