package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fitcoach-backend/internal/db"
	"fitcoach-backend/internal/models"
)

// ErrNotificationNotFound is returned for unknown or foreign notifications.
var ErrNotificationNotFound = errors.New("notification not found")

type notificationService struct {
	notifications db.NotificationRepository
	logger        *zap.Logger
	now           func() time.Time
}

// NewNotificationService creates a new NotificationService instance.
func NewNotificationService(notifications db.NotificationRepository, logger *zap.Logger) NotificationService {
	return &notificationService{
		notifications: notifications,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *notificationService) Create(ctx context.Context, n *models.Notification) error {
	if n.UserID == "" {
		return errors.New("notification recipient cannot be empty")
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification for '%s': %w", n.UserID, err)
	}
	return nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID string, limit int, unreadOnly bool) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	list, err := s.notifications.ListByUser(ctx, userID, limit, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for '%s': %w", userID, err)
	}
	return list, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.notifications.MarkRead(ctx, userID, notificationID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotificationNotFound, notificationID)
		}
		return fmt.Errorf("failed to mark notification '%s' read: %w", notificationID, err)
	}
	return nil
}
