package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"fitcoach-backend/internal/models"
)

const notificationsCollection = "notifications"

type firestoreNotificationRepository struct {
	client *firestore.Client
}

// NewFirestoreNotificationRepository creates a NotificationRepository backed by Firestore.
func NewFirestoreNotificationRepository(client *firestore.Client) NotificationRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for NotificationRepository.")
	}
	return &firestoreNotificationRepository{client: client}
}

func (r *firestoreNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	docRef := r.client.Collection(notificationsCollection).NewDoc()
	n.ID = docRef.ID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := docRef.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByUser returns the user's notifications, newest first.
func (r *firestoreNotificationRepository) ListByUser(ctx context.Context, userID string, limit int, unreadOnly bool) ([]*models.Notification, error) {
	query := r.client.Collection(notificationsCollection).Where("userId", "==", userID)
	if unreadOnly {
		query = query.Where("read", "==", false)
	}
	query = query.OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []*models.Notification
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate notifications: %w", err)
		}
		var n models.Notification
		if err := doc.DataTo(&n); err != nil {
			log.Printf("Error decoding notification %s: %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		n.ID = doc.Ref.ID
		out = append(out, &n)
	}
	return out, nil
}

// MarkRead flags a notification as read. A notification owned by someone else
// is reported as not found.
func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	ref := r.client.Collection(notificationsCollection).Doc(notificationID)
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("notification '%s' not found: %w", notificationID, ErrNotFound)
			}
			return err
		}
		owner, _ := snap.DataAt("userId")
		if s, _ := owner.(string); s != userID {
			return fmt.Errorf("notification '%s' not found: %w", notificationID, ErrNotFound)
		}
		return tx.Update(ref, []firestore.Update{{Path: "read", Value: true}})
	})
}
