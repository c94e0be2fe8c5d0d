package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"

	"fitcoach-backend/internal/models"
)

const routineProgressCollection = "routineProgress"

type firestoreProgressRepository struct {
	client *firestore.Client
}

// NewFirestoreProgressRepository creates a ProgressRepository backed by Firestore.
func NewFirestoreProgressRepository(client *firestore.Client) ProgressRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ProgressRepository.")
	}
	return &firestoreProgressRepository{client: client}
}

func (r *firestoreProgressRepository) Get(ctx context.Context, id string) (*models.RoutineProgress, error) {
	docSnap, err := r.client.Collection(routineProgressCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("routine progress '%s' not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get routine progress '%s': %w", id, err)
	}
	var p models.RoutineProgress
	if err := docSnap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode routine progress '%s': %w", id, err)
	}
	p.ID = docSnap.Ref.ID
	return &p, nil
}

// Upsert creates the week document on first write and merges afterwards.
func (r *firestoreProgressRepository) Upsert(ctx context.Context, p *models.RoutineProgress) error {
	if p.ID == "" {
		return errors.New("routine progress ID cannot be empty for Upsert operation")
	}
	data := map[string]interface{}{
		"userId":            p.UserID,
		"routineId":         p.RoutineID,
		"weekStart":         p.WeekStart,
		"targetDays":        p.TargetDays,
		"completedDays":     p.CompletedDays,
		"completedWorkouts": p.CompletedWorkouts,
		"workoutIds":        p.WorkoutIDs,
		"completionRate":    p.CompletionRate,
		"updatedAt":         firestore.ServerTimestamp,
	}
	if _, err := r.client.Collection(routineProgressCollection).Doc(p.ID).Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to upsert routine progress '%s': %w", p.ID, err)
	}
	return nil
}
