package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"fitcoach-backend/internal/models"
)

const assignedRoutinesCollection = "assignedRoutines"

type firestoreAssignedRoutineRepository struct {
	client *firestore.Client
}

// NewFirestoreAssignedRoutineRepository creates an AssignedRoutineRepository backed by Firestore.
func NewFirestoreAssignedRoutineRepository(client *firestore.Client) AssignedRoutineRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for AssignedRoutineRepository.")
	}
	return &firestoreAssignedRoutineRepository{client: client}
}

func (r *firestoreAssignedRoutineRepository) Create(ctx context.Context, a *models.AssignedRoutine) (string, error) {
	docRef := r.client.Collection(assignedRoutinesCollection).NewDoc()
	a.ID = docRef.ID
	if _, err := docRef.Create(ctx, a); err != nil {
		return "", fmt.Errorf("failed to create assigned routine: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreAssignedRoutineRepository) GetByID(ctx context.Context, id string) (*models.AssignedRoutine, error) {
	if id == "" {
		return nil, errors.New("assigned routine ID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(assignedRoutinesCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("assigned routine '%s' not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get assigned routine '%s': %w", id, err)
	}
	var a models.AssignedRoutine
	if err := docSnap.DataTo(&a); err != nil {
		return nil, fmt.Errorf("failed to decode assigned routine '%s': %w", id, err)
	}
	a.ID = docSnap.Ref.ID
	return &a, nil
}

func (r *firestoreAssignedRoutineRepository) ListByStudent(ctx context.Context, studentID string) ([]*models.AssignedRoutine, error) {
	return r.list(ctx, "studentId", studentID)
}

func (r *firestoreAssignedRoutineRepository) ListByTrainer(ctx context.Context, trainerID string) ([]*models.AssignedRoutine, error) {
	return r.list(ctx, "trainerId", trainerID)
}

func (r *firestoreAssignedRoutineRepository) list(ctx context.Context, field, value string) ([]*models.AssignedRoutine, error) {
	iter := r.client.Collection(assignedRoutinesCollection).
		Where(field, "==", value).
		OrderBy("assignedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var out []*models.AssignedRoutine
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate assigned routines: %w", err)
		}
		var a models.AssignedRoutine
		if err := doc.DataTo(&a); err != nil {
			log.Printf("Error decoding assigned routine %s: %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		a.ID = doc.Ref.ID
		out = append(out, &a)
	}
	return out, nil
}

func (r *firestoreAssignedRoutineRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.client.Collection(assignedRoutinesCollection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete assigned routine '%s': %w", id, err)
	}
	return nil
}
