package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"fitcoach-backend/internal/models"
)

const (
	workoutsCollection        = "workouts"
	personalRecordsCollection = "personalRecords"
)

type firestoreWorkoutRepository struct {
	client *firestore.Client
}

// NewFirestoreWorkoutRepository creates a WorkoutRepository backed by Firestore.
func NewFirestoreWorkoutRepository(client *firestore.Client) WorkoutRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for WorkoutRepository.")
	}
	return &firestoreWorkoutRepository{client: client}
}

func (r *firestoreWorkoutRepository) Create(ctx context.Context, w *models.Workout) (string, error) {
	docRef := r.client.Collection(workoutsCollection).NewDoc()
	w.ID = docRef.ID
	if _, err := docRef.Create(ctx, w); err != nil {
		return "", fmt.Errorf("failed to create workout: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreWorkoutRepository) GetByID(ctx context.Context, workoutID string) (*models.Workout, error) {
	if workoutID == "" {
		return nil, errors.New("workoutID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(workoutsCollection).Doc(workoutID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("workout with ID '%s' not found: %w", workoutID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get workout with ID '%s': %w", workoutID, err)
	}
	return decodeWorkout(docSnap)
}

// Modify runs fn against a fresh read inside a transaction, so status checks in
// fn and the write cannot interleave with another writer.
func (r *firestoreWorkoutRepository) Modify(ctx context.Context, workoutID string, fn func(w *models.Workout) error) (*models.Workout, error) {
	if workoutID == "" {
		return nil, errors.New("workoutID cannot be empty for Modify operation")
	}
	ref := r.client.Collection(workoutsCollection).Doc(workoutID)
	var result *models.Workout
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("workout with ID '%s' not found: %w", workoutID, ErrNotFound)
			}
			return err
		}
		w, err := decodeWorkout(snap)
		if err != nil {
			return err
		}
		if err := fn(w); err != nil {
			return err
		}
		result = w
		return tx.Set(ref, w)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListByUser returns the user's workouts, newest first.
func (r *firestoreWorkoutRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Workout, error) {
	query := r.client.Collection(workoutsCollection).
		Where("userId", "==", userID).
		OrderBy("startedAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	return collectWorkouts(query.Documents(ctx))
}

func (r *firestoreWorkoutRepository) ListCompleted(ctx context.Context, userID string, from, to time.Time) ([]*models.Workout, error) {
	query := r.client.Collection(workoutsCollection).
		Where("userId", "==", userID).
		Where("status", "==", string(models.WorkoutCompleted)).
		Where("startedAt", ">=", from).
		Where("startedAt", "<", to).
		OrderBy("startedAt", firestore.Asc)
	return collectWorkouts(query.Documents(ctx))
}

func collectWorkouts(iter *firestore.DocumentIterator) ([]*models.Workout, error) {
	defer iter.Stop()
	var workouts []*models.Workout
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate workouts: %w", err)
		}
		w, err := decodeWorkout(doc)
		if err != nil {
			log.Printf("Error decoding workout %s: %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		workouts = append(workouts, w)
	}
	return workouts, nil
}

func decodeWorkout(doc *firestore.DocumentSnapshot) (*models.Workout, error) {
	var w models.Workout
	if err := doc.DataTo(&w); err != nil {
		return nil, fmt.Errorf("failed to decode workout data for ID '%s': %w", doc.Ref.ID, err)
	}
	w.ID = doc.Ref.ID
	return &w, nil
}

type firestorePersonalRecordRepository struct {
	client *firestore.Client
}

// NewFirestorePersonalRecordRepository creates a PersonalRecordRepository backed by Firestore.
func NewFirestorePersonalRecordRepository(client *firestore.Client) PersonalRecordRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for PersonalRecordRepository.")
	}
	return &firestorePersonalRecordRepository{client: client}
}

func (r *firestorePersonalRecordRepository) records(userID string) *firestore.CollectionRef {
	return r.client.Collection(usersCollection).Doc(userID).Collection(personalRecordsCollection)
}

func (r *firestorePersonalRecordRepository) Get(ctx context.Context, userID, exerciseID string) (*models.PersonalRecord, error) {
	docSnap, err := r.records(userID).Doc(exerciseID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("personal record '%s' for user '%s' not found: %w", exerciseID, userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get personal record '%s': %w", exerciseID, err)
	}
	var pr models.PersonalRecord
	if err := docSnap.DataTo(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode personal record '%s': %w", exerciseID, err)
	}
	pr.ExerciseID = docSnap.Ref.ID
	return &pr, nil
}

func (r *firestorePersonalRecordRepository) Upsert(ctx context.Context, userID string, pr *models.PersonalRecord) error {
	if pr.ExerciseID == "" {
		return errors.New("exerciseID cannot be empty for Upsert operation")
	}
	data := map[string]interface{}{
		"weightKg":   pr.WeightKg,
		"reps":       pr.Reps,
		"workoutId":  pr.WorkoutID,
		"achievedAt": pr.AchievedAt,
	}
	if _, err := r.records(userID).Doc(pr.ExerciseID).Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to upsert personal record '%s': %w", pr.ExerciseID, err)
	}
	return nil
}

func (r *firestorePersonalRecordRepository) ListByUser(ctx context.Context, userID string) ([]*models.PersonalRecord, error) {
	iter := r.records(userID).Documents(ctx)
	defer iter.Stop()

	var records []*models.PersonalRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate personal records: %w", err)
		}
		var pr models.PersonalRecord
		if err := doc.DataTo(&pr); err != nil {
			log.Printf("Error decoding personal record %s: %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		pr.ExerciseID = doc.Ref.ID
		records = append(records, &pr)
	}
	return records, nil
}
