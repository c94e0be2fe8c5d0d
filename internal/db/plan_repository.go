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

const (
	routinesCollection       = "routines"
	nutritionPlansCollection = "nutritionPlans"
)

// firestoreRoutineRepository keeps generated routines under users/{uid}/routines.
type firestoreRoutineRepository struct {
	client *firestore.Client
}

// NewFirestoreRoutineRepository creates a RoutineRepository backed by Firestore.
func NewFirestoreRoutineRepository(client *firestore.Client) RoutineRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for RoutineRepository.")
	}
	return &firestoreRoutineRepository{client: client}
}

func (r *firestoreRoutineRepository) routines(userID string) *firestore.CollectionRef {
	return r.client.Collection(usersCollection).Doc(userID).Collection(routinesCollection)
}

func (r *firestoreRoutineRepository) Create(ctx context.Context, userID string, routine *models.Routine) (string, error) {
	if userID == "" {
		return "", errors.New("userID cannot be empty for Create operation")
	}
	docRef := r.routines(userID).NewDoc()
	routine.ID = docRef.ID
	routine.UserID = userID
	if _, err := docRef.Create(ctx, routine); err != nil {
		return "", fmt.Errorf("failed to create routine: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreRoutineRepository) GetByID(ctx context.Context, userID, routineID string) (*models.Routine, error) {
	if routineID == "" {
		return nil, errors.New("routineID cannot be empty for GetByID operation")
	}
	docSnap, err := r.routines(userID).Doc(routineID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("routine with ID '%s' not found: %w", routineID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get routine with ID '%s': %w", routineID, err)
	}
	var routine models.Routine
	if err := docSnap.DataTo(&routine); err != nil {
		return nil, fmt.Errorf("failed to decode routine data for ID '%s': %w", routineID, err)
	}
	routine.ID = docSnap.Ref.ID
	return &routine, nil
}

func (r *firestoreRoutineRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Routine, error) {
	query := r.routines(userID).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	iter := query.Documents(ctx)
	defer iter.Stop()

	var routines []*models.Routine
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate routines: %w", err)
		}
		var routine models.Routine
		if err := doc.DataTo(&routine); err != nil {
			log.Printf("Error decoding routine %s: %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		routine.ID = doc.Ref.ID
		routines = append(routines, &routine)
	}
	return routines, nil
}

type firestoreNutritionRepository struct {
	client *firestore.Client
}

// NewFirestoreNutritionRepository creates a NutritionRepository backed by Firestore.
func NewFirestoreNutritionRepository(client *firestore.Client) NutritionRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for NutritionRepository.")
	}
	return &firestoreNutritionRepository{client: client}
}

func (r *firestoreNutritionRepository) plans(userID string) *firestore.CollectionRef {
	return r.client.Collection(usersCollection).Doc(userID).Collection(nutritionPlansCollection)
}

func (r *firestoreNutritionRepository) Create(ctx context.Context, userID string, p *models.NutritionPlan) (string, error) {
	docRef := r.plans(userID).NewDoc()
	p.ID = docRef.ID
	p.UserID = userID
	if _, err := docRef.Create(ctx, p); err != nil {
		return "", fmt.Errorf("failed to create nutrition plan: %w", err)
	}
	return docRef.ID, nil
}

// GetLatest returns the most recently generated plan.
func (r *firestoreNutritionRepository) GetLatest(ctx context.Context, userID string) (*models.NutritionPlan, error) {
	iter := r.plans(userID).OrderBy("createdAt", firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("no nutrition plan for user '%s': %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query nutrition plans: %w", err)
	}
	var p models.NutritionPlan
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode nutrition plan '%s': %w", doc.Ref.ID, err)
	}
	p.ID = doc.Ref.ID
	return &p, nil
}
