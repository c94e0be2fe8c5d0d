package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"fitcoach-backend/internal/models"
)

const usersCollection = "users"

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for UserRepository.")
	}
	return &firestoreUserRepository{client: client}
}

// Create adds a new user document. The Firebase Auth UID is the document ID.
func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Create operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Create(ctx, user)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("user with ID '%s' already exists: %w", user.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user with ID '%s': %w", user.ID, err)
	}
	return nil
}

// GetByID retrieves a user document by its Firebase Auth UID.
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}
	return decodeUser(docSnap)
}

// UpdateProfile writes the profile, display name and onboarding flag with a
// field-scoped Update so concurrent premium or coach changes survive.
func (r *firestoreUserRepository) UpdateProfile(ctx context.Context, userID string, u ProfileUpdate) error {
	if userID == "" {
		return errors.New("userID cannot be empty for UpdateProfile operation")
	}
	updates := []firestore.Update{
		{Path: "profile", Value: u.Profile},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}
	if u.DisplayName != nil {
		updates = append(updates, firestore.Update{Path: "displayName", Value: *u.DisplayName})
	}
	if u.OnboardingCompleted {
		updates = append(updates, firestore.Update{Path: "onboardingCompleted", Value: true})
	}

	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, updates)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update profile for user '%s': %w", userID, err)
	}
	return nil
}

// SetPremium updates only the billing fields of a user.
func (r *firestoreUserRepository) SetPremium(ctx context.Context, userID string, u PremiumUpdate) error {
	if userID == "" {
		return errors.New("userID cannot be empty for SetPremium operation")
	}
	updates := []firestore.Update{
		{Path: "isPremium", Value: u.IsPremium},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}
	if u.Provider != "" {
		updates = append(updates, firestore.Update{Path: "premiumProvider", Value: u.Provider})
	}
	if u.StripeCustomerID != "" {
		updates = append(updates, firestore.Update{Path: "stripeCustomerId", Value: u.StripeCustomerID})
	}
	switch {
	case !u.IsPremium:
		updates = append(updates, firestore.Update{Path: "stripeSubscriptionId", Value: firestore.Delete})
	case u.StripeSubscriptionID != "":
		updates = append(updates, firestore.Update{Path: "stripeSubscriptionId", Value: u.StripeSubscriptionID})
	}
	if u.Since != nil {
		updates = append(updates, firestore.Update{Path: "premiumSince", Value: *u.Since})
	}

	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, updates)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to set premium for user '%s': %w", userID, err)
	}
	return nil
}

// FindByStripeCustomerID returns the user linked to a Stripe customer.
func (r *firestoreUserRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	if customerID == "" {
		return nil, errors.New("customerID cannot be empty")
	}
	iter := r.client.Collection(usersCollection).Where("stripeCustomerId", "==", customerID).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("user with stripe customer '%s' not found: %w", customerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by stripe customer: %w", err)
	}
	return decodeUser(doc)
}

// ListByCoachID returns the students linked to a trainer.
func (r *firestoreUserRepository) ListByCoachID(ctx context.Context, trainerID string) ([]*models.User, error) {
	if trainerID == "" {
		return nil, errors.New("trainerID cannot be empty for ListByCoachID operation")
	}
	iter := r.client.Collection(usersCollection).Where("coachId", "==", trainerID).Documents(ctx)
	defer iter.Stop()

	var users []*models.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate students of trainer '%s': %w", trainerID, err)
		}
		user, err := decodeUser(doc)
		if err != nil {
			log.Printf("Error decoding user %s: %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// SetActiveRoutine points the user at a routine document.
func (r *firestoreUserRepository) SetActiveRoutine(ctx context.Context, userID, routineID string) error {
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "activeRoutineId", Value: routineID},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to set active routine for user '%s': %w", userID, err)
	}
	return nil
}

func decodeUser(doc *firestore.DocumentSnapshot) (*models.User, error) {
	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", doc.Ref.ID, err)
	}
	user.ID = doc.Ref.ID
	return &user, nil
}
