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

const teamChallengesCollection = "teamChallenges"

// ErrNotParticipant is returned when progress is recorded for a student who has not joined.
var ErrNotParticipant = errors.New("student has not joined the challenge")

type firestoreChallengeRepository struct {
	client *firestore.Client
}

// NewFirestoreChallengeRepository creates a ChallengeRepository backed by Firestore.
func NewFirestoreChallengeRepository(client *firestore.Client) ChallengeRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ChallengeRepository.")
	}
	return &firestoreChallengeRepository{client: client}
}

func (r *firestoreChallengeRepository) Create(ctx context.Context, c *models.TeamChallenge) (string, error) {
	docRef := r.client.Collection(teamChallengesCollection).NewDoc()
	c.ID = docRef.ID
	if c.Participants == nil {
		c.Participants = map[string]models.ChallengeParticipant{}
	}
	if _, err := docRef.Create(ctx, c); err != nil {
		return "", fmt.Errorf("failed to create challenge: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreChallengeRepository) GetByID(ctx context.Context, id string) (*models.TeamChallenge, error) {
	if id == "" {
		return nil, errors.New("challenge ID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(teamChallengesCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("challenge '%s' not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get challenge '%s': %w", id, err)
	}
	return decodeChallenge(docSnap)
}

func (r *firestoreChallengeRepository) ListByTrainer(ctx context.Context, trainerID string) ([]*models.TeamChallenge, error) {
	iter := r.client.Collection(teamChallengesCollection).
		Where("trainerId", "==", trainerID).
		OrderBy("endDate", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var out []*models.TeamChallenge
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate challenges: %w", err)
		}
		c, err := decodeChallenge(doc)
		if err != nil {
			log.Printf("Error decoding challenge %s: %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// AddParticipant writes participants.{studentID}; other participants are untouched.
func (r *firestoreChallengeRepository) AddParticipant(ctx context.Context, challengeID, studentID string, p models.ChallengeParticipant) error {
	_, err := r.client.Collection(teamChallengesCollection).Doc(challengeID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"participants", studentID}, Value: p},
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("challenge '%s' not found: %w", challengeID, ErrNotFound)
		}
		return fmt.Errorf("failed to join challenge '%s': %w", challengeID, err)
	}
	return nil
}

func (r *firestoreChallengeRepository) AddProgress(ctx context.Context, challengeID, studentID string, delta float64, at time.Time) (bool, error) {
	completedNow := false
	ref := r.client.Collection(teamChallengesCollection).Doc(challengeID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		completedNow = false
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("challenge '%s': %w", challengeID, ErrNotFound)
			}
			return err
		}
		c, err := decodeChallenge(snap)
		if err != nil {
			return err
		}
		p, ok := c.Participants[studentID]
		if !ok {
			return ErrNotParticipant
		}
		p.Progress += delta
		if !p.Completed && p.Progress >= c.Target {
			p.Completed = true
			done := at.UTC()
			p.CompletedAt = &done
			completedNow = true
		}
		return tx.Update(ref, []firestore.Update{
			{FieldPath: firestore.FieldPath{"participants", studentID}, Value: p},
		})
	})
	if err != nil {
		return false, fmt.Errorf("record challenge progress '%s': %w", challengeID, err)
	}
	return completedNow, nil
}

func decodeChallenge(doc *firestore.DocumentSnapshot) (*models.TeamChallenge, error) {
	var c models.TeamChallenge
	if err := doc.DataTo(&c); err != nil {
		return nil, fmt.Errorf("failed to decode challenge data for ID '%s': %w", doc.Ref.ID, err)
	}
	c.ID = doc.Ref.ID
	return &c, nil
}
