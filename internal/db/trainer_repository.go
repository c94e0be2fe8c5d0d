package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"

	"fitcoach-backend/internal/models"
)

const (
	trainersCollection   = "trainers"
	coachCodesCollection = "coachCodes"
)

type firestoreTrainerRepository struct {
	client *firestore.Client
}

// NewFirestoreTrainerRepository creates a TrainerRepository backed by Firestore.
func NewFirestoreTrainerRepository(client *firestore.Client) TrainerRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for TrainerRepository.")
	}
	return &firestoreTrainerRepository{client: client}
}

func (r *firestoreTrainerRepository) trainerRef(id string) *firestore.DocumentRef {
	return r.client.Collection(trainersCollection).Doc(id)
}

func (r *firestoreTrainerRepository) codeRef(code string) *firestore.DocumentRef {
	return r.client.Collection(coachCodesCollection).Doc(code)
}

func (r *firestoreTrainerRepository) GetByID(ctx context.Context, trainerID string) (*models.Trainer, error) {
	if trainerID == "" {
		return nil, errors.New("trainerID cannot be empty for GetByID operation")
	}
	docSnap, err := r.trainerRef(trainerID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("trainer with ID '%s' not found: %w", trainerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get trainer with ID '%s': %w", trainerID, err)
	}
	return decodeTrainer(docSnap)
}

func (r *firestoreTrainerRepository) CreateWithCode(ctx context.Context, t *models.Trainer) error {
	if t.ID == "" || t.CoachCode == "" {
		return errors.New("trainer ID and coach code are required for CreateWithCode")
	}
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(r.trainerRef(t.ID)); err == nil {
			return fmt.Errorf("trainer '%s': %w", t.ID, ErrAlreadyExists)
		} else if !isNotFound(err) {
			return err
		}
		if _, err := tx.Get(r.codeRef(t.CoachCode)); err == nil {
			return fmt.Errorf("code '%s': %w", t.CoachCode, ErrCodeTaken)
		} else if !isNotFound(err) {
			return err
		}

		if err := tx.Create(r.trainerRef(t.ID), t); err != nil {
			return err
		}
		return tx.Create(r.codeRef(t.CoachCode), models.CoachCodeIndex{TrainerID: t.ID, CreatedAt: time.Now().UTC()})
	})
}

func (r *firestoreTrainerRepository) Update(ctx context.Context, t *models.Trainer) error {
	if t.ID == "" {
		return errors.New("trainer ID cannot be empty for Update operation")
	}
	if _, err := r.trainerRef(t.ID).Set(ctx, t); err != nil {
		return fmt.Errorf("failed to update trainer with ID '%s': %w", t.ID, err)
	}
	return nil
}

// ResolveCode returns the trainer ID a coach code points to.
func (r *firestoreTrainerRepository) ResolveCode(ctx context.Context, code string) (string, error) {
	docSnap, err := r.codeRef(code).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("coach code '%s' not found: %w", code, ErrNotFound)
		}
		return "", fmt.Errorf("failed to resolve coach code '%s': %w", code, err)
	}
	var idx models.CoachCodeIndex
	if err := docSnap.DataTo(&idx); err != nil {
		return "", fmt.Errorf("failed to decode coach code '%s': %w", code, err)
	}
	return idx.TrainerID, nil
}

func (r *firestoreTrainerRepository) ReplaceCode(ctx context.Context, trainerID, newCode string) error {
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(r.trainerRef(trainerID))
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("trainer '%s': %w", trainerID, ErrNotFound)
			}
			return err
		}
		trainer, err := decodeTrainer(snap)
		if err != nil {
			return err
		}
		if _, err := tx.Get(r.codeRef(newCode)); err == nil {
			return fmt.Errorf("code '%s': %w", newCode, ErrCodeTaken)
		} else if !isNotFound(err) {
			return err
		}

		if trainer.CoachCode != "" {
			if err := tx.Delete(r.codeRef(trainer.CoachCode)); err != nil {
				return err
			}
		}
		if err := tx.Create(r.codeRef(newCode), models.CoachCodeIndex{TrainerID: trainerID, CreatedAt: time.Now().UTC()}); err != nil {
			return err
		}
		return tx.Update(r.trainerRef(trainerID), []firestore.Update{
			{Path: "coachCode", Value: newCode},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
}

// LinkStudent resolves the code, sets the student's coachId and credits the trainer,
// all in one transaction.
func (r *firestoreTrainerRepository) LinkStudent(ctx context.Context, studentID, code string, points int, level LevelFunc) (*RewardResult, error) {
	var result *RewardResult
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		codeSnap, err := tx.Get(r.codeRef(code))
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("coach code '%s': %w", code, ErrNotFound)
			}
			return err
		}
		var idx models.CoachCodeIndex
		if err := codeSnap.DataTo(&idx); err != nil {
			return err
		}
		if idx.TrainerID == studentID {
			return ErrSelfLink
		}

		userRef := r.client.Collection(usersCollection).Doc(studentID)
		userSnap, err := tx.Get(userRef)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("student '%s': %w", studentID, ErrNotFound)
			}
			return err
		}
		coachID, _ := userSnap.DataAt("coachId")
		if s, ok := coachID.(string); ok && s != "" {
			return ErrAlreadyLinked
		}

		trainerSnap, err := tx.Get(r.trainerRef(idx.TrainerID))
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("trainer '%s': %w", idx.TrainerID, ErrNotFound)
			}
			return err
		}
		trainer, err := decodeTrainer(trainerSnap)
		if err != nil {
			return err
		}

		previous := trainer.RewardLevel
		trainer.StudentCount++
		trainer.RewardPoints += points
		trainer.RewardLevel = level(trainer.RewardPoints)

		if err := tx.Update(userRef, []firestore.Update{
			{Path: "coachId", Value: idx.TrainerID},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		}); err != nil {
			return err
		}
		if err := tx.Update(r.trainerRef(trainer.ID), []firestore.Update{
			{Path: "studentCount", Value: trainer.StudentCount},
			{Path: "rewardPoints", Value: trainer.RewardPoints},
			{Path: "rewardLevel", Value: trainer.RewardLevel},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		}); err != nil {
			return err
		}
		result = &RewardResult{Trainer: trainer, PreviousLevel: previous}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("link student '%s': %w", studentID, err)
	}
	return result, nil
}

// UnlinkStudent clears the student's coachId and decrements the trainer's
// studentCount, never below zero. It returns the former trainer ID.
func (r *firestoreTrainerRepository) UnlinkStudent(ctx context.Context, studentID string) (string, error) {
	var trainerID string
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		userRef := r.client.Collection(usersCollection).Doc(studentID)
		userSnap, err := tx.Get(userRef)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("student '%s': %w", studentID, ErrNotFound)
			}
			return err
		}
		coachID, _ := userSnap.DataAt("coachId")
		s, _ := coachID.(string)
		if s == "" {
			return ErrNotLinked
		}
		trainerID = s

		trainerSnap, err := tx.Get(r.trainerRef(trainerID))
		trainerExists := true
		if err != nil {
			if !isNotFound(err) {
				return err
			}
			trainerExists = false
		}

		if err := tx.Update(userRef, []firestore.Update{
			{Path: "coachId", Value: firestore.Delete},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		}); err != nil {
			return err
		}
		if !trainerExists {
			return nil
		}
		trainer, err := decodeTrainer(trainerSnap)
		if err != nil {
			return err
		}
		count := trainer.StudentCount - 1
		if count < 0 {
			count = 0
		}
		return tx.Update(r.trainerRef(trainerID), []firestore.Update{
			{Path: "studentCount", Value: count},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return "", fmt.Errorf("unlink student '%s': %w", studentID, err)
	}
	return trainerID, nil
}

func (r *firestoreTrainerRepository) AwardPoints(ctx context.Context, trainerID string, points int, level LevelFunc) (*RewardResult, error) {
	var result *RewardResult
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(r.trainerRef(trainerID))
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("trainer '%s': %w", trainerID, ErrNotFound)
			}
			return err
		}
		trainer, err := decodeTrainer(snap)
		if err != nil {
			return err
		}
		previous := trainer.RewardLevel
		trainer.RewardPoints += points
		if trainer.RewardPoints < 0 {
			trainer.RewardPoints = 0
		}
		trainer.RewardLevel = level(trainer.RewardPoints)
		result = &RewardResult{Trainer: trainer, PreviousLevel: previous}
		return tx.Update(snap.Ref, []firestore.Update{
			{Path: "rewardPoints", Value: trainer.RewardPoints},
			{Path: "rewardLevel", Value: trainer.RewardLevel},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("award points to '%s': %w", trainerID, err)
	}
	return result, nil
}

func decodeTrainer(doc *firestore.DocumentSnapshot) (*models.Trainer, error) {
	var t models.Trainer
	if err := doc.DataTo(&t); err != nil {
		return nil, fmt.Errorf("failed to decode trainer data for ID '%s': %w", doc.Ref.ID, err)
	}
	t.ID = doc.Ref.ID
	return &t, nil
}
