package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"fitcoach-backend/internal/db"
	"fitcoach-backend/internal/models"
)

var (
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrChallengeNotActive = errors.New("challenge is not active")
	ErrAlreadyJoined      = errors.New("already joined this challenge")
	ErrInvalidChallenge   = errors.New("invalid challenge")
)

type challengeService struct {
	challenges db.ChallengeRepository
	trainers   db.TrainerRepository
	users      db.UserRepository
	rewards    TrainerService
	logger     *zap.Logger
	now        func() time.Time
}

// NewChallengeService creates a new ChallengeService instance. rewards credits the
// trainer when a student completes a challenge and may be nil.
func NewChallengeService(challenges db.ChallengeRepository, trainers db.TrainerRepository, users db.UserRepository,
	rewards TrainerService, logger *zap.Logger) ChallengeService {
	return &challengeService{
		challenges: challenges,
		trainers:   trainers,
		users:      users,
		rewards:    rewards,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *challengeService) Create(ctx context.Context, trainerID string, req models.CreateChallengeRequest) (*models.TeamChallenge, error) {
	if _, err := s.trainers.GetByID(ctx, trainerID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTrainerNotFound, trainerID)
		}
		return nil, fmt.Errorf("failed to get trainer '%s': %w", trainerID, err)
	}
	switch {
	case req.Metric != models.ChallengeMetricWorkouts && req.Metric != models.ChallengeMetricVolume:
		return nil, fmt.Errorf("%w: unknown metric '%s'", ErrInvalidChallenge, req.Metric)
	case req.Target <= 0:
		return nil, fmt.Errorf("%w: target must be positive", ErrInvalidChallenge)
	case !req.EndDate.After(req.StartDate):
		return nil, fmt.Errorf("%w: end date must be after start date", ErrInvalidChallenge)
	}

	c := &models.TeamChallenge{
		TrainerID:    trainerID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Metric:       req.Metric,
		Target:       req.Target,
		StartDate:    req.StartDate.UTC(),
		EndDate:      req.EndDate.UTC(),
		Participants: map[string]models.ChallengeParticipant{},
		CreatedAt:    s.now(),
	}
	if _, err := s.challenges.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}
	return c, nil
}

// Join enrolls a student in an active challenge run by their own coach.
func (s *challengeService) Join(ctx context.Context, studentID, challengeID string) (*models.TeamChallenge, error) {
	c, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrChallengeNotFound, challengeID)
		}
		return nil, fmt.Errorf("failed to get challenge '%s': %w", challengeID, err)
	}
	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, studentID)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", studentID, err)
	}
	if student.CoachID != c.TrainerID {
		// Challenges of other coaches are invisible to the student.
		return nil, fmt.Errorf("%w: %s", ErrChallengeNotFound, challengeID)
	}
	now := s.now()
	if !c.IsActiveAt(now) {
		return nil, ErrChallengeNotActive
	}
	if _, ok := c.Participants[studentID]; ok {
		return nil, ErrAlreadyJoined
	}

	p := models.ChallengeParticipant{JoinedAt: now}
	if err := s.challenges.AddParticipant(ctx, challengeID, studentID, p); err != nil {
		return nil, fmt.Errorf("failed to join challenge '%s': %w", challengeID, err)
	}
	if c.Participants == nil {
		c.Participants = map[string]models.ChallengeParticipant{}
	}
	c.Participants[studentID] = p
	return c, nil
}

// RecordWorkout credits a finished workout to the trainer's active challenges the
// student joined. A failure on one challenge does not stop the others.
func (s *challengeService) RecordWorkout(ctx context.Context, studentID, trainerID string, w *models.Workout) error {
	if trainerID == "" || w == nil {
		return nil
	}
	challenges, err := s.challenges.ListByTrainer(ctx, trainerID)
	if err != nil {
		return fmt.Errorf("failed to list challenges for trainer '%s': %w", trainerID, err)
	}

	at := s.now()
	if w.FinishedAt != nil {
		at = *w.FinishedAt
	}
	var errs []error
	for _, c := range challenges {
		if _, joined := c.Participants[studentID]; !joined || !c.IsActiveAt(at) {
			continue
		}
		delta := 1.0
		if c.Metric == models.ChallengeMetricVolume {
			delta = w.TotalVolume
		}
		if delta <= 0 {
			continue
		}
		completedNow, err := s.challenges.AddProgress(ctx, c.ID, studentID, delta, at)
		if err != nil {
			errs = append(errs, fmt.Errorf("challenge '%s': %w", c.ID, err))
			continue
		}
		if completedNow {
			s.logger.Info("Challenge completed", zap.String("challengeID", c.ID), zap.String("studentID", studentID))
			if s.rewards != nil {
				if _, err := s.rewards.AwardPoints(ctx, trainerID, PointsChallengeCompleted, "challenge completed"); err != nil {
					s.logger.Warn("Failed to reward trainer for challenge", zap.String("challengeID", c.ID), zap.Error(err))
				}
			}
		}
	}
	return errors.Join(errs...)
}

func (s *challengeService) List(ctx context.Context, trainerID string) ([]*models.TeamChallenge, error) {
	list, err := s.challenges.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges for trainer '%s': %w", trainerID, err)
	}
	return list, nil
}
