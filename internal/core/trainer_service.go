package core

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fitcoach-backend/internal/db"
	"fitcoach-backend/internal/events"
	"fitcoach-backend/internal/models"
)

var (
	ErrTrainerNotFound   = errors.New("trainer not found")
	ErrAlreadyTrainer    = errors.New("user is already registered as a trainer")
	ErrCoachCodeNotFound = errors.New("coach code not found")
	ErrAlreadyLinked     = errors.New("student already has a coach")
	ErrSelfLink          = errors.New("trainers cannot link to their own code")
	ErrNotLinked         = errors.New("student has no coach")
	ErrInvalidPoints     = errors.New("points must be positive")
	ErrCodeExhausted     = errors.New("could not allocate a unique coach code")
)

// Reward points.
const (
	PointsStudentLinked      = 50
	PointsChallengeCompleted = 20
)

// CoachCodeLength and CoachCodeAlphabet define coach codes. The alphabet leaves out
// characters that are easy to confuse (0/O, 1/I/L).
const (
	CoachCodeLength   = 8
	CoachCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeAttempts      = 5
)

// RewardLevel is a named points threshold.
type RewardLevel struct {
	Name      string
	MinPoints int
}

// RewardLevels are ordered by threshold.
var RewardLevels = []RewardLevel{
	{"bronze", 0},
	{"silver", 500},
	{"gold", 1500},
	{"platinum", 3500},
	{"diamond", 7000},
}

// LevelFor returns the reward level for a points total.
func LevelFor(points int) string {
	level := RewardLevels[0].Name
	for _, l := range RewardLevels {
		if points >= l.MinPoints {
			level = l.Name
		}
	}
	return level
}

// NextLevel returns the next level and the points still missing, or "" at the top.
func NextLevel(points int) (string, int) {
	for _, l := range RewardLevels {
		if points < l.MinPoints {
			return l.Name, l.MinPoints - points
		}
	}
	return "", 0
}

// NewCoachCode returns a random code from CoachCodeAlphabet.
func NewCoachCode() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(CoachCodeAlphabet)))
	for i := 0; i < CoachCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(CoachCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeCoachCode uppercases and trims user input.
func NormalizeCoachCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type trainerService struct {
	trainers   db.TrainerRepository
	users      db.UserRepository
	workouts   db.WorkoutRepository
	assigned   db.AssignedRoutineRepository
	challenges db.ChallengeRepository
	publisher  events.Publisher
	logger     *zap.Logger
	newCode    func() (string, error)
	now        func() time.Time
}

// NewTrainerService creates a new TrainerService instance.
func NewTrainerService(trainers db.TrainerRepository, users db.UserRepository, workouts db.WorkoutRepository,
	assigned db.AssignedRoutineRepository, challenges db.ChallengeRepository, publisher events.Publisher, logger *zap.Logger) TrainerService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &trainerService{
		trainers:   trainers,
		users:      users,
		workouts:   workouts,
		assigned:   assigned,
		challenges: challenges,
		publisher:  publisher,
		logger:     logger,
		newCode:    NewCoachCode,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RegisterTrainer creates the coach profile and its code in one transaction, retrying
// on code collisions.
func (s *trainerService) RegisterTrainer(ctx context.Context, userID string, req models.RegisterTrainerRequest) (*models.Trainer, error) {
	now := s.now()
	trainer := &models.Trainer{
		ID:           userID,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Bio:          req.Bio,
		Specialties:  req.Specialties,
		RewardPoints: 0,
		RewardLevel:  LevelFor(0),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate coach code: %w", err)
		}
		trainer.CoachCode = code
		err = s.trainers.CreateWithCode(ctx, trainer)
		switch {
		case err == nil:
			s.logger.Info("Trainer registered", zap.String("trainerID", userID), zap.String("coachCode", code))
			return trainer, nil
		case errors.Is(err, db.ErrAlreadyExists):
			return nil, fmt.Errorf("%w: %s", ErrAlreadyTrainer, userID)
		case errors.Is(err, db.ErrCodeTaken):
			s.logger.Debug("Coach code collision, retrying", zap.String("code", code))
		default:
			return nil, fmt.Errorf("failed to register trainer '%s': %w", userID, err)
		}
	}
	return nil, ErrCodeExhausted
}

func (s *trainerService) GetTrainer(ctx context.Context, trainerID string) (*models.Trainer, error) {
	trainer, err := s.trainers.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTrainerNotFound, trainerID)
		}
		return nil, fmt.Errorf("failed to get trainer '%s': %w", trainerID, err)
	}
	return trainer, nil
}

// LinkStudent links the student to the trainer owning code and credits the trainer.
func (s *trainerService) LinkStudent(ctx context.Context, studentID, code string) (*models.Trainer, error) {
	code = NormalizeCoachCode(code)
	if len(code) != CoachCodeLength {
		return nil, fmt.Errorf("%w: %s", ErrCoachCodeNotFound, code)
	}

	res, err := s.trainers.LinkStudent(ctx, studentID, code, PointsStudentLinked, LevelFor)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrSelfLink):
			return nil, ErrSelfLink
		case errors.Is(err, db.ErrAlreadyLinked):
			return nil, ErrAlreadyLinked
		case errors.Is(err, db.ErrNotFound):
			return nil, fmt.Errorf("%w: %s", ErrCoachCodeNotFound, code)
		}
		return nil, fmt.Errorf("failed to link student '%s': %w", studentID, err)
	}

	studentName := ""
	if student, err := s.users.GetByID(ctx, studentID); err == nil {
		studentName = student.DisplayName
	} else {
		s.logger.Warn("Failed to load student for link event", zap.String("studentID", studentID), zap.Error(err))
	}
	s.publish(ctx, events.New(events.StudentLinked, studentID, res.Trainer.ID, map[string]string{
		"studentName": studentName,
		"trainerName": res.Trainer.DisplayName,
	}))
	s.publishLevelUp(ctx, res)
	return res.Trainer, nil
}

func (s *trainerService) UnlinkStudent(ctx context.Context, studentID string) error {
	trainerID, err := s.trainers.UnlinkStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, db.ErrNotLinked) {
			return ErrNotLinked
		}
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, studentID)
		}
		return fmt.Errorf("failed to unlink student '%s': %w", studentID, err)
	}

	studentName := ""
	if student, err := s.users.GetByID(ctx, studentID); err == nil {
		studentName = student.DisplayName
	}
	s.publish(ctx, events.New(events.StudentUnlinked, studentID, trainerID, map[string]string{"studentName": studentName}))
	return nil
}

// AwardPoints credits the trainer and publishes a level-up event when a threshold is crossed.
func (s *trainerService) AwardPoints(ctx context.Context, trainerID string, points int, reason string) (*models.Trainer, error) {
	if points <= 0 {
		return nil, ErrInvalidPoints
	}
	res, err := s.trainers.AwardPoints(ctx, trainerID, points, LevelFor)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTrainerNotFound, trainerID)
		}
		return nil, fmt.Errorf("failed to award points to '%s': %w", trainerID, err)
	}
	s.logger.Info("Trainer rewarded",
		zap.String("trainerID", trainerID), zap.Int("points", points), zap.String("reason", reason),
		zap.Int("total", res.Trainer.RewardPoints))
	s.publishLevelUp(ctx, res)
	return res.Trainer, nil
}

func (s *trainerService) publishLevelUp(ctx context.Context, res *db.RewardResult) {
	if res.PreviousLevel == "" || res.PreviousLevel == res.Trainer.RewardLevel {
		return
	}
	s.publish(ctx, events.New(events.RewardLevelUp, "", res.Trainer.ID, map[string]string{
		"level":         res.Trainer.RewardLevel,
		"previousLevel": res.PreviousLevel,
		"points":        strconv.Itoa(res.Trainer.RewardPoints),
	}))
}

func (s *trainerService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("type", e.Type), zap.Error(err))
	}
}

// Dashboard loads the trainer, students, assigned routines and challenges concurrently.
func (s *trainerService) Dashboard(ctx context.Context, trainerID string) (*models.TrainerDashboard, error) {
	dash := &models.TrainerDashboard{}
	var students []*models.User

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.GetTrainer(gctx, trainerID)
		dash.Trainer = t
		return err
	})
	g.Go(func() error {
		var err error
		students, err = s.users.ListByCoachID(gctx, trainerID)
		if err != nil {
			return fmt.Errorf("failed to list students: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		dash.AssignedRoutines, err = s.assigned.ListByTrainer(gctx, trainerID)
		if err != nil {
			return fmt.Errorf("failed to list assigned routines: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		dash.Challenges, err = s.challenges.ListByTrainer(gctx, trainerID)
		if err != nil {
			return fmt.Errorf("failed to list challenges: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dash.Students = s.summarize(ctx, students)
	if dash.AssignedRoutines == nil {
		dash.AssignedRoutines = []*models.AssignedRoutine{}
	}
	if dash.Challenges == nil {
		dash.Challenges = []*models.TeamChallenge{}
	}
	dash.NextLevel, dash.PointsToNext = NextLevel(dash.Trainer.RewardPoints)
	return dash, nil
}

// summarize builds student rows with their last workout. A failed lookup leaves
// LastWorkoutAt empty.
func (s *trainerService) summarize(ctx context.Context, students []*models.User) []models.StudentSummary {
	out := make([]models.StudentSummary, len(students))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, st := range students {
		out[i] = models.StudentSummary{
			ID:              st.ID,
			DisplayName:     st.DisplayName,
			Email:           st.Email,
			IsPremium:       st.IsPremium,
			ActiveRoutineID: st.ActiveRoutineID,
		}
		g.Go(func() error {
			recent, err := s.workouts.ListByUser(gctx, st.ID, 1)
			if err != nil {
				s.logger.Warn("Failed to load last workout", zap.String("studentID", st.ID), zap.Error(err))
				return nil
			}
			if len(recent) > 0 {
				at := recent[0].StartedAt
				out[i].LastWorkoutAt = &at
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// RegenerateCode replaces the trainer's coach code. Existing links are unaffected.
func (s *trainerService) RegenerateCode(ctx context.Context, trainerID string) (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate coach code: %w", err)
		}
		err = s.trainers.ReplaceCode(ctx, trainerID, code)
		switch {
		case err == nil:
			return code, nil
		case errors.Is(err, db.ErrNotFound):
			return "", fmt.Errorf("%w: %s", ErrTrainerNotFound, trainerID)
		case !errors.Is(err, db.ErrCodeTaken):
			return "", fmt.Errorf("failed to replace coach code for '%s': %w", trainerID, err)
		}
	}
	return "", ErrCodeExhausted
}
