package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fitcoach-backend/internal/db"
	"fitcoach-backend/internal/events"
	"fitcoach-backend/internal/models"
	"fitcoach-backend/internal/payments"
)

// In-memory repositories. Services under test fan out with errgroup, so every fake
// guards its maps.

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]*models.User)}
	for _, u := range users {
		cp := *u
		f.users[u.ID] = &cp
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user '%s': %w", id, db.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; ok {
		return db.ErrAlreadyExists
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

// UpdateProfile touches the same fields as the Firestore field-scoped update.
func (f *fakeUsers) UpdateProfile(_ context.Context, id string, up db.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("user '%s': %w", id, db.ErrNotFound)
	}
	u.Profile = up.Profile
	if up.DisplayName != nil {
		u.DisplayName = *up.DisplayName
	}
	if up.OnboardingCompleted {
		u.OnboardingCompleted = true
	}
	return nil
}

func (f *fakeUsers) SetPremium(_ context.Context, id string, up db.PremiumUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("user '%s': %w", id, db.ErrNotFound)
	}
	u.IsPremium = up.IsPremium
	if up.Provider != "" {
		u.PremiumProvider = up.Provider
	}
	if up.StripeCustomerID != "" {
		u.StripeCustomerID = up.StripeCustomerID
	}
	if up.StripeSubscriptionID != "" {
		u.StripeSubscriptionID = up.StripeSubscriptionID
	}
	if up.Since != nil {
		u.PremiumSince = up.Since
	}
	if !up.IsPremium {
		u.StripeSubscriptionID = ""
	}
	return nil
}

func (f *fakeUsers) FindByStripeCustomerID(_ context.Context, customerID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.StripeCustomerID == customerID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeUsers) ListByCoachID(_ context.Context, trainerID string) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.users {
		if u.CoachID == trainerID {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) SetActiveRoutine(_ context.Context, id, routineID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return db.ErrNotFound
	}
	u.ActiveRoutineID = routineID
	return nil
}

func (f *fakeUsers) setCoach(id, coachID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.CoachID = coachID
	}
}

func (f *fakeUsers) get(id string) *models.User {
	u, _ := f.GetByID(context.Background(), id)
	return u
}

type fakeRecords struct {
	mu      sync.Mutex
	records map[string]map[string]*models.PersonalRecord
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{records: make(map[string]map[string]*models.PersonalRecord)}
}

func (f *fakeRecords) Get(_ context.Context, userID, exerciseID string) (*models.PersonalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pr, ok := f.records[userID][exerciseID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *pr
	return &cp, nil
}

func (f *fakeRecords) Upsert(_ context.Context, userID string, pr *models.PersonalRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.records[userID] == nil {
		f.records[userID] = make(map[string]*models.PersonalRecord)
	}
	cp := *pr
	f.records[userID][pr.ExerciseID] = &cp
	return nil
}

func (f *fakeRecords) ListByUser(_ context.Context, userID string) ([]*models.PersonalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PersonalRecord
	for _, pr := range f.records[userID] {
		cp := *pr
		out = append(out, &cp)
	}
	return out, nil
}

type fakeWorkouts struct {
	mu       sync.Mutex
	seq      int
	workouts map[string]*models.Workout
}

func newFakeWorkouts() *fakeWorkouts {
	return &fakeWorkouts{workouts: make(map[string]*models.Workout)}
}

func (f *fakeWorkouts) Create(_ context.Context, w *models.Workout) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	w.ID = fmt.Sprintf("w%d", f.seq)
	f.workouts[w.ID] = cloneWorkout(w)
	return w.ID, nil
}

func (f *fakeWorkouts) GetByID(_ context.Context, id string) (*models.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.workouts[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return cloneWorkout(w), nil
}

// Modify holds the lock across read, fn and write, like the Firestore transaction.
func (f *fakeWorkouts) Modify(_ context.Context, id string, fn func(w *models.Workout) error) (*models.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.workouts[id]
	if !ok {
		return nil, fmt.Errorf("workout '%s': %w", id, db.ErrNotFound)
	}
	cp := cloneWorkout(w)
	if err := fn(cp); err != nil {
		return nil, err
	}
	f.workouts[id] = cloneWorkout(cp)
	return cp, nil
}

func cloneWorkout(w *models.Workout) *models.Workout {
	cp := *w
	cp.Exercises = make([]models.WorkoutExercise, len(w.Exercises))
	for i, ex := range w.Exercises {
		ex.Sets = append([]models.WorkoutSet(nil), ex.Sets...)
		cp.Exercises[i] = ex
	}
	return &cp
}

func (f *fakeWorkouts) ListByUser(_ context.Context, userID string, limit int) ([]*models.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Workout
	for _, w := range f.workouts {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeWorkouts) ListCompleted(_ context.Context, userID string, from, to time.Time) ([]*models.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Workout
	for _, w := range f.workouts {
		if w.UserID == userID && w.Status == models.WorkoutCompleted && !w.StartedAt.Before(from) && w.StartedAt.Before(to) {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

type fakeRoutines struct {
	mu       sync.Mutex
	seq      int
	routines map[string]*models.Routine
}

func newFakeRoutines() *fakeRoutines {
	return &fakeRoutines{routines: make(map[string]*models.Routine)}
}

func (f *fakeRoutines) Create(_ context.Context, userID string, r *models.Routine) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	r.ID = fmt.Sprintf("r%d", f.seq)
	r.UserID = userID
	cp := *r
	f.routines[r.ID] = &cp
	return r.ID, nil
}

func (f *fakeRoutines) GetByID(_ context.Context, userID, id string) (*models.Routine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.routines[id]
	if !ok || r.UserID != userID {
		return nil, db.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRoutines) ListByUser(_ context.Context, userID string, limit int) ([]*models.Routine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Routine
	for _, r := range f.routines {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakePlans struct {
	mu    sync.Mutex
	plans []*models.NutritionPlan
}

func (f *fakePlans) Create(_ context.Context, userID string, p *models.NutritionPlan) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = fmt.Sprintf("np%d", len(f.plans)+1)
	p.UserID = userID
	cp := *p
	f.plans = append(f.plans, &cp)
	return p.ID, nil
}

func (f *fakePlans) GetLatest(_ context.Context, userID string) (*models.NutritionPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.plans) - 1; i >= 0; i-- {
		if f.plans[i].UserID == userID {
			cp := *f.plans[i]
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

type fakeProgress struct {
	mu   sync.Mutex
	docs map[string]*models.RoutineProgress
}

func newFakeProgress() *fakeProgress {
	return &fakeProgress{docs: make(map[string]*models.RoutineProgress)}
}

func (f *fakeProgress) Get(_ context.Context, id string) (*models.RoutineProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.docs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProgress) Upsert(_ context.Context, p *models.RoutineProgress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.docs[p.ID] = &cp
	return nil
}

// fakeTrainers mirrors the transactional rules of the Firestore repository against fakeUsers.
type fakeTrainers struct {
	mu       sync.Mutex
	users    *fakeUsers
	trainers map[string]*models.Trainer
	codes    map[string]string
}

func newFakeTrainers(users *fakeUsers, trainers ...*models.Trainer) *fakeTrainers {
	f := &fakeTrainers{users: users, trainers: make(map[string]*models.Trainer), codes: make(map[string]string)}
	for _, t := range trainers {
		cp := *t
		f.trainers[t.ID] = &cp
		if t.CoachCode != "" {
			f.codes[t.CoachCode] = t.ID
		}
	}
	return f
}

func (f *fakeTrainers) GetByID(_ context.Context, id string) (*models.Trainer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trainers[id]
	if !ok {
		return nil, fmt.Errorf("trainer '%s': %w", id, db.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTrainers) CreateWithCode(_ context.Context, t *models.Trainer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.trainers[t.ID]; ok {
		return db.ErrAlreadyExists
	}
	if _, ok := f.codes[t.CoachCode]; ok {
		return db.ErrCodeTaken
	}
	cp := *t
	f.trainers[t.ID] = &cp
	f.codes[t.CoachCode] = t.ID
	return nil
}

func (f *fakeTrainers) Update(_ context.Context, t *models.Trainer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.trainers[t.ID] = &cp
	return nil
}

func (f *fakeTrainers) ResolveCode(_ context.Context, code string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.codes[code]
	if !ok {
		return "", db.ErrNotFound
	}
	return id, nil
}

func (f *fakeTrainers) ReplaceCode(_ context.Context, trainerID, newCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trainers[trainerID]
	if !ok {
		return db.ErrNotFound
	}
	if _, taken := f.codes[newCode]; taken {
		return db.ErrCodeTaken
	}
	delete(f.codes, t.CoachCode)
	f.codes[newCode] = trainerID
	t.CoachCode = newCode
	return nil
}

func (f *fakeTrainers) LinkStudent(_ context.Context, studentID, code string, points int, level db.LevelFunc) (*db.RewardResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	trainerID, ok := f.codes[code]
	if !ok {
		return nil, fmt.Errorf("coach code '%s': %w", code, db.ErrNotFound)
	}
	if trainerID == studentID {
		return nil, db.ErrSelfLink
	}
	student := f.users.get(studentID)
	if student == nil {
		return nil, db.ErrNotFound
	}
	if student.CoachID != "" {
		return nil, db.ErrAlreadyLinked
	}
	f.users.setCoach(studentID, trainerID)

	t := f.trainers[trainerID]
	prev := t.RewardLevel
	t.StudentCount++
	t.RewardPoints += points
	t.RewardLevel = level(t.RewardPoints)
	cp := *t
	return &db.RewardResult{Trainer: &cp, PreviousLevel: prev}, nil
}

func (f *fakeTrainers) UnlinkStudent(_ context.Context, studentID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	student := f.users.get(studentID)
	if student == nil {
		return "", db.ErrNotFound
	}
	if student.CoachID == "" {
		return "", db.ErrNotLinked
	}
	trainerID := student.CoachID
	f.users.setCoach(studentID, "")
	if t, ok := f.trainers[trainerID]; ok && t.StudentCount > 0 {
		t.StudentCount--
	}
	return trainerID, nil
}

func (f *fakeTrainers) AwardPoints(_ context.Context, trainerID string, points int, level db.LevelFunc) (*db.RewardResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trainers[trainerID]
	if !ok {
		return nil, db.ErrNotFound
	}
	prev := t.RewardLevel
	t.RewardPoints += points
	if t.RewardPoints < 0 {
		t.RewardPoints = 0
	}
	t.RewardLevel = level(t.RewardPoints)
	cp := *t
	return &db.RewardResult{Trainer: &cp, PreviousLevel: prev}, nil
}

type fakeAssigned struct {
	mu    sync.Mutex
	seq   int
	items map[string]*models.AssignedRoutine
}

func newFakeAssigned() *fakeAssigned {
	return &fakeAssigned{items: make(map[string]*models.AssignedRoutine)}
}

func (f *fakeAssigned) Create(_ context.Context, a *models.AssignedRoutine) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	a.ID = fmt.Sprintf("a%d", f.seq)
	cp := *a
	f.items[a.ID] = &cp
	return a.ID, nil
}

func (f *fakeAssigned) GetByID(_ context.Context, id string) (*models.AssignedRoutine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAssigned) list(match func(*models.AssignedRoutine) bool) []*models.AssignedRoutine {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AssignedRoutine
	for _, a := range f.items {
		if match(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out
}

func (f *fakeAssigned) ListByStudent(_ context.Context, studentID string) ([]*models.AssignedRoutine, error) {
	return f.list(func(a *models.AssignedRoutine) bool { return a.StudentID == studentID }), nil
}

func (f *fakeAssigned) ListByTrainer(_ context.Context, trainerID string) ([]*models.AssignedRoutine, error) {
	return f.list(func(a *models.AssignedRoutine) bool { return a.TrainerID == trainerID }), nil
}

func (f *fakeAssigned) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

type fakeChallenges struct {
	mu    sync.Mutex
	seq   int
	items map[string]*models.TeamChallenge
}

func newFakeChallenges(items ...*models.TeamChallenge) *fakeChallenges {
	f := &fakeChallenges{items: make(map[string]*models.TeamChallenge)}
	for _, c := range items {
		f.items[c.ID] = cloneChallenge(c)
	}
	return f
}

func cloneChallenge(c *models.TeamChallenge) *models.TeamChallenge {
	cp := *c
	cp.Participants = make(map[string]models.ChallengeParticipant, len(c.Participants))
	for k, v := range c.Participants {
		cp.Participants[k] = v
	}
	return &cp
}

func (f *fakeChallenges) Create(_ context.Context, c *models.TeamChallenge) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	c.ID = fmt.Sprintf("c%d", f.seq)
	f.items[c.ID] = cloneChallenge(c)
	return c.ID, nil
}

func (f *fakeChallenges) GetByID(_ context.Context, id string) (*models.TeamChallenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return cloneChallenge(c), nil
}

func (f *fakeChallenges) ListByTrainer(_ context.Context, trainerID string) ([]*models.TeamChallenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.TeamChallenge
	for _, c := range f.items {
		if c.TrainerID == trainerID {
			out = append(out, cloneChallenge(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeChallenges) AddParticipant(_ context.Context, challengeID, studentID string, p models.ChallengeParticipant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[challengeID]
	if !ok {
		return db.ErrNotFound
	}
	c.Participants[studentID] = p
	return nil
}

func (f *fakeChallenges) AddProgress(_ context.Context, challengeID, studentID string, delta float64, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[challengeID]
	if !ok {
		return false, db.ErrNotFound
	}
	p, ok := c.Participants[studentID]
	if !ok {
		return false, db.ErrNotParticipant
	}
	p.Progress += delta
	completedNow := false
	if !p.Completed && p.Progress >= c.Target {
		p.Completed = true
		p.CompletedAt = &at
		completedNow = true
	}
	c.Participants[studentID] = p
	return completedNow, nil
}

type fakeNotifications struct {
	mu    sync.Mutex
	seq   int
	items map[string]*models.Notification
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{items: make(map[string]*models.Notification)}
}

func (f *fakeNotifications) Create(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	n.ID = fmt.Sprintf("n%d", f.seq)
	cp := *n
	f.items[n.ID] = &cp
	return nil
}

func (f *fakeNotifications) ListByUser(_ context.Context, userID string, limit int, unreadOnly bool) ([]*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Notification
	for _, n := range f.items {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.items[id]
	if !ok || n.UserID != userID {
		return db.ErrNotFound
	}
	n.Read = true
	return nil
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// scriptedGenerator answers every prompt with the same response or error.
type scriptedGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) GenerateJSON(context.Context, string, string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.response, g.err
}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// memCache is a map-backed cache.Cache.
type memCache struct {
	mu    sync.Mutex
	items map[string]string
}

func newMemCache() *memCache { return &memCache{items: make(map[string]string)} }

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[key], nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

type fakeStripe struct {
	event   *payments.StripeWebhookEvent
	err     error
	portal  string
	session *payments.CheckoutSession
}

func (f *fakeStripe) CreateCheckoutSession(context.Context, string, string, string) (*payments.CheckoutSession, error) {
	return f.session, f.err
}

func (f *fakeStripe) CreatePortalSession(context.Context, string) (string, error) {
	return f.portal, f.err
}

func (f *fakeStripe) ParseWebhook([]byte, string) (*payments.StripeWebhookEvent, error) {
	return f.event, f.err
}

type fakeMercadoPago struct {
	payment *payments.Payment
	pref    *payments.Preference
	err     error
}

func (f *fakeMercadoPago) CreatePreference(context.Context, string, string) (*payments.Preference, error) {
	return f.pref, f.err
}

func (f *fakeMercadoPago) GetPayment(context.Context, string) (*payments.Payment, error) {
	return f.payment, f.err
}

func onboardedUser(id string) *models.User {
	return &models.User{
		ID:                  id,
		Email:               id + "@example.com",
		DisplayName:         "User " + id,
		OnboardingCompleted: true,
		Profile: models.Profile{
			Gender:        "male",
			Age:           30,
			HeightCm:      180,
			WeightKg:      80,
			Goal:          models.GoalGainMuscle,
			Experience:    "intermediate",
			ActivityLevel: "moderate",
			DaysPerWeek:   3,
			MealsPerDay:   4,
		},
	}
}
