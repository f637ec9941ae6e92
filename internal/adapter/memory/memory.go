// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fittrack/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	workouts map[string]*domain.Workout
	users    []*domain.User
	sessions map[string]*domain.Session
	profiles map[int64]*domain.Profile

	userIDCounter int64
	now           func() time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		workouts: make(map[string]*domain.Workout),
		sessions: make(map[string]*domain.Session),
		profiles: make(map[int64]*domain.Profile),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ensure interfaces are met.
var _ domain.WorkoutRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- WorkoutRepository ---

// ListWorkouts returns all of the user's workouts ordered by date.
func (db *DB) ListWorkouts(ctx context.Context, userID int64) ([]domain.Workout, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.collect(userID, func(*domain.Workout) bool { return true }), nil
}

// GetWorkout returns one workout, or nil if the user has no workout with id.
func (db *DB) GetWorkout(ctx context.Context, userID int64, id string) (*domain.Workout, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	w, ok := db.workouts[id]
	if !ok || w.UserID != userID {
		return nil, nil
	}
	out := w.Clone()
	return &out, nil
}

// ListWorkoutsByDay returns the user's workouts dated inside day.
func (db *DB) ListWorkoutsByDay(ctx context.Context, userID int64, day domain.DayRange) ([]domain.Workout, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.collect(userID, func(w *domain.Workout) bool { return day.Contains(w.Date) }), nil
}

// CreateWorkout stores a normalized draft and returns the persisted workout.
func (db *DB) CreateWorkout(ctx context.Context, userID int64, draft domain.WorkoutDraft) (*domain.Workout, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.now()
	w := &domain.Workout{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        draft.Name,
		Description: draft.Description,
		Date:        draft.Date.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Exercises:   make([]domain.Exercise, 0, len(draft.Exercises)),
	}
	for i, ex := range draft.Exercises {
		w.Exercises = append(w.Exercises, domain.Exercise{
			ID:              uuid.NewString(),
			Name:            ex.Name,
			Sets:            ex.Sets,
			Reps:            ex.Reps,
			DurationMinutes: ex.DurationMinutes,
			WeightKg:        ex.Weight,
			Notes:           ex.Notes,
			Position:        i,
		})
	}
	db.workouts[w.ID] = w

	out := w.Clone()
	return &out, nil
}

// DeleteWorkout removes a workout and its exercises.
func (db *DB) DeleteWorkout(ctx context.Context, userID int64, id string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	w, ok := db.workouts[id]
	if !ok || w.UserID != userID {
		return false, nil
	}
	delete(db.workouts, id)
	return true, nil
}

// UpdateExercise applies patch to one exercise and returns the result.
func (db *DB) UpdateExercise(ctx context.Context, userID int64, workoutID, exerciseID string, patch domain.ExercisePatch) (*domain.Exercise, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	w, ok := db.workouts[workoutID]
	if !ok || w.UserID != userID {
		return nil, nil
	}
	for i := range w.Exercises {
		if w.Exercises[i].ID == exerciseID {
			patch.Apply(&w.Exercises[i])
			w.UpdatedAt = db.now()
			out := w.Exercises[i]
			return &out, nil
		}
	}
	return nil, nil
}

// DeleteExercise removes one exercise from a workout.
func (db *DB) DeleteExercise(ctx context.Context, userID int64, workoutID, exerciseID string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	w, ok := db.workouts[workoutID]
	if !ok || w.UserID != userID {
		return false, nil
	}
	for i := range w.Exercises {
		if w.Exercises[i].ID == exerciseID {
			w.Exercises = append(w.Exercises[:i:i], w.Exercises[i+1:]...)
			w.UpdatedAt = db.now()
			return true, nil
		}
	}
	return false, nil
}

// collect copies the user's matching workouts. Callers hold db.mu.
func (db *DB) collect(userID int64, keep func(*domain.Workout) bool) []domain.Workout {
	result := make([]domain.Workout, 0)
	for _, w := range db.workouts {
		if w.UserID == userID && keep(w) {
			result = append(result, w.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Date.Before(result[j].Date)
	})
	return result
}

// --- ProfileRepository ---

// GetProfile returns the user's profile, or nil if none was saved.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.profiles[userID]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

// UpsertProfile creates or updates the user's profile.
func (db *DB) UpsertProfile(ctx context.Context, userID int64, patch domain.ProfilePatch) (*domain.Profile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.now()
	p, ok := db.profiles[userID]
	if !ok {
		p = &domain.Profile{UserID: userID, CreatedAt: now}
		db.profiles[userID] = p
	}
	if patch.Username != nil {
		v := *patch.Username
		p.Username = &v
	}
	if patch.AvatarURL != nil {
		if *patch.AvatarURL == "" {
			p.AvatarURL = nil
		} else {
			v := *patch.AvatarURL
			p.AvatarURL = &v
		}
	}
	p.UpdatedAt = now

	out := *p
	return &out, nil
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    db.now(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: r.db.now(),
	}
	return nil
}

// GetByToken retrieves a session by token. Expiry is left to the caller.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		out := *s
		return &out, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := r.db.now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
