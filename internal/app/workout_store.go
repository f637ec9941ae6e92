package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fittrack/internal/domain"
)

// DaySelection is the visible result of the most recent calendar day
// selection. Applied is false when the response was superseded by a newer
// selection and therefore discarded.
type DaySelection struct {
	Day      string           `json:"day"`
	Workouts []domain.Workout `json:"workouts"`
	Seq      uint64           `json:"seq"`
	Applied  bool             `json:"applied"`
}

// WorkoutStore holds the signed-in user's workouts for one session and
// mediates every read and write through the repository. Completion toggles are
// local to the store and are not persisted.
type WorkoutStore struct {
	repo  domain.WorkoutRepository
	auth  domain.AuthProvider
	cache domain.WorkoutCache
	index DateIndex

	mu       sync.RWMutex
	workouts []domain.Workout
	loaded   bool
	stale    bool
	closed   bool
	issued   uint64
	loads    uint64
	selected DaySelection
}

// StoreOption configures a WorkoutStore.
type StoreOption func(*WorkoutStore)

// WithCache enables the cache-aside warm start.
func WithCache(c domain.WorkoutCache) StoreOption {
	return func(s *WorkoutStore) { s.cache = c }
}

// NewWorkoutStore creates an empty store for one session.
func NewWorkoutStore(repo domain.WorkoutRepository, auth domain.AuthProvider, index DateIndex, opts ...StoreOption) *WorkoutStore {
	s := &WorkoutStore{repo: repo, auth: auth, index: index}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index returns the store's date index.
func (s *WorkoutStore) Index() DateIndex {
	return s.index
}

func (s *WorkoutStore) user(ctx context.Context) *domain.User {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed || s.auth == nil {
		return nil
	}
	return s.auth.CurrentUser(ctx)
}

// Warm fills an unloaded store from the user's cache entry. The cached
// collection is only a hint: it is marked stale, an empty entry is ignored,
// and the next successful LoadAll replaces it.
func (s *WorkoutStore) Warm(ctx context.Context) {
	u := s.user(ctx)
	if u == nil || s.cache == nil {
		return
	}
	ws, ok, err := s.cache.Get(ctx, u.ID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("user", u.ID).Msg("workout cache read")
		return
	}
	if !ok || len(ws) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded || s.closed {
		return
	}
	s.workouts = decorate(ws)
	s.stale = true
}

// LoadAll fetches the user's full collection and replaces the in-memory one in
// a single step. On failure the previous collection is kept and a
// TransportError is returned. A load that resolves after a newer load or a
// persisted write was issued is dropped, so it never overwrites fresher state.
func (s *WorkoutStore) LoadAll(ctx context.Context) error {
	u := s.user(ctx)
	if u == nil {
		return nil
	}

	s.mu.Lock()
	s.loads++
	seq := s.loads
	s.mu.Unlock()

	ws, err := s.repo.ListWorkouts(ctx, u.ID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user", u.ID).Msg("load workouts")
		return &domain.TransportError{Op: "load workouts", Err: err}
	}
	fresh := decorate(ws)
	snapshot := cloneAll(fresh)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if seq != s.loads {
		latest := s.loads
		s.mu.Unlock()
		zerolog.Ctx(ctx).Debug().Uint64("seq", seq).Uint64("latest", latest).Msg("workout load superseded")
		return nil
	}
	s.workouts = fresh
	s.loaded = true
	s.stale = false
	s.mu.Unlock()

	s.refreshCache(ctx, u.ID, snapshot)
	zerolog.Ctx(ctx).Debug().Int64("user", u.ID).Int("count", len(fresh)).Msg("workouts loaded")
	return nil
}

// Create validates draft, persists it and appends the stored workout. Invalid
// drafts fail with a ValidationError before any repository call.
func (s *WorkoutStore) Create(ctx context.Context, draft domain.WorkoutDraft) (*domain.Workout, error) {
	norm, err := draft.Normalize()
	if err != nil {
		return nil, err
	}
	u := s.user(ctx)
	if u == nil {
		return nil, nil
	}

	w, err := s.repo.CreateWorkout(ctx, u.ID, norm)
	if err != nil {
		return nil, &domain.TransportError{Op: "create workout", Err: err}
	}
	if w == nil {
		return nil, &domain.TransportError{Op: "create workout", Err: errors.New("no workout returned")}
	}
	created := decorateOne(*w)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.invalidateCache(ctx, u.ID)
		return nil, nil
	}
	s.loads++
	s.workouts = append(s.workouts, created)
	s.mu.Unlock()

	s.invalidateCache(ctx, u.ID)
	out := created.Clone()
	return &out, nil
}

// GetByID looks id up in the in-memory collection only.
func (s *WorkoutStore) GetByID(id string) (domain.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.find(id); i >= 0 {
		return s.workouts[i].Clone(), nil
	}
	return domain.Workout{}, domain.ErrNotFound
}

// FetchByID asks the repository for a workout the collection does not hold
// and adds it to the collection. A workout already present is returned as is,
// keeping its local completion flags.
func (s *WorkoutStore) FetchByID(ctx context.Context, id string) (domain.Workout, error) {
	if w, err := s.GetByID(id); err == nil {
		return w, nil
	}
	u := s.user(ctx)
	if u == nil {
		return domain.Workout{}, domain.ErrNotFound
	}
	w, err := s.repo.GetWorkout(ctx, u.ID, id)
	if err != nil {
		return domain.Workout{}, &domain.TransportError{Op: "get workout", Err: err}
	}
	if w == nil {
		return domain.Workout{}, domain.ErrNotFound
	}
	fetched := decorateOne(*w)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.Workout{}, domain.ErrNotFound
	}
	if i := s.find(id); i >= 0 {
		return s.workouts[i].Clone(), nil
	}
	s.loads++
	s.workouts = append(s.workouts, fetched)
	return fetched.Clone(), nil
}

// ToggleExerciseCompletion flips an exercise's completion flag in memory. The
// change is not persisted.
func (s *WorkoutStore) ToggleExerciseCompletion(workoutID, exerciseID string) (domain.LocalChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(workoutID)
	if i < 0 {
		return domain.LocalChange{}, domain.ErrNotFound
	}
	exs := s.workouts[i].Exercises
	for j := range exs {
		if exs[j].ID == exerciseID {
			exs[j].Completed = !exs[j].Completed
			return domain.LocalChange{WorkoutID: workoutID, ExerciseID: exerciseID, Completed: exs[j].Completed}, nil
		}
	}
	return domain.LocalChange{}, domain.ErrNotFound
}

// MarkWorkoutComplete sets a workout's completion flag in memory. The change
// is not persisted.
func (s *WorkoutStore) MarkWorkoutComplete(workoutID string) (domain.LocalChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(workoutID)
	if i < 0 {
		return domain.LocalChange{}, domain.ErrNotFound
	}
	s.workouts[i].Completed = true
	return domain.LocalChange{WorkoutID: workoutID, Completed: true}, nil
}

// Delete removes a workout remotely and then from the collection.
func (s *WorkoutStore) Delete(ctx context.Context, workoutID string) error {
	u := s.user(ctx)
	if u == nil {
		return nil
	}
	ok, err := s.repo.DeleteWorkout(ctx, u.ID, workoutID)
	if err != nil {
		return &domain.TransportError{Op: "delete workout", Err: err}
	}
	if !ok {
		return domain.ErrNotFound
	}

	s.mu.Lock()
	s.loads++
	if i := s.find(workoutID); i >= 0 {
		next := make([]domain.Workout, 0, len(s.workouts)-1)
		next = append(next, s.workouts[:i]...)
		s.workouts = append(next, s.workouts[i+1:]...)
	}
	s.selected.Workouts = without(s.selected.Workouts, workoutID)
	s.mu.Unlock()

	s.invalidateCache(ctx, u.ID)
	return nil
}

// UpdateExercise persists a numeric edit and mirrors it in the collection,
// keeping the exercise's local completion flag.
func (s *WorkoutStore) UpdateExercise(ctx context.Context, workoutID, exerciseID string, patch domain.ExercisePatch) (*domain.Exercise, error) {
	norm, err := patch.Normalize()
	if err != nil {
		return nil, err
	}
	u := s.user(ctx)
	if u == nil {
		return nil, nil
	}
	ex, err := s.repo.UpdateExercise(ctx, u.ID, workoutID, exerciseID, norm)
	if err != nil {
		return nil, &domain.TransportError{Op: "update exercise", Err: err}
	}
	if ex == nil {
		return nil, domain.ErrNotFound
	}
	out := *ex

	s.mu.Lock()
	s.loads++
	if i := s.find(workoutID); i >= 0 {
		exs := s.workouts[i].Exercises
		for j := range exs {
			if exs[j].ID == exerciseID {
				out.Completed = exs[j].Completed
				exs[j] = out
				break
			}
		}
	}
	s.mu.Unlock()

	s.invalidateCache(ctx, u.ID)
	return &out, nil
}

// RemoveExercise deletes an exercise remotely and then from its workout,
// keeping the order of the remaining exercises.
func (s *WorkoutStore) RemoveExercise(ctx context.Context, workoutID, exerciseID string) error {
	u := s.user(ctx)
	if u == nil {
		return nil
	}
	ok, err := s.repo.DeleteExercise(ctx, u.ID, workoutID, exerciseID)
	if err != nil {
		return &domain.TransportError{Op: "delete exercise", Err: err}
	}
	if !ok {
		return domain.ErrNotFound
	}

	s.mu.Lock()
	s.loads++
	if i := s.find(workoutID); i >= 0 {
		exs := s.workouts[i].Exercises
		next := make([]domain.Exercise, 0, len(exs))
		for _, ex := range exs {
			if ex.ID != exerciseID {
				next = append(next, ex)
			}
		}
		s.workouts[i].Exercises = next
	}
	s.mu.Unlock()

	s.invalidateCache(ctx, u.ID)
	return nil
}

// SelectDay fetches the workouts for date's calendar day. Each call takes a
// sequence number when issued; its response becomes the visible selection
// only if no newer call was issued in the meantime, so a slow stale response
// never overwrites a fresher one.
func (s *WorkoutStore) SelectDay(ctx context.Context, date time.Time) (DaySelection, error) {
	r := s.index.Calendar().Range(date)
	u := s.user(ctx)
	if u == nil {
		return DaySelection{Day: r.Day, Workouts: []domain.Workout{}}, nil
	}

	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	ws, err := s.repo.ListWorkoutsByDay(ctx, u.ID, r)
	if err != nil {
		return DaySelection{}, &domain.TransportError{Op: "load day " + r.Day, Err: err}
	}
	sel := DaySelection{Day: r.Day, Workouts: decorate(ws), Seq: seq}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq != s.issued {
		zerolog.Ctx(ctx).Debug().Str("day", r.Day).Uint64("seq", seq).Uint64("latest", s.issued).Msg("day selection superseded")
		return sel, nil
	}
	sel.Applied = true
	s.selected = sel
	return cloneSelection(sel), nil
}

// Selected returns the visible day selection.
func (s *WorkoutStore) Selected() DaySelection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSelection(s.selected)
}

// Workouts returns a copy of the current collection.
func (s *WorkoutStore) Workouts() []domain.Workout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.workouts)
}

// Loaded reports whether a LoadAll has succeeded.
func (s *WorkoutStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Stale reports whether the collection came from the cache and has not been
// revalidated yet.
func (s *WorkoutStore) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}

// Close tears the store down. Afterwards the collection is empty and
// user-scoped operations are no-ops.
func (s *WorkoutStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.workouts = nil
	s.loaded = false
	s.stale = false
	s.selected = DaySelection{}
}

func (s *WorkoutStore) find(id string) int {
	for i := range s.workouts {
		if s.workouts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *WorkoutStore) refreshCache(ctx context.Context, userID int64, ws []domain.Workout) {
	if s.cache == nil {
		return
	}
	var err error
	if len(ws) == 0 {
		err = s.cache.Invalidate(ctx, userID)
	} else {
		err = s.cache.Put(ctx, userID, ws)
	}
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("user", userID).Msg("workout cache write")
	}
}

func (s *WorkoutStore) invalidateCache(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("user", userID).Msg("workout cache invalidate")
	}
}

func decorate(ws []domain.Workout) []domain.Workout {
	out := make([]domain.Workout, len(ws))
	for i, w := range ws {
		out[i] = decorateOne(w)
	}
	return out
}

func decorateOne(w domain.Workout) domain.Workout {
	out := w.Clone()
	out.Type = domain.ClassifyWorkout(w.Name)
	if out.Exercises == nil {
		out.Exercises = []domain.Exercise{}
	}
	return out
}

func cloneAll(ws []domain.Workout) []domain.Workout {
	out := make([]domain.Workout, len(ws))
	for i, w := range ws {
		out[i] = w.Clone()
	}
	return out
}

func cloneSelection(sel DaySelection) DaySelection {
	out := sel
	out.Workouts = cloneAll(sel.Workouts)
	return out
}

func without(ws []domain.Workout, id string) []domain.Workout {
	out := make([]domain.Workout, 0, len(ws))
	for _, w := range ws {
		if w.ID != id {
			out = append(out, w)
		}
	}
	return out
}
