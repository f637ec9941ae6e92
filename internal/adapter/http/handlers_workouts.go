package adapthttp

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"fittrack/internal/app"
	"fittrack/internal/domain"
)

const defaultRecommendedLimit = 3

type workoutRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Date        string                 `json:"date"`
	Exercises   []domain.ExerciseDraft `json:"exercises"`
}

// ensureLoaded fetches the collection when the store has not been loaded yet
// or when force is set. A failed fetch is only an error if the store has
// nothing to show; otherwise the returned error is informational and the
// collection on hand is served marked stale.
func ensureLoaded(ctx context.Context, st *app.WorkoutStore, force bool) (stale bool, err error) {
	if st.Loaded() && !force {
		return st.Stale(), nil
	}
	if err := st.LoadAll(ctx); err != nil {
		if st.Loaded() || st.Stale() {
			return true, err
		}
		return false, err
	}
	return st.Stale(), nil
}

func (s *Server) handleWorkoutsList(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r.Context())
	stale, err := ensureLoaded(r.Context(), st, r.URL.Query().Get("reload") == "1")
	if err != nil && !stale {
		writeDomainError(w, err)
		return
	}

	body := map[string]any{"items": st.Workouts(), "stale": stale}
	if err != nil {
		body["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleWorkoutCreate(w http.ResponseWriter, r *http.Request) {
	var req workoutRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st := storeFrom(r.Context())

	draft := domain.WorkoutDraft{Name: req.Name, Description: req.Description, Exercises: req.Exercises}
	if req.Date != "" {
		date, err := parseDate(st.Index().Calendar(), req.Date)
		if err != nil {
			writeDomainError(w, &domain.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD or RFC 3339"})
			return
		}
		draft.Date = date
	}

	created, err := st.Create(r.Context(), draft)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if created == nil {
		writeDomainError(w, domain.ErrUnauthenticated)
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("workout", created.ID).Msg("workout created")
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleWorkoutGet(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r.Context())
	if _, err := ensureLoaded(r.Context(), st, false); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("lookup on unloaded store")
	}
	wk, err := st.FetchByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wk)
}

func (s *Server) handleWorkoutDelete(w http.ResponseWriter, r *http.Request) {
	if err := storeFrom(r.Context()).Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleWorkoutComplete(w http.ResponseWriter, r *http.Request) {
	change, err := storeFrom(r.Context()).MarkWorkoutComplete(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

func (s *Server) handleExerciseToggle(w http.ResponseWriter, r *http.Request) {
	change, err := storeFrom(r.Context()).ToggleExerciseCompletion(r.PathValue("id"), r.PathValue("exerciseId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

func (s *Server) handleExerciseUpdate(w http.ResponseWriter, r *http.Request) {
	var patch domain.ExercisePatch
	if err := parseJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ex, err := storeFrom(r.Context()).UpdateExercise(r.Context(), r.PathValue("id"), r.PathValue("exerciseId"), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if ex == nil {
		writeDomainError(w, domain.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleExerciseDelete(w http.ResponseWriter, r *http.Request) {
	if err := storeFrom(r.Context()).RemoveExercise(r.Context(), r.PathValue("id"), r.PathValue("exerciseId")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type partition int

const (
	partitionPast partition = iota
	partitionCurrent
	partitionFuture
)

func (s *Server) handlePartition(p partition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := storeFrom(r.Context())
		stale, err := ensureLoaded(r.Context(), st, false)
		if err != nil && !stale {
			writeDomainError(w, err)
			return
		}

		ix, ws, now := st.Index(), st.Workouts(), s.now()
		var items []domain.Workout
		switch p {
		case partitionPast:
			items = ix.Past(ws, now)
		case partitionCurrent:
			items = ix.Current(ws, now)
		default:
			items = ix.Future(ws, now)
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "stale": stale})
	}
}

func (s *Server) handleRecommended(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", defaultRecommendedLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	st := storeFrom(r.Context())
	stale, err := ensureLoaded(r.Context(), st, false)
	if err != nil && !stale {
		writeDomainError(w, err)
		return
	}
	items := st.Index().Recommended(st.Workouts(), s.now(), limit)
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "stale": stale})
}

// dateQuery reads ?date=, defaulting to today.
func (s *Server) dateQuery(r *http.Request, cal domain.Calendar) (time.Time, error) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return s.now(), nil
	}
	t, err := parseDate(cal, v)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return t, nil
}
