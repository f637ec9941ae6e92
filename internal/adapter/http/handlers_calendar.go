package adapthttp

import (
	"net/http"
	"strconv"
	"time"

	"fittrack/internal/domain"
)

// handleCalendarDay answers from the collection already in the store.
func (s *Server) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r.Context())
	date, err := s.dateQuery(r, st.Index().Calendar())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	stale, err := ensureLoaded(r.Context(), st, false)
	if err != nil && !stale {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"day":   st.Index().Calendar().Day(date),
		"items": st.Index().ByDay(date, st.Workouts()),
		"stale": stale,
	})
}

// handleCalendarSelect fetches the day remotely. A response that lost the race
// to a newer selection comes back with applied=false.
func (s *Server) handleCalendarSelect(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r.Context())
	date, err := s.dateQuery(r, st.Index().Calendar())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sel, err := st.SelectDay(r.Context(), date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

func (s *Server) handleCalendarSelected(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, storeFrom(r.Context()).Selected())
}

func (s *Server) handleCalendarMonth(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r.Context())
	now := s.now().In(st.Index().Calendar().Location())

	year := now.Year()
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 9999 {
			writeDomainError(w, &domain.ValidationError{Field: "year", Reason: "must be a four digit year"})
			return
		}
		year = n
	}
	month := now.Month()
	if v := r.URL.Query().Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			writeDomainError(w, &domain.ValidationError{Field: "month", Reason: "must be 1-12"})
			return
		}
		month = time.Month(n)
	}

	stale, err := ensureLoaded(r.Context(), st, false)
	if err != nil && !stale {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": int(month),
		"days":  st.Index().Month(st.Workouts(), year, month),
		"stale": stale,
	})
}
