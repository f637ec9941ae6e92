package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"fittrack/internal/app"
	"fittrack/internal/domain"
)

type contextKey string

const storeContextKey contextKey = "store"

// authMiddleware validates session tokens and forward auth headers, then
// attaches the user and the session's WorkoutStore to the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.devUser != nil {
			s.serveAs(w, r, next, s.devUser, "dev:"+s.devUser.Username)
			return
		}

		// Check for Authelia forward auth header first
		if remoteUser := r.Header.Get("Remote-User"); remoteUser != "" {
			user, err := s.authSvc.ValidateForwardAuth(r.Context(), remoteUser)
			if err == nil && user != nil {
				s.serveAs(w, r, next, user, "remote:"+user.Username)
				return
			}
		}

		// Fall back to cookie-based session
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, domain.ErrUnauthenticated)
			return
		}

		user, err := s.authSvc.ValidateSession(r.Context(), cookie.Value, r.UserAgent())
		switch {
		case errors.Is(err, app.ErrSessionNotFound), errors.Is(err, app.ErrSessionExpired), errors.Is(err, app.ErrUserNotFound):
			s.registry.Close(cookie.Value)
			writeError(w, http.StatusUnauthorized, domain.ErrUnauthenticated)
			return
		case err != nil:
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("validate session")
			writeError(w, http.StatusInternalServerError, errors.New("internal error"))
			return
		}

		s.serveAs(w, r, next, user, cookie.Value)
	})
}

func (s *Server) serveAs(w http.ResponseWriter, r *http.Request, next http.Handler, user *domain.User, storeKey string) {
	ctx := app.WithUser(r.Context(), user)
	zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Int64("user", user.ID)
	})
	store := s.registry.Open(ctx, storeKey)
	ctx = context.WithValue(ctx, storeContextKey, store)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// storeFrom returns the WorkoutStore attached by authMiddleware.
func storeFrom(ctx context.Context) *app.WorkoutStore {
	st, _ := ctx.Value(storeContextKey).(*app.WorkoutStore)
	return st
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware attaches a request-scoped logger to the context and logs
// each request once it completes.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := s.logger.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context())))

		logger.Info().
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
