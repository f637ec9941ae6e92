package adapthttp

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"fittrack/internal/app"
	"fittrack/internal/domain"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	registry   *app.StoreRegistry
	authSvc    *app.AuthService
	profiles   *app.ProfileService
	oidcConfig OIDCConfig
	webDir     string
	logger     zerolog.Logger
	now        func() time.Time

	// devUser, when set, bypasses authentication and serves every request
	// as that user.
	devUser *domain.User
}

// New creates a Server wired to the given application services.
func New(registry *app.StoreRegistry, authSvc *app.AuthService, profiles *app.ProfileService, oidcConfig OIDCConfig, webDir string, logger zerolog.Logger) *Server {
	return &Server{
		registry:   registry,
		authSvc:    authSvc,
		profiles:   profiles,
		oidcConfig: oidcConfig,
		webDir:     webDir,
		logger:     logger,
		now:        time.Now,
	}
}

// WithoutAuth disables authentication and serves every request as u. It is
// meant for local development and tests.
func (s *Server) WithoutAuth(u *domain.User) *Server {
	s.devUser = u
	return s
}

// WithClock overrides the time source used for past/current/future queries.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	api.HandleFunc("GET /config", s.handleConfig)

	api.HandleFunc("POST /auth/login", s.handleLogin)
	api.HandleFunc("POST /auth/logout", s.handleLogout)
	api.HandleFunc("POST /auth/setup", s.handleSetupUser)
	api.HandleFunc("POST /auth/register", s.handleRegister)
	api.HandleFunc("GET /auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("GET /auth/sso/callback", s.handleSSOCallback)

	protected := http.NewServeMux()
	protected.HandleFunc("GET /workouts", s.handleWorkoutsList)
	protected.HandleFunc("POST /workouts", s.handleWorkoutCreate)
	protected.HandleFunc("GET /workouts/past", s.handlePartition(partitionPast))
	protected.HandleFunc("GET /workouts/current", s.handlePartition(partitionCurrent))
	protected.HandleFunc("GET /workouts/future", s.handlePartition(partitionFuture))
	protected.HandleFunc("GET /workouts/recommended", s.handleRecommended)
	protected.HandleFunc("GET /workouts/{id}", s.handleWorkoutGet)
	protected.HandleFunc("DELETE /workouts/{id}", s.handleWorkoutDelete)
	protected.HandleFunc("POST /workouts/{id}/complete", s.handleWorkoutComplete)
	protected.HandleFunc("POST /workouts/{id}/exercises/{exerciseId}/toggle", s.handleExerciseToggle)
	protected.HandleFunc("PATCH /workouts/{id}/exercises/{exerciseId}", s.handleExerciseUpdate)
	protected.HandleFunc("DELETE /workouts/{id}/exercises/{exerciseId}", s.handleExerciseDelete)

	protected.HandleFunc("GET /calendar/day", s.handleCalendarDay)
	protected.HandleFunc("POST /calendar/select", s.handleCalendarSelect)
	protected.HandleFunc("GET /calendar/selected", s.handleCalendarSelected)
	protected.HandleFunc("GET /calendar/month", s.handleCalendarMonth)

	protected.HandleFunc("GET /profile", s.handleProfileGet)
	protected.HandleFunc("PATCH /profile", s.handleProfileUpdate)

	authed := s.authMiddleware(protected)
	for _, prefix := range []string{"/workouts", "/workouts/", "/calendar/", "/profile"} {
		api.Handle(prefix, authed)
	}

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withNoCache(root))
}
