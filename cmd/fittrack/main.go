package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	adapthttp "fittrack/internal/adapter/http"
	"fittrack/internal/adapter/memory"
	"fittrack/internal/adapter/postgres"
	"fittrack/internal/adapter/sqlite"
	"fittrack/internal/app"
	"fittrack/internal/config"
	"fittrack/internal/domain"
)

// backend bundles the repositories of one storage choice.
type backend struct {
	workouts domain.WorkoutRepository
	users    domain.UserRepository
	sessions domain.SessionRepository
	profiles domain.ProfileRepository
	close    func() error
}

func openBackend(cfg *config.Config) (*backend, error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("no database_url, using in-memory storage")
		db := memory.New()
		return &backend{
			workouts: db, users: db, sessions: db.NewSessionRepo(), profiles: db,
			close: func() error { return nil },
		}, nil
	}
	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &backend{
		workouts: db, users: db, sessions: postgres.NewSessionRepo(db), profiles: db,
		close: db.Close,
	}, nil
}

// loadConfig layers defaults, the optional YAML file and explicitly set
// flags or environment variables, in that order.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if c.IsSet("config") {
		log.Info().Str("file", c.String("config")).Msg("config")
		var err error
		if cfg, err = config.Load(c.String("config")); err != nil {
			return nil, err
		}
	}

	overrides := map[string]*string{
		"addr":               &cfg.Addr,
		"web-dir":            &cfg.WebDir,
		"database-url":       &cfg.DatabaseURL,
		"cache-path":         &cfg.CachePath,
		"timezone":           &cfg.Timezone,
		"session-ttl":        &cfg.SessionTTL,
		"store-idle":         &cfg.StoreIdle,
		"janitor-interval":   &cfg.JanitorInterval,
		"dev-user":           &cfg.DevUser,
		"oidc-issuer":        &cfg.OIDC.Issuer,
		"oidc-client-id":     &cfg.OIDC.ClientID,
		"oidc-client-secret": &cfg.OIDC.ClientSecret,
		"oidc-redirect-url":  &cfg.OIDC.RedirectURL,
	}
	for name, dst := range overrides {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	return cfg, cfg.Validate()
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	loc, _ := cfg.Location()
	durations, _ := cfg.Durations()

	be, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = be.close() }()

	var cache domain.WorkoutCache
	if cfg.CachePath != "" {
		sc, err := sqlite.Open(cfg.CachePath)
		if err != nil {
			return err
		}
		defer func() { _ = sc.Close() }()
		cache = sc
		log.Info().Str("path", cfg.CachePath).Msg("workout cache enabled")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	index := app.NewDateIndex(domain.NewCalendar(loc))
	registry := app.NewStoreRegistry(be.workouts, cache, index)
	authSvc := app.NewAuthService(be.users, be.sessions, durations.SessionTTL)
	profileSvc := app.NewProfileService(be.profiles)

	var oidcConfig adapthttp.OIDCConfig
	if cfg.OIDC.Enabled() {
		oidcConfig, err = adapthttp.NewOIDCConfig(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			return err
		}
		log.Info().Str("issuer", cfg.OIDC.Issuer).Msg("sso enabled")
	}

	srv := adapthttp.New(registry, authSvc, profileSvc, oidcConfig, cfg.WebDir, log.Logger)
	if cfg.DevUser != "" {
		u, err := authSvc.ValidateForwardAuth(ctx, cfg.DevUser)
		if err != nil {
			return err
		}
		log.Warn().Str("user", u.Username).Msg("authentication disabled")
		srv = srv.WithoutAuth(u)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		log.Info().Str("address", cfg.Addr).Str("timezone", loc.String()).Msg("serving")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	grp.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	grp.Go(func() error {
		return janitor(ctx, authSvc, registry, durations.JanitorInterval, durations.StoreIdle)
	})
	return grp.Wait()
}

// janitor purges expired sessions and closes idle workout stores until ctx
// is done.
func janitor(ctx context.Context, authSvc *app.AuthService, registry *app.StoreRegistry, every, idle time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := authSvc.PurgeExpired(ctx); err != nil {
				log.Warn().Err(err).Msg("purge expired sessions")
			}
			if n := registry.SweepIdle(idle); n > 0 {
				log.Debug().Int("stores", n).Int("open", registry.Len()).Msg("closed idle stores")
			}
		}
	}
}

func newApp(envErr error) *cli.App {
	return &cli.App{
		Name:     "fittrack",
		HelpName: "fittrack",
		Usage:    "Workout tracker",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML configuration file", EnvVars: []string{"FITTRACK_CONFIG"}},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging", EnvVars: []string{"FITTRACK_DEBUG"}},
			&cli.StringFlag{Name: "addr", Usage: "listen address", DefaultText: ":8080", EnvVars: []string{"ADDR"}},
			&cli.StringFlag{Name: "web-dir", Usage: "directory with the web UI", DefaultText: "web", EnvVars: []string{"WEB_DIR"}},
			&cli.StringFlag{Name: "database-url", Usage: "PostgreSQL connection string", EnvVars: []string{"DATABASE_URL"}},
			&cli.StringFlag{Name: "cache-path", Usage: "SQLite file for the warm-start workout cache", EnvVars: []string{"FITTRACK_CACHE_PATH"}},
			&cli.StringFlag{Name: "timezone", Usage: "IANA zone that defines calendar days", DefaultText: "UTC", EnvVars: []string{"FITTRACK_TIMEZONE"}},
			&cli.StringFlag{Name: "session-ttl", Usage: "session lifetime", DefaultText: "24h", EnvVars: []string{"FITTRACK_SESSION_TTL"}},
			&cli.StringFlag{Name: "store-idle", Usage: "close workout stores idle for this long", DefaultText: "2h", EnvVars: []string{"FITTRACK_STORE_IDLE"}},
			&cli.StringFlag{Name: "janitor-interval", Usage: "how often to purge sessions and idle stores", DefaultText: "10m", EnvVars: []string{"FITTRACK_JANITOR_INTERVAL"}},
			&cli.StringFlag{Name: "dev-user", Usage: "disable authentication and act as this user", EnvVars: []string{"FITTRACK_DEV_USER"}},
			&cli.StringFlag{Name: "oidc-issuer", Usage: "OIDC issuer URL", EnvVars: []string{"OIDC_ISSUER"}},
			&cli.StringFlag{Name: "oidc-client-id", Usage: "OIDC client id", EnvVars: []string{"OIDC_CLIENT_ID"}},
			&cli.StringFlag{Name: "oidc-client-secret", Usage: "OIDC client secret", EnvVars: []string{"OIDC_CLIENT_SECRET"}},
			&cli.StringFlag{Name: "oidc-redirect-url", Usage: "OIDC redirect URL", EnvVars: []string{"OIDC_REDIRECT_URL"}},
		},
		ExitErrHandler: func(c *cli.Context, err error) {
			if err == nil {
				return
			}
			log.Error().Err(err).Msg(c.App.Name)
		},
		Before: func(c *cli.Context) error {
			level := zerolog.InfoLevel
			if c.Bool("debug") {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			zerolog.DurationFieldUnit = time.Millisecond
			zerolog.DurationFieldInteger = false
			log.Logger = log.Output(
				zerolog.ConsoleWriter{
					Out:        c.App.ErrWriter,
					TimeFormat: time.RFC3339,
				},
			)
			if envErr != nil {
				log.Warn().Err(envErr).Msg("load .env")
			}
			return nil
		},
		Action: serve,
	}
}

func main() {
	// .env must be applied before flags read their EnvVars.
	envErr := godotenv.Load()
	if errors.Is(envErr, fs.ErrNotExist) {
		envErr = nil
	}

	if err := newApp(envErr).RunContext(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}
