package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/goleak"

	"fittrack/internal/adapter/memory"
	"fittrack/internal/app"
	"fittrack/internal/config"
	"fittrack/internal/domain"
)

func TestLoadConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fittrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":9000\"\nweb_dir: /srv/www\ndev_user: local\n"), 0o600))

	var cfg *config.Config
	a := newApp(nil)
	a.Action = func(c *cli.Context) error {
		var err error
		cfg, err = loadConfig(c)
		return err
	}
	require.NoError(t, a.Run([]string{"fittrack", "--config", path, "--addr", ":7000"}))

	assert.Equal(t, ":7000", cfg.Addr, "flags win over the file")
	assert.Equal(t, "/srv/www", cfg.WebDir, "file wins over defaults")
	assert.Equal(t, "24h", cfg.SessionTTL)
}

func TestJanitorStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	db := memory.New()
	sessions := db.NewSessionRepo()
	ctx := context.Background()
	require.NoError(t, sessions.Create(ctx, 1, "old", "ua", "ip", time.Now().Add(-time.Minute)))

	registry := app.NewStoreRegistry(db, nil, app.NewDateIndex(domain.NewCalendar(time.UTC)))
	registry.Open(ctx, "idle")
	authSvc := app.NewAuthService(db, sessions, time.Hour)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- janitor(ctx, authSvc, registry, time.Millisecond, time.Nanosecond) }()

	require.Eventually(t, func() bool { return registry.Len() == 0 }, time.Second, time.Millisecond)
	s, err := sessions.GetByToken(context.Background(), "old")
	require.NoError(t, err)
	assert.Nil(t, s)

	cancel()
	assert.NoError(t, <-done)
}
