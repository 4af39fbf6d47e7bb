package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wonny/canslim/pkg/config"
	"github.com/wonny/canslim/pkg/database"
)

// setupPostgresStore starts a disposable PostgreSQL container
// Skipped in -short mode or when Docker is unavailable
func setupPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("canslim"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	db, err := database.Open(ctx, dsn, config.DatabaseConfig{MaxConns: 4})
	require.NoError(t, err, "failed to open pool")

	store, err := NewPostgresStore(ctx, db)
	require.NoError(t, err, "failed to migrate")

	// migrations are idempotent
	_, err = NewPostgresStore(ctx, db)
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgresStoreConformance(t *testing.T) {
	storeConformance(t, setupPostgresStore(t))
}
