package store

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/postgres"
)

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	port, _ := strconv.Atoi(envOrDefault("TEST_POSTGRES_PORT", "5432"))
	cfg := config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            port,
		Database:        envOrDefault("TEST_POSTGRES_DB", "tfidfsearch_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "tfidfsearch"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg)
	if err != nil {
		t.Skipf("skipping: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func TestSaveAndLoadSnapshots(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := context.Background()
	s := New(db)
	require.NoError(t, s.EnsureSchema(ctx))
	_, err := db.DB.ExecContext(ctx, `TRUNCATE request_stats_snapshots`)
	require.NoError(t, err)

	latest, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	h := analytics.NewHistory(4, 0)
	h.Add(analytics.NewSearchEvent("white cat", 0))
	first := h.Stats()
	require.NoError(t, s.SaveSnapshot(ctx, first))

	h.Add(analytics.NewSearchEvent("white dog", 2))
	second := h.Stats()
	second.CapturedAt = first.CapturedAt.Add(time.Second)
	require.NoError(t, s.SaveSnapshot(ctx, second))

	latest, err = s.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.Requests)
	assert.Equal(t, 1, latest.NoResultRequests)

	all, err := s.ListSnapshots(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[1].Requests)
}
