package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_GivesUpAfterRetries(t *testing.T) {
	// nothing listens on port 1
	dsn := "postgres://u:p@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"

	start := time.Now()
	d, err := Connect(context.Background(), dsn, 2, 10*time.Millisecond)
	require.Error(t, err)
	assert.Nil(t, d)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestConnect_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Connect(ctx, "postgres://u:p@127.0.0.1:1/none?sslmode=disable", 10, time.Second)
	assert.Error(t, err)
}

func TestConnect_Succeeds(t *testing.T) {
	if testPool == nil {
		t.Skip("no test database")
	}

	d, err := Connect(context.Background(), testDSN, 1, 10*time.Millisecond)
	require.NoError(t, err)
	defer d.Close()
	assert.NoError(t, d.Pool().Ping(context.Background()))
}

func TestRunMigrations_Idempotent(t *testing.T) {
	setupTestDB(t)

	// already applied in TestMain; a second run is a no-op
	require.NoError(t, RunMigrations(context.Background(), testDSN))

	var exists bool
	err := testPool.QueryRow(context.Background(),
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'dynamic_properties')").Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists)
}
