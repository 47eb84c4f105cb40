package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestConnector_OpensOnceUnderConcurrency(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	var opens atomic.Int32
	release := make(chan struct{})
	c := NewConnector(func(ctx context.Context) (*bun.DB, error) {
		opens.Add(1)
		<-release
		return NewBunDB(sqlDB), nil
	})

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*bun.DB, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := c.DB(context.Background())
			assert.NoError(t, err)
			results[i] = db
		}(i)
	}
	close(release)
	wg.Wait()

	// Late callers may miss the in-flight call but must still see the cached handle.
	assert.Equal(t, int32(1), opens.Load())
	for _, db := range results {
		assert.Same(t, results[0], db)
	}
}

func TestConnector_FailureIsNotCached(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	attempts := 0
	c := NewConnector(func(ctx context.Context) (*bun.DB, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("connection refused")
		}
		return NewBunDB(sqlDB), nil
	})

	_, err = c.DB(context.Background())
	require.Error(t, err)

	db, err := c.DB(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, db)
	assert.Equal(t, 2, attempts)
}

func TestConnector_PingAndClose(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	c := NewConnector(func(ctx context.Context) (*bun.DB, error) {
		return NewBunDB(sqlDB), nil
	})

	mock.ExpectPing()
	require.NoError(t, c.Ping(context.Background()))

	mock.ExpectClose()
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir(migrationsDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
