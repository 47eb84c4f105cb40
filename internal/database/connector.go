package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"golang.org/x/sync/singleflight"

	"github.com/redmonkez12/anonify/internal/config"
)

// OpenFunc opens a new database handle.
type OpenFunc func(ctx context.Context) (*bun.DB, error)

// Connector owns the process-wide database handle. The first caller opens
// the connection; concurrent callers wait on the same attempt. A failed
// attempt is not cached, so the next caller retries.
type Connector struct {
	open  OpenFunc
	group singleflight.Group

	mu sync.RWMutex
	db *bun.DB
}

func NewConnector(open OpenFunc) *Connector {
	return &Connector{open: open}
}

// NewPostgresConnector returns a Connector that opens a pooled lib/pq
// connection wrapped in bun.
func NewPostgresConnector(cfg config.DatabaseConfig) *Connector {
	return NewConnector(func(ctx context.Context) (*bun.DB, error) {
		return OpenPostgres(ctx, cfg)
	})
}

// DB returns the shared handle, opening it on first use.
func (c *Connector) DB(ctx context.Context) (*bun.DB, error) {
	c.mu.RLock()
	db := c.db
	c.mu.RUnlock()
	if db != nil {
		return db, nil
	}

	v, err, _ := c.group.Do("connect", func() (any, error) {
		c.mu.RLock()
		existing := c.db
		c.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		opened, err := c.open(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.db = opened
		c.mu.Unlock()
		return opened, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*bun.DB), nil
}

// Ping opens the connection if needed and checks it is alive.
func (c *Connector) Ping(ctx context.Context) error {
	db, err := c.DB(ctx)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Close releases the handle if one was opened.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// OpenPostgres initializes the database connection and returns a Bun DB instance
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	return NewBunDB(sqlDB), nil
}

// NewBunDB creates a new Bun DB instance from an existing sql.DB connection
func NewBunDB(sqlDB *sql.DB) *bun.DB {
	return bun.NewDB(sqlDB, pgdialect.New())
}
