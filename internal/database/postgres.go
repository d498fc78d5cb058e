package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/stwalsh4118/bluesky/api/internal/config"
	"github.com/stwalsh4118/bluesky/api/internal/models"
)

// Database wraps the pgx connection pool and a GORM handle sharing it.
type Database struct {
	Pool *pgxpool.Pool
	Gorm *gorm.DB

	sqlDB *sql.DB
}

// NewPostgresPool creates a new PostgreSQL connection pool using pgx.
// It configures the pool based on the provided database configuration,
// tests the connection, and opens a GORM handle over the same pool.
func NewPostgresPool(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	// Build connection string (DSN)
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	// Parse connection string and create pool config
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Configure connection pool settings
	poolConfig.MinConns = int32(cfg.PoolMin)
	poolConfig.MaxConns = int32(cfg.PoolMax)

	// Set connection timeouts
	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Second
	poolConfig.MaxConnLifetime = 1 * time.Hour

	// Health check period (how often to check idle connections)
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// Create the connection pool
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection immediately
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	return &Database{Pool: pool, Gorm: gdb, sqlDB: sqlDB}, nil
}

// Migrate creates or updates every inventory table.
func (db *Database) Migrate(ctx context.Context) error {
	if db.Gorm == nil {
		return fmt.Errorf("gorm handle is not initialized")
	}
	if err := db.Gorm.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Ping checks if the database connection is alive.
// It returns an error if the connection is not available.
func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close gracefully closes the GORM handle and the connection pool.
// It waits for all connections to be returned to the pool before closing.
func (db *Database) Close() {
	if db.sqlDB != nil {
		_ = db.sqlDB.Close()
		db.sqlDB = nil
	}
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Stats returns statistics about the connection pool.
// This is useful for monitoring and debugging.
func (db *Database) Stats() *pgxpool.Stat {
	if db.Pool == nil {
		return nil
	}
	return db.Pool.Stat()
}

// PoolStats is a snapshot of connection pool usage.
type PoolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}

// PoolStats returns a snapshot of the pool, or zero values before the pool exists.
func (db *Database) PoolStats() PoolStats {
	stat := db.Stats()
	if stat == nil {
		return PoolStats{}
	}
	return PoolStats{
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
	}
}

// MissingTables lists the model tables that Migrate has not created yet.
func (db *Database) MissingTables(ctx context.Context) ([]string, error) {
	if db.Gorm == nil {
		return nil, fmt.Errorf("gorm handle is not initialized")
	}

	migrator := db.Gorm.WithContext(ctx).Migrator()
	var missing []string
	for _, model := range models.All() {
		if migrator.HasTable(model) {
			continue
		}
		if t, ok := model.(interface{ TableName() string }); ok {
			missing = append(missing, t.TableName())
		}
	}
	return missing, nil
}
