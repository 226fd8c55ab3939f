package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"referral-tracker-backend/internal/common/config"
	"referral-tracker-backend/internal/common/logger"
	"referral-tracker-backend/internal/features/referral/models"
)

// Partial index: email is unique among active users only.
const activeEmailIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_users_active_email ON users (email) WHERE has_withdrawn = false`

type Client struct {
	db *gorm.DB
}

func gormConfig(debug bool) *gorm.Config {
	level := gormlogger.Silent
	if debug {
		level = gormlogger.Info
	}
	return &gorm.Config{Logger: gormlogger.Default.LogMode(level)}
}

// NewPostgresClient opens a pooled postgres connection and pings it.
func NewPostgresClient(cfg *config.Config) (*Client, error) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), gormConfig(cfg.Debug))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Str("host", cfg.Postgres.Host).
		Int("port", cfg.Postgres.Port).
		Str("database", cfg.Postgres.Database).
		Msg("PostgreSQL client initialized")

	return &Client{db: db}, nil
}

// NewSQLiteClient opens a SQLite database file (or ":memory:").
func NewSQLiteClient(path string, debug bool) (*Client, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig(debug))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" databases alive.
	sqlDB.SetMaxOpenConns(1)

	logger.Info().Str("path", path).Msg("SQLite client initialized")

	return &Client{db: db}, nil
}

// Migrate creates the users, referrals and milestones tables with their unique indexes.
func (c *Client) Migrate() error {
	if err := c.db.AutoMigrate(&models.User{}, &models.Referral{}, &models.Milestone{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := c.db.Exec(activeEmailIndex).Error; err != nil {
		return fmt.Errorf("failed to create active email index: %w", err)
	}
	return nil
}

func (c *Client) GetDB() *gorm.DB {
	return c.db
}

func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (c *Client) HealthCheck(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
