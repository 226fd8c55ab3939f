package storage

import (
	"context"
	"fmt"

	"referral-tracker-backend/internal/common/config"
	"referral-tracker-backend/internal/features/referral/repository"
	"referral-tracker-backend/internal/features/referral/repository/gormdb"
	"referral-tracker-backend/internal/features/referral/repository/memory"
	redisrepo "referral-tracker-backend/internal/features/referral/repository/redis"
	"referral-tracker-backend/internal/platform/database"
	"referral-tracker-backend/internal/platform/redis"
)

// Resources are the store and optional redis connection selected by config.
type Resources struct {
	Store repository.Store
	Redis *redis.Client
}

// Open connects the configured store, migrating SQL schemas when migrate is set.
func Open(ctx context.Context, cfg *config.Config, migrate bool) (*Resources, error) {
	res := &Resources{}

	if cfg.NeedsRedis() {
		rdb, err := redis.OpenFromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		res.Redis = rdb
	}

	var db *database.Client
	var err error
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err = database.NewPostgresClient(cfg)
	case config.DriverSQLite:
		db, err = database.NewSQLiteClient(cfg.SQLite.Path, cfg.Debug)
	case config.DriverRedis:
		res.Store = redisrepo.NewStore(res.Redis.Client, cfg.Redis.LockTTL)
		return res, nil
	case config.DriverMemory:
		res.Store = memory.NewStore()
		return res, nil
	default:
		err = fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		res.Close()
		return nil, err
	}

	if migrate {
		if err := db.Migrate(); err != nil {
			db.Close()
			res.Close()
			return nil, err
		}
	}
	res.Store = gormdb.NewStore(db.GetDB())
	return res, nil
}

// Ready pings every backing service.
func (r *Resources) Ready(ctx context.Context) error {
	if err := r.Store.Ping(ctx); err != nil {
		return fmt.Errorf("store unavailable: %w", err)
	}
	if r.Redis != nil {
		if err := r.Redis.HealthCheck(ctx); err != nil {
			return fmt.Errorf("redis unavailable: %w", err)
		}
	}
	return nil
}

func (r *Resources) Close() {
	if r.Store != nil {
		_ = r.Store.Close()
	}
	// the redis store owns the client and closed it above
	if r.Redis != nil && !isRedisStore(r.Store) {
		_ = r.Redis.Close()
	}
}

func isRedisStore(s repository.Store) bool {
	_, ok := s.(*redisrepo.Store)
	return ok
}
