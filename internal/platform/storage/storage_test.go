package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-tracker-backend/internal/common/config"
	"referral-tracker-backend/internal/features/referral/models"
	"referral-tracker-backend/internal/features/referral/repository/gormdb"
	"referral-tracker-backend/internal/features/referral/repository/memory"
)

func testConfig(driver string) *config.Config {
	cfg := &config.Config{}
	cfg.Storage.Driver = driver
	return cfg
}

func TestOpenMemory(t *testing.T) {
	res, err := Open(context.Background(), testConfig(config.DriverMemory), true)
	require.NoError(t, err)
	defer res.Close()

	assert.IsType(t, &memory.Store{}, res.Store)
	assert.Nil(t, res.Redis)
	assert.NoError(t, res.Ready(context.Background()))
}

func TestOpenSQLitePersists(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(config.DriverSQLite)
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "referrals.db")

	res, err := Open(ctx, cfg, true)
	require.NoError(t, err)
	assert.IsType(t, &gormdb.Store{}, res.Store)
	require.NoError(t, res.Ready(ctx))
	require.NoError(t, res.Store.Milestones().Create(ctx, &models.Milestone{ReferralCount: 5, Award: 100}))
	res.Close()

	res, err = Open(ctx, cfg, false)
	require.NoError(t, err)
	defer res.Close()

	m, err := res.Store.Milestones().GetByReferralCount(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 100, m.Award)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), testConfig("cassandra"), true)
	assert.Error(t, err)
}
