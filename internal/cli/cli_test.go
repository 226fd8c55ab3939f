package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-tracker-backend/internal/common/config"
	apperrors "referral-tracker-backend/internal/common/errors"
	"referral-tracker-backend/internal/features/referral/repository/memory"
	"referral-tracker-backend/internal/platform/storage"
)

func run(t *testing.T, open OpenFunc, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func memoryOpener(store *memory.Store) OpenFunc {
	return func(ctx context.Context, cfg *config.Config, migrate bool) (*storage.Resources, error) {
		return &storage.Resources{Store: store}, nil
	}
}

func TestMilestonesAddAndList(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", config.DriverMemory)
	open := memoryOpener(memory.NewStore())

	out, err := run(t, open, "milestones", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No milestones.")

	out, err = run(t, open, "milestones", "add", "--count", "5", "--award", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "Milestone Added. referral_count=5 award=100")

	_, err = run(t, open, "milestones", "add", "--count", "10", "--award", "250")
	require.NoError(t, err)

	out, err = run(t, open, "milestones", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "REFERRAL COUNT")
	assert.Contains(t, out, "250")
	assert.Less(t, bytes.Index([]byte(out), []byte("100")), bytes.Index([]byte(out), []byte("250")))
}

func TestMilestonesAddRejectsDuplicateAndInvalid(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", config.DriverMemory)
	open := memoryOpener(memory.NewStore())

	_, err := run(t, open, "milestones", "add", "--count", "5", "--award", "100")
	require.NoError(t, err)

	_, err = run(t, open, "milestones", "add", "--count", "5", "--award", "300")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeDuplicateMilestone, appErr.Code)

	_, err = run(t, open, "milestones", "add", "--count=-1", "--award=300")
	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidMilestone, appErr.Code)
}

func TestMilestonesAddRequiresFlags(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", config.DriverMemory)

	_, err := run(t, memoryOpener(memory.NewStore()), "milestones", "add", "--count", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "award")
}

func TestMigrate(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", config.DriverSQLite)
		t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "referrals.db"))

		out, err := run(t, nil, "migrate")
		require.NoError(t, err)
		assert.Contains(t, out, "Schema migrated.")

		// migrations are idempotent
		_, err = run(t, nil, "migrate")
		require.NoError(t, err)
	})

	t.Run("memory has no schema", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", config.DriverMemory)

		out, err := run(t, nil, "migrate")
		require.NoError(t, err)
		assert.Contains(t, out, "nothing to migrate")
	})
}

func TestInvalidDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "cassandra")

	_, err := run(t, nil, "milestones", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
}
