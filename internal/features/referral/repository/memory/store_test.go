package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-tracker-backend/internal/features/referral/repository"
	"referral-tracker-backend/internal/features/referral/repository/repositorytest"
)

func TestStoreContract(t *testing.T) {
	repositorytest.Run(t, func(t *testing.T) repository.Store {
		return NewStore()
	}, repositorytest.Options{Rollback: true})
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Users().Create(ctx, repositorytest.NewUser("jane@example.com", "code-1")))

	u, err := s.Users().GetByReferralCode(ctx, "code-1")
	require.NoError(t, err)
	u.SuccessfulReferrals = 42

	again, err := s.Users().GetByReferralCode(ctx, "code-1")
	require.NoError(t, err)
	assert.Zero(t, again.SuccessfulReferrals)
}

func TestAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first := repositorytest.NewUser("a@example.com", "a")
	second := repositorytest.NewUser("b@example.com", "b")
	require.NoError(t, s.Users().Create(ctx, first))
	require.NoError(t, s.Users().Create(ctx, second))

	assert.Equal(t, uint(1), first.ID)
	assert.Equal(t, uint(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())
}

func TestTransactionHonoursCancelledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Transaction(ctx, func(tx repository.Store) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Users().Create(ctx, repositorytest.NewUser("jane@example.com", "code-1")))

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Transaction(ctx, func(tx repository.Store) error {
				_, err := tx.Users().IncrementSuccessfulReferrals(ctx, "code-1")
				return err
			})
		}()
	}
	wg.Wait()

	u, err := s.Users().GetByReferralCode(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, workers, u.SuccessfulReferrals)
}
