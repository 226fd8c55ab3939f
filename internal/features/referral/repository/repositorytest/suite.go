// Package repositorytest holds the behaviour every repository.Store backend must share.
package repositorytest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-tracker-backend/internal/features/referral/models"
	"referral-tracker-backend/internal/features/referral/repository"
)

// Options describes what a backend guarantees beyond the common contract.
type Options struct {
	// Rollback is set when a failed Transaction discards its writes.
	Rollback bool
}

// Run exercises newStore against the shared contract. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store, opts Options) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("withdraw frees email", func(t *testing.T) { testWithdrawFreesEmail(t, newStore(t)) })
	t.Run("increment", func(t *testing.T) { testIncrement(t, newStore(t)) })
	t.Run("referrals", func(t *testing.T) { testReferrals(t, newStore(t)) })
	t.Run("milestones", func(t *testing.T) { testMilestones(t, newStore(t)) })
	t.Run("transaction commit", func(t *testing.T) { testTransactionCommit(t, newStore(t)) })
	if opts.Rollback {
		t.Run("transaction rollback", func(t *testing.T) { testTransactionRollback(t, newStore(t)) })
		t.Run("transaction survives constraint failure", func(t *testing.T) { testConstraintInsideTransaction(t, newStore(t)) })
	}
	t.Run("ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

// NewUser returns an active user ready to insert.
func NewUser(email, code string) *models.User {
	return &models.User{
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        email,
		Password:     "hunter2",
		PhoneNumber:  "5551234567",
		ReferralCode: code,
	}
}

func testUsers(t *testing.T, s repository.Store) {
	ctx := context.Background()
	users := s.Users()

	require.NoError(t, users.Create(ctx, NewUser("jane@example.com", "code-1")))

	got, err := users.GetActiveByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "code-1", got.ReferralCode)
	assert.Equal(t, "Jane", got.FirstName)
	assert.Equal(t, "Doe", got.LastName)
	assert.Equal(t, "hunter2", got.Password)
	assert.Equal(t, "5551234567", got.PhoneNumber)
	assert.False(t, got.HasWithdrawn)
	assert.Zero(t, got.SuccessfulReferrals)

	got, err = users.GetActiveByReferralCode(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", got.Email)

	exists, err := users.ReferralCodeExists(ctx, "code-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = users.ReferralCodeExists(ctx, "code-2")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = users.GetActiveByEmail(ctx, "john@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = users.GetByReferralCode(ctx, "code-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = users.Create(ctx, NewUser("john@example.com", "code-1"))
	assert.ErrorIs(t, err, repository.ErrReferralCodeTaken)

	err = users.Create(ctx, NewUser("jane@example.com", "code-3"))
	assert.ErrorIs(t, err, repository.ErrEmailTaken)

	err = users.MarkWithdrawn(ctx, "code-404")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testWithdrawFreesEmail(t *testing.T, s repository.Store) {
	ctx := context.Background()
	users := s.Users()

	require.NoError(t, users.Create(ctx, NewUser("jane@example.com", "old")))
	require.NoError(t, users.MarkWithdrawn(ctx, "old"))

	_, err := users.GetActiveByEmail(ctx, "jane@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = users.GetActiveByReferralCode(ctx, "old")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	withdrawn, err := users.GetByReferralCode(ctx, "old")
	require.NoError(t, err)
	assert.True(t, withdrawn.HasWithdrawn)

	require.NoError(t, users.Create(ctx, NewUser("jane@example.com", "new")))

	active, err := users.GetActiveByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new", active.ReferralCode)

	// the withdrawn code stays reserved
	err = users.Create(ctx, NewUser("other@example.com", "old"))
	assert.ErrorIs(t, err, repository.ErrReferralCodeTaken)
}

func testIncrement(t *testing.T, s repository.Store) {
	ctx := context.Background()
	users := s.Users()

	require.NoError(t, users.Create(ctx, NewUser("jane@example.com", "code-1")))

	for want := 1; want <= 3; want++ {
		n, err := users.IncrementSuccessfulReferrals(ctx, "code-1")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	got, err := users.GetByReferralCode(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.SuccessfulReferrals)

	_, err = users.IncrementSuccessfulReferrals(ctx, "code-404")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testReferrals(t *testing.T, s repository.Store) {
	ctx := context.Background()
	refs := s.Referrals()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	empty, err := refs.ListByReferrer(ctx, "referrer")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, refs.Create(ctx, &models.Referral{ReferredUser: "b", ReferredBy: "referrer", Timestamp: ts, Award: 0}))
	require.NoError(t, refs.Create(ctx, &models.Referral{ReferredUser: "a", ReferredBy: "referrer", Timestamp: ts.Add(time.Hour), Award: 100}))
	require.NoError(t, refs.Create(ctx, &models.Referral{ReferredUser: "c", ReferredBy: "someone-else", Timestamp: ts, Award: 0}))

	err = refs.Create(ctx, &models.Referral{ReferredUser: "a", ReferredBy: "someone-else", Timestamp: ts})
	assert.ErrorIs(t, err, repository.ErrReferredUserTaken)

	list, err := refs.ListByReferrer(ctx, "referrer")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ReferredUser)
	assert.Equal(t, "a", list[1].ReferredUser)
	assert.Equal(t, 100, list[1].Award)
	assert.True(t, ts.Add(time.Hour).Equal(list[1].Timestamp))
}

func testMilestones(t *testing.T, s repository.Store) {
	ctx := context.Background()
	ms := s.Milestones()

	list, err := ms.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, ms.Create(ctx, &models.Milestone{ReferralCount: 10, Award: 250}))
	require.NoError(t, ms.Create(ctx, &models.Milestone{ReferralCount: 5, Award: 100}))

	err = ms.Create(ctx, &models.Milestone{ReferralCount: 5, Award: 999})
	assert.ErrorIs(t, err, repository.ErrMilestoneExists)

	m, err := ms.GetByReferralCount(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 100, m.Award)

	_, err = ms.GetByReferralCount(ctx, 7)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err = ms.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 10, list[0].ReferralCount)
	assert.Equal(t, 5, list[1].ReferralCount)
}

func testTransactionCommit(t *testing.T, s repository.Store) {
	ctx := context.Background()

	err := s.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, NewUser("jane@example.com", "code-1")); err != nil {
			return err
		}
		// reads inside the transaction see its own writes
		_, err := tx.Users().GetActiveByEmail(ctx, "jane@example.com")
		return err
	})
	require.NoError(t, err)

	_, err = s.Users().GetActiveByEmail(ctx, "jane@example.com")
	assert.NoError(t, err)
}

func testTransactionRollback(t *testing.T, s repository.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, NewUser("jane@example.com", "code-1")); err != nil {
			return err
		}
		if err := tx.Milestones().Create(ctx, &models.Milestone{ReferralCount: 1, Award: 10}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Users().GetActiveByEmail(ctx, "jane@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Milestones().GetByReferralCount(ctx, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Users().Create(ctx, NewUser("jane@example.com", "code-1")))
}

func testConstraintInsideTransaction(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Milestones().Create(ctx, &models.Milestone{ReferralCount: 5, Award: 100}))

	err := s.Transaction(ctx, func(tx repository.Store) error {
		err := tx.Milestones().Create(ctx, &models.Milestone{ReferralCount: 5, Award: 1})
		if !errors.Is(err, repository.ErrMilestoneExists) {
			return err
		}
		return tx.Milestones().Create(ctx, &models.Milestone{ReferralCount: 6, Award: 120})
	})
	require.NoError(t, err)

	list, err := s.Milestones().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
