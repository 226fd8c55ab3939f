package repository

import (
	"context"
	"errors"

	"referral-tracker-backend/internal/features/referral/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrEmailTaken        = errors.New("email already registered by an active user")
	ErrReferralCodeTaken = errors.New("referral code already exists")
	ErrReferredUserTaken = errors.New("user already has a referral record")
	ErrMilestoneExists   = errors.New("milestone already exists")
)

type UserRepository interface {
	// Create fails with ErrEmailTaken or ErrReferralCodeTaken when a uniqueness guard fires.
	Create(ctx context.Context, user *models.User) error
	GetActiveByEmail(ctx context.Context, email string) (*models.User, error)
	GetActiveByReferralCode(ctx context.Context, code string) (*models.User, error)
	// GetByReferralCode includes withdrawn users.
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	// IncrementSuccessfulReferrals returns the updated count.
	IncrementSuccessfulReferrals(ctx context.Context, code string) (int, error)
	MarkWithdrawn(ctx context.Context, code string) error
}

type ReferralRepository interface {
	Create(ctx context.Context, referral *models.Referral) error
	// ListByReferrer returns referrals in insertion order.
	ListByReferrer(ctx context.Context, code string) ([]*models.Referral, error)
}

type MilestoneRepository interface {
	Create(ctx context.Context, milestone *models.Milestone) error
	GetByReferralCount(ctx context.Context, count int) (*models.Milestone, error)
	// List returns milestones in insertion order.
	List(ctx context.Context) ([]*models.Milestone, error)
}

// Store groups the three record kinds behind one transactional boundary.
type Store interface {
	Users() UserRepository
	Referrals() ReferralRepository
	Milestones() MilestoneRepository

	// Transaction runs fn against a store bound to one transaction. A non-nil
	// error from fn is returned unchanged.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
	Close() error
}
