package service

import (
	"context"
	"time"

	"referral-tracker-backend/internal/features/referral/models"
)

type ReferralService interface {
	Enroll(ctx context.Context, req models.EnrollRequest) (*models.User, error)
	GetReferralCode(ctx context.Context, email string) (string, error)
	Withdraw(ctx context.Context, email string) error
	GetMilestones(ctx context.Context, email string) ([]models.MilestoneStatus, error)
	AddMilestone(ctx context.Context, referralCount, award string) (*models.Milestone, error)
	GetReferralHistory(ctx context.Context, email string) ([]models.HistoryEntry, error)
	ListMilestones(ctx context.Context) ([]*models.Milestone, error)
}

// MilestoneCache is satisfied by cache.CacheService.
type MilestoneCache interface {
	MilestonesKey(ctx context.Context) (string, error)
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, setter func() (interface{}, error)) error
	InvalidateMilestones(ctx context.Context) error
}
