package gormdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"referral-tracker-backend/internal/features/referral/models"
	"referral-tracker-backend/internal/features/referral/repository"
)

// Store persists records through gorm. Postgres and SQLite both back it.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() repository.UserRepository           { return &userRepository{db: s.db} }
func (s *Store) Referrals() repository.ReferralRepository   { return &referralRepository{db: s.db} }
func (s *Store) Milestones() repository.MilestoneRepository { return &milestoneRepository{db: s.db} }

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// uniqueViolation returns the column named by a unique constraint failure, or
// "" when err is not one. Postgres reports the index name, SQLite the column.
func uniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	msg := strings.ToLower(err.Error())
	if !errors.Is(err, gorm.ErrDuplicatedKey) &&
		!strings.Contains(msg, "unique constraint") &&
		!strings.Contains(msg, "duplicate key") {
		return "", false
	}
	for _, col := range []string{"referral_code", "referral_count", "referred_user", "email"} {
		if strings.Contains(msg, col) {
			return col, true
		}
	}
	return "", true
}

// insert runs the insert inside a savepoint so a constraint failure leaves
// the surrounding transaction usable.
func insert(ctx context.Context, db *gorm.DB, value interface{}) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(value).Error
	})
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	err := insert(ctx, r.db, user)
	if col, ok := uniqueViolation(err); ok {
		switch col {
		case "referral_code":
			return repository.ErrReferralCodeTaken
		case "email":
			return repository.ErrEmailTaken
		}
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) first(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, args...).Order("id").Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ? AND has_withdrawn = ?", email, false)
}

func (r *userRepository) GetActiveByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return r.first(ctx, "referral_code = ? AND has_withdrawn = ?", code, false)
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return r.first(ctx, "referral_code = ?", code)
}

func (r *userRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("referral_code = ?", code).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check referral code: %w", err)
	}
	return n > 0, nil
}

func (r *userRepository) IncrementSuccessfulReferrals(ctx context.Context, code string) (int, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("referral_code = ?", code).
		UpdateColumn("successful_referrals", gorm.Expr("successful_referrals + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to increment referrals: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, repository.ErrNotFound
	}

	user, err := r.GetByReferralCode(ctx, code)
	if err != nil {
		return 0, err
	}
	return user.SuccessfulReferrals, nil
}

func (r *userRepository) MarkWithdrawn(ctx context.Context, code string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("referral_code = ?", code).
		Update("has_withdrawn", true)
	if res.Error != nil {
		return fmt.Errorf("failed to withdraw user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type referralRepository struct {
	db *gorm.DB
}

func (r *referralRepository) Create(ctx context.Context, referral *models.Referral) error {
	err := insert(ctx, r.db, referral)
	if col, ok := uniqueViolation(err); ok && col == "referred_user" {
		return repository.ErrReferredUserTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create referral: %w", err)
	}
	return nil
}

func (r *referralRepository) ListByReferrer(ctx context.Context, code string) ([]*models.Referral, error) {
	var referrals []*models.Referral
	err := r.db.WithContext(ctx).Where("referred_by = ?", code).Order("id").Find(&referrals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	return referrals, nil
}

type milestoneRepository struct {
	db *gorm.DB
}

func (r *milestoneRepository) Create(ctx context.Context, milestone *models.Milestone) error {
	err := insert(ctx, r.db, milestone)
	if col, ok := uniqueViolation(err); ok && col == "referral_count" {
		return repository.ErrMilestoneExists
	}
	if err != nil {
		return fmt.Errorf("failed to create milestone: %w", err)
	}
	return nil
}

func (r *milestoneRepository) GetByReferralCount(ctx context.Context, count int) (*models.Milestone, error) {
	var milestone models.Milestone
	err := r.db.WithContext(ctx).Where("referral_count = ?", count).Take(&milestone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone: %w", err)
	}
	return &milestone, nil
}

func (r *milestoneRepository) List(ctx context.Context) ([]*models.Milestone, error) {
	var milestones []*models.Milestone
	if err := r.db.WithContext(ctx).Order("id").Find(&milestones).Error; err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return milestones, nil
}
