package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	apperrors "referral-tracker-backend/internal/common/errors"
	"referral-tracker-backend/internal/common/logger"
	"referral-tracker-backend/internal/common/validation"
	"referral-tracker-backend/internal/features/referral/models"
	"referral-tracker-backend/internal/features/referral/repository"
)

// Collisions of random v4 UUIDs are not expected; the bound only stops a broken generator.
const maxCodeAttempts = 5

type referralService struct {
	store    repository.Store
	cache    MilestoneCache
	cacheTTL time.Duration
	newCode  func() string
	now      func() time.Time
}

type Option func(*referralService)

func WithCache(c MilestoneCache, ttl time.Duration) Option {
	return func(s *referralService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithCodeGenerator(fn func() string) Option {
	return func(s *referralService) {
		s.newCode = fn
	}
}

func WithClock(fn func() time.Time) Option {
	return func(s *referralService) {
		s.now = fn
	}
}

func NewReferralService(store repository.Store, opts ...Option) ReferralService {
	s := &referralService{
		store:   store,
		newCode: uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *referralService) Enroll(ctx context.Context, req models.EnrollRequest) (*models.User, error) {
	if req.FirstName == nil || req.LastName == nil || req.Password == nil {
		return nil, apperrors.NewMissingFieldsError()
	}

	user := &models.User{
		FirstName: *req.FirstName,
		LastName:  *req.LastName,
		Password:  *req.Password,
	}
	if err := validation.ValidateFields(user, "FirstName", "LastName", "Password"); err != nil {
		return nil, apperrors.NewMissingFieldsError(validation.FailedFields(err)...)
	}

	email := deref(req.Email)
	if !validation.IsValidEmail(email) {
		return nil, apperrors.NewInvalidEmailError(email)
	}
	phone := deref(req.PhoneNumber)
	if !validation.IsValidPhoneNumber(phone) {
		return nil, apperrors.NewInvalidPhoneError()
	}
	user.Email = email
	user.PhoneNumber = phone
	if err := validation.ValidateStruct(user); err != nil {
		return nil, recordError(err, email)
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetActiveByEmail(ctx, email); err == nil {
			return apperrors.NewEmailTakenError(email)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewDatabaseError("get user by email", err)
		}

		var referrer *models.User
		if req.ReferredBy != nil {
			r, err := tx.Users().GetActiveByReferralCode(ctx, *req.ReferredBy)
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewInvalidReferralError(*req.ReferredBy)
			}
			if err != nil {
				return apperrors.NewDatabaseError("get referrer", err)
			}
			referrer = r
		}

		// The award is resolved against the referrer's count including this enrollment.
		var referrerCount int
		if referrer != nil {
			n, err := tx.Users().IncrementSuccessfulReferrals(ctx, referrer.ReferralCode)
			if err != nil {
				return apperrors.NewDatabaseError("increment successful referrals", err)
			}
			referrerCount = n
		}

		if err := s.createWithFreshCode(ctx, tx, user); err != nil {
			return err
		}

		if referrer == nil {
			return nil
		}

		award := 0
		milestone, err := tx.Milestones().GetByReferralCount(ctx, referrerCount)
		switch {
		case err == nil:
			award = milestone.Award
		case !errors.Is(err, repository.ErrNotFound):
			return apperrors.NewDatabaseError("get milestone", err)
		}

		referral := &models.Referral{
			ReferredUser: user.ReferralCode,
			ReferredBy:   referrer.ReferralCode,
			Timestamp:    s.now().UTC(),
			Award:        award,
		}
		if err := tx.Referrals().Create(ctx, referral); err != nil {
			return apperrors.NewDatabaseError("create referral", err)
		}

		logger.Info().
			Str("referred_by", referrer.ReferralCode).
			Str("referred_user", user.ReferralCode).
			Int("referrer_count", referrerCount).
			Int("award", award).
			Msg("Referral recorded")
		return nil
	})
	if err != nil {
		return nil, asAppError("enroll", err)
	}

	logger.Info().Str("referral_code", user.ReferralCode).Msg("User enrolled")
	return user, nil
}

// createWithFreshCode assigns a referral code no other user holds and inserts the user.
// The existence check is a fast path; the store's unique guard is authoritative.
func (s *referralService) createWithFreshCode(ctx context.Context, tx repository.Store, user *models.User) error {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := s.newCode()

		exists, err := tx.Users().ReferralCodeExists(ctx, code)
		if err != nil {
			return apperrors.NewDatabaseError("check referral code", err)
		}
		if exists {
			logger.Warn().Int("attempt", attempt).Msg("Referral code collision, regenerating")
			continue
		}

		user.ReferralCode = code
		err = tx.Users().Create(ctx, user)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repository.ErrReferralCodeTaken):
			logger.Warn().Int("attempt", attempt).Msg("Referral code taken at insert, regenerating")
			continue
		case errors.Is(err, repository.ErrEmailTaken):
			return apperrors.NewEmailTakenError(user.Email)
		default:
			return apperrors.NewDatabaseError("create user", err)
		}
	}
	return apperrors.New(apperrors.ErrCodeInternal, "could not allocate a unique referral code").
		WithDetail("attempts", maxCodeAttempts)
}

func (s *referralService) GetReferralCode(ctx context.Context, email string) (string, error) {
	user, err := s.activeUser(ctx, email)
	if err != nil {
		return "", err
	}
	return user.ReferralCode, nil
}

func (s *referralService) Withdraw(ctx context.Context, email string) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		user, err := activeUserIn(ctx, tx, email)
		if err != nil {
			return err
		}
		if err := tx.Users().MarkWithdrawn(ctx, user.ReferralCode); err != nil {
			return apperrors.NewDatabaseError("withdraw user", err)
		}
		return nil
	})
	if err != nil {
		return asAppError("withdraw", err)
	}

	logger.Info().Str("email", validation.MaskEmail(email)).Msg("User withdrawn")
	return nil
}

func (s *referralService) GetMilestones(ctx context.Context, email string) ([]models.MilestoneStatus, error) {
	user, err := s.activeUser(ctx, email)
	if err != nil {
		return nil, err
	}

	milestones, err := s.ListMilestones(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]models.MilestoneStatus, 0, len(milestones))
	for _, m := range milestones {
		statuses = append(statuses, models.MilestoneStatus{
			ReferralCount: m.ReferralCount,
			Award:         m.Award,
			Achieved:      user.SuccessfulReferrals >= m.ReferralCount,
		})
	}
	return statuses, nil
}

func (s *referralService) AddMilestone(ctx context.Context, referralCount, award string) (*models.Milestone, error) {
	if !validation.IsDecimalDigits(referralCount) || !validation.IsDecimalDigits(award) {
		return nil, apperrors.NewInvalidMilestoneError(referralCount, award)
	}
	count, err := strconv.Atoi(referralCount)
	if err != nil {
		return nil, apperrors.NewInvalidMilestoneError(referralCount, award)
	}
	amount, err := strconv.Atoi(award)
	if err != nil {
		return nil, apperrors.NewInvalidMilestoneError(referralCount, award)
	}

	milestone := &models.Milestone{ReferralCount: count, Award: amount}

	_, err = s.store.Milestones().GetByReferralCount(ctx, count)
	if err == nil {
		// the cached list may predate the existing row
		s.invalidateMilestones(ctx)
		return nil, apperrors.NewDuplicateMilestoneError(count)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewDatabaseError("get milestone", err)
	}

	if err := s.store.Milestones().Create(ctx, milestone); err != nil {
		if errors.Is(err, repository.ErrMilestoneExists) {
			s.invalidateMilestones(ctx)
			return nil, apperrors.NewDuplicateMilestoneError(count)
		}
		return nil, apperrors.NewDatabaseError("create milestone", err)
	}
	s.invalidateMilestones(ctx)

	logger.Info().Int("referral_count", count).Int("award", amount).Msg("Milestone added")
	return milestone, nil
}

func (s *referralService) GetReferralHistory(ctx context.Context, email string) ([]models.HistoryEntry, error) {
	user, err := s.activeUser(ctx, email)
	if err != nil {
		return nil, err
	}

	referrals, err := s.store.Referrals().ListByReferrer(ctx, user.ReferralCode)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list referrals", err)
	}

	entries := make([]models.HistoryEntry, 0, len(referrals))
	for _, ref := range referrals {
		referred, err := s.store.Users().GetByReferralCode(ctx, ref.ReferredUser)
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn().
				Str("referred_user", ref.ReferredUser).
				Str("referred_by", ref.ReferredBy).
				Msg("Referral points to a missing user, skipping")
			continue
		}
		if err != nil {
			return nil, apperrors.NewDatabaseError("get referred user", err)
		}
		entries = append(entries, models.HistoryEntry{
			MaskedEmail: validation.MaskEmail(referred.Email),
			Timestamp:   ref.Timestamp,
			Award:       ref.Award,
		})
	}
	return entries, nil
}

func (s *referralService) ListMilestones(ctx context.Context) ([]*models.Milestone, error) {
	if s.cache == nil {
		return s.loadMilestones(ctx)
	}

	key, err := s.cache.MilestonesKey(ctx)
	if err != nil {
		logger.Warn().Err(apperrors.NewCacheError("milestones key", err)).Msg("Milestone cache unavailable, reading store")
		return s.loadMilestones(ctx)
	}

	var loadErr error
	var cached []*models.Milestone
	err = s.cache.GetOrSet(ctx, key, &cached, s.cacheTTL, func() (interface{}, error) {
		milestones, err := s.loadMilestones(ctx)
		loadErr = err
		return milestones, err
	})
	switch {
	case err == nil:
		return cached, nil
	case loadErr != nil:
		return nil, loadErr
	}

	logger.Warn().Err(apperrors.NewCacheError("get milestones", err)).Msg("Milestone cache unavailable, reading store")
	return s.loadMilestones(ctx)
}

func (s *referralService) loadMilestones(ctx context.Context) ([]*models.Milestone, error) {
	milestones, err := s.store.Milestones().List(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list milestones", err)
	}
	return milestones, nil
}

// invalidateMilestones runs after every write that may change the list.
func (s *referralService) invalidateMilestones(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateMilestones(ctx); err != nil {
		logger.Warn().Err(apperrors.NewCacheError("invalidate milestones", err)).Msg("Failed to invalidate milestone cache")
	}
}

func (s *referralService) activeUser(ctx context.Context, email string) (*models.User, error) {
	return activeUserIn(ctx, s.store, email)
}

func activeUserIn(ctx context.Context, store repository.Store, email string) (*models.User, error) {
	if !validation.IsValidEmail(email) {
		return nil, apperrors.NewInvalidEmailError(email)
	}
	user, err := store.Users().GetActiveByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewEmailNotFoundError(email)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get user by email", err)
	}
	return user, nil
}

// recordError maps a failed record rule to the error of the first offending field.
func recordError(err error, email string) error {
	fields := validation.FailedFields(err)
	for _, f := range fields {
		switch f {
		case "Email":
			return apperrors.NewInvalidEmailError(email)
		case "PhoneNumber":
			return apperrors.NewInvalidPhoneError()
		}
	}
	return apperrors.NewMissingFieldsError(fields...)
}

func asAppError(operation string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.NewDatabaseError(operation, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
