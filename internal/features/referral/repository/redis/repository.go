package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"referral-tracker-backend/internal/features/referral/models"
	"referral-tracker-backend/internal/features/referral/repository"
)

const (
	keyPrefix        = "referral:"
	lockKey          = keyPrefix + "lock"
	milestoneListKey = keyPrefix + "milestones"

	lockRetryDelay = 20 * time.Millisecond
)

func userKey(code string) string         { return keyPrefix + "user:" + code }
func emailKey(email string) string       { return keyPrefix + "email:" + email }
func referralKey(user string) string     { return keyPrefix + "referral:" + user }
func referrerListKey(code string) string { return keyPrefix + "referrals_by:" + code }
func milestoneKey(count int) string      { return fmt.Sprintf("%smilestone:%d", keyPrefix, count) }

// The hash is complete before the email index points at it.
var createUserScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 1
end
if ARGV[1] == "1" and redis.call("EXISTS", KEYS[2]) == 1 then
	return 2
end
redis.call("HSET", KEYS[1], unpack(ARGV, 3))
if ARGV[1] == "1" then
	redis.call("SET", KEYS[2], ARGV[2])
end
return 0
`)

const (
	createCodeTaken  = 1
	createEmailTaken = 2
)

var userFields = []string{
	"first_name", "last_name", "email", "password", "phone_number",
	"referral_code", "has_withdrawn", "successful_referrals", "created_at", "updated_at",
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Store keeps records in redis hashes and guards uniqueness with SETNX/HSETNX
// index keys and a create script. Transactions serialize on a lock key; partial writes are not
// rolled back.
type Store struct {
	client  *redis.Client
	lockTTL time.Duration
	inTx    bool
}

func NewStore(client *redis.Client, lockTTL time.Duration) *Store {
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	return &Store{client: client, lockTTL: lockTTL}
}

func (s *Store) Users() repository.UserRepository           { return &userRepository{client: s.client} }
func (s *Store) Referrals() repository.ReferralRepository   { return &referralRepository{client: s.client} }
func (s *Store) Milestones() repository.MilestoneRepository { return &milestoneRepository{client: s.client} }

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	token := uuid.NewString()
	for {
		ok, err := s.client.SetNX(ctx, lockKey, token, s.lockTTL).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	defer unlockScript.Run(context.WithoutCancel(ctx), s.client, []string{lockKey}, token)

	return fn(&Store{client: s.client, lockTTL: s.lockTTL, inTx: true})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

type userRepository struct {
	client *redis.Client
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	reserve := "0"
	if !user.HasWithdrawn {
		reserve = "1"
	}
	fields := encodeUser(user)
	args := make([]interface{}, 0, 2+2*len(fields))
	args = append(args, reserve, user.ReferralCode)
	for _, name := range userFields {
		args = append(args, name, fields[name])
	}

	res, err := createUserScript.Run(ctx, r.client,
		[]string{userKey(user.ReferralCode), emailKey(user.Email)}, args...).Int()
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	switch res {
	case createCodeTaken:
		return repository.ErrReferralCodeTaken
	case createEmailTaken:
		return repository.ErrEmailTaken
	}
	return nil
}

func (r *userRepository) GetActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	code, err := r.client.Get(ctx, emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email index: %w", err)
	}
	return r.GetActiveByReferralCode(ctx, code)
}

func (r *userRepository) GetActiveByReferralCode(ctx context.Context, code string) (*models.User, error) {
	user, err := r.GetByReferralCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if user.HasWithdrawn {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	fields, err := r.client.HGetAll(ctx, userKey(code)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(fields) == 0 {
		return nil, repository.ErrNotFound
	}
	return decodeUser(fields)
}

func (r *userRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	n, err := r.client.Exists(ctx, userKey(code)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check referral code: %w", err)
	}
	return n > 0, nil
}

func (r *userRepository) IncrementSuccessfulReferrals(ctx context.Context, code string) (int, error) {
	exists, err := r.ReferralCodeExists(ctx, code)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, repository.ErrNotFound
	}
	n, err := r.client.HIncrBy(ctx, userKey(code), "successful_referrals", 1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment referrals: %w", err)
	}
	r.client.HSet(ctx, userKey(code), "updated_at", time.Now().UTC().Format(time.RFC3339Nano))
	return int(n), nil
}

func (r *userRepository) MarkWithdrawn(ctx context.Context, code string) error {
	user, err := r.GetByReferralCode(ctx, code)
	if err != nil {
		return err
	}
	if user.HasWithdrawn {
		return nil
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, userKey(code),
			"has_withdrawn", "1",
			"updated_at", time.Now().UTC().Format(time.RFC3339Nano))
		pipe.Del(ctx, emailKey(user.Email))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to withdraw user: %w", err)
	}
	return nil
}

func encodeUser(u *models.User) map[string]interface{} {
	withdrawn := "0"
	if u.HasWithdrawn {
		withdrawn = "1"
	}
	return map[string]interface{}{
		"first_name":           u.FirstName,
		"last_name":            u.LastName,
		"email":                u.Email,
		"password":             u.Password,
		"phone_number":         u.PhoneNumber,
		"referral_code":        u.ReferralCode,
		"has_withdrawn":        withdrawn,
		"successful_referrals": strconv.Itoa(u.SuccessfulReferrals),
		"created_at":           u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":           u.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func decodeUser(f map[string]string) (*models.User, error) {
	count, err := strconv.Atoi(f["successful_referrals"])
	if err != nil {
		return nil, fmt.Errorf("corrupt successful_referrals for %s: %w", f["referral_code"], err)
	}
	u := &models.User{
		FirstName:           f["first_name"],
		LastName:            f["last_name"],
		Email:               f["email"],
		Password:            f["password"],
		PhoneNumber:         f["phone_number"],
		ReferralCode:        f["referral_code"],
		HasWithdrawn:        f["has_withdrawn"] == "1",
		SuccessfulReferrals: count,
	}
	if u.CreatedAt, err = time.Parse(time.RFC3339Nano, f["created_at"]); err != nil {
		return nil, fmt.Errorf("corrupt created_at for %s: %w", u.ReferralCode, err)
	}
	if u.UpdatedAt, err = time.Parse(time.RFC3339Nano, f["updated_at"]); err != nil {
		return nil, fmt.Errorf("corrupt updated_at for %s: %w", u.ReferralCode, err)
	}
	return u, nil
}

type referralRepository struct {
	client *redis.Client
}

func (r *referralRepository) Create(ctx context.Context, referral *models.Referral) error {
	key := referralKey(referral.ReferredUser)
	ok, err := r.client.HSetNX(ctx, key, "referred_user", referral.ReferredUser).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve referral: %w", err)
	}
	if !ok {
		return repository.ErrReferredUserTaken
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"referred_by", referral.ReferredBy,
			"timestamp", referral.Timestamp.UTC().Format(time.RFC3339Nano),
			"award", strconv.Itoa(referral.Award))
		pipe.RPush(ctx, referrerListKey(referral.ReferredBy), referral.ReferredUser)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create referral: %w", err)
	}
	return nil
}

func (r *referralRepository) ListByReferrer(ctx context.Context, code string) ([]*models.Referral, error) {
	users, err := r.client.LRange(ctx, referrerListKey(code), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(users))
	for i, u := range users {
		cmds[i] = pipe.HGetAll(ctx, referralKey(u))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to load referrals: %w", err)
	}

	referrals := make([]*models.Referral, 0, len(users))
	for i, cmd := range cmds {
		f := cmd.Val()
		if len(f) == 0 {
			continue
		}
		award, err := strconv.Atoi(f["award"])
		if err != nil {
			return nil, fmt.Errorf("corrupt award for referral %s: %w", users[i], err)
		}
		ts, err := time.Parse(time.RFC3339Nano, f["timestamp"])
		if err != nil {
			return nil, fmt.Errorf("corrupt timestamp for referral %s: %w", users[i], err)
		}
		referrals = append(referrals, &models.Referral{
			ReferredUser: users[i],
			ReferredBy:   f["referred_by"],
			Timestamp:    ts,
			Award:        award,
		})
	}
	return referrals, nil
}

type milestoneRepository struct {
	client *redis.Client
}

func (r *milestoneRepository) Create(ctx context.Context, milestone *models.Milestone) error {
	ok, err := r.client.SetNX(ctx, milestoneKey(milestone.ReferralCount), milestone.Award, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create milestone: %w", err)
	}
	if !ok {
		return repository.ErrMilestoneExists
	}
	if err := r.client.RPush(ctx, milestoneListKey, milestone.ReferralCount).Err(); err != nil {
		return fmt.Errorf("failed to index milestone: %w", err)
	}
	return nil
}

func (r *milestoneRepository) GetByReferralCount(ctx context.Context, count int) (*models.Milestone, error) {
	award, err := r.client.Get(ctx, milestoneKey(count)).Int()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone: %w", err)
	}
	return &models.Milestone{ReferralCount: count, Award: award}, nil
}

func (r *milestoneRepository) List(ctx context.Context) ([]*models.Milestone, error) {
	counts, err := r.client.LRange(ctx, milestoneListKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	milestones := make([]*models.Milestone, 0, len(counts))
	if len(counts) == 0 {
		return milestones, nil
	}

	keys := make([]string, len(counts))
	for i, c := range counts {
		n, err := strconv.Atoi(c)
		if err != nil {
			return nil, fmt.Errorf("corrupt milestone index entry %q: %w", c, err)
		}
		keys[i] = milestoneKey(n)
	}
	awards, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load milestones: %w", err)
	}

	for i, a := range awards {
		s, ok := a.(string)
		if !ok {
			continue
		}
		count, _ := strconv.Atoi(counts[i])
		award, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("corrupt award for milestone %d: %w", count, err)
		}
		milestones = append(milestones, &models.Milestone{ReferralCount: count, Award: award})
	}
	return milestones, nil
}
