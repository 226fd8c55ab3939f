package memory

import (
	"context"
	"sync"
	"time"

	"referral-tracker-backend/internal/features/referral/models"
	"referral-tracker-backend/internal/features/referral/repository"
)

type dataset struct {
	users      []models.User
	referrals  []models.Referral
	milestones []models.Milestone

	// indexes into the slices above
	userByCode        map[string]int
	activeUserByEmail map[string]int
	referralByUser    map[string]int
	milestoneByCount  map[int]int
}

func newDataset() *dataset {
	return &dataset{
		userByCode:        make(map[string]int),
		activeUserByEmail: make(map[string]int),
		referralByUser:    make(map[string]int),
		milestoneByCount:  make(map[int]int),
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		users:             append([]models.User(nil), d.users...),
		referrals:         append([]models.Referral(nil), d.referrals...),
		milestones:        append([]models.Milestone(nil), d.milestones...),
		userByCode:        make(map[string]int, len(d.userByCode)),
		activeUserByEmail: make(map[string]int, len(d.activeUserByEmail)),
		referralByUser:    make(map[string]int, len(d.referralByUser)),
		milestoneByCount:  make(map[int]int, len(d.milestoneByCount)),
	}
	for k, v := range d.userByCode {
		c.userByCode[k] = v
	}
	for k, v := range d.activeUserByEmail {
		c.activeUserByEmail[k] = v
	}
	for k, v := range d.referralByUser {
		c.referralByUser[k] = v
	}
	for k, v := range d.milestoneByCount {
		c.milestoneByCount[k] = v
	}
	return c
}

type state struct {
	mu   sync.Mutex
	data *dataset
}

// Store keeps every record in process memory. It is used for local runs and tests.
type Store struct {
	st   *state
	inTx bool
}

func NewStore() *Store {
	return &Store{st: &state{data: newDataset()}}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.st.mu.Lock()
	return s.st.mu.Unlock
}

func (s *Store) Users() repository.UserRepository           { return &userRepository{s} }
func (s *Store) Referrals() repository.ReferralRepository   { return &referralRepository{s} }
func (s *Store) Milestones() repository.MilestoneRepository { return &milestoneRepository{s} }

// Transaction holds the store lock for the whole of fn and restores the
// previous contents if fn fails.
func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.st.data.clone()
	if err := fn(&Store{st: s.st, inTx: true}); err != nil {
		s.st.data = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer r.s.lock()()
	d := r.s.st.data

	if _, ok := d.userByCode[user.ReferralCode]; ok {
		return repository.ErrReferralCodeTaken
	}
	if !user.HasWithdrawn {
		if _, ok := d.activeUserByEmail[user.Email]; ok {
			return repository.ErrEmailTaken
		}
	}

	now := time.Now()
	user.ID = uint(len(d.users) + 1)
	user.CreatedAt = now
	user.UpdatedAt = now

	d.users = append(d.users, *user)
	idx := len(d.users) - 1
	d.userByCode[user.ReferralCode] = idx
	if !user.HasWithdrawn {
		d.activeUserByEmail[user.Email] = idx
	}
	return nil
}

func (r *userRepository) GetActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.s.lock()()
	d := r.s.st.data

	idx, ok := d.activeUserByEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := d.users[idx]
	return &u, nil
}

func (r *userRepository) GetActiveByReferralCode(ctx context.Context, code string) (*models.User, error) {
	u, err := r.GetByReferralCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if u.HasWithdrawn {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	defer r.s.lock()()
	d := r.s.st.data

	idx, ok := d.userByCode[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := d.users[idx]
	return &u, nil
}

func (r *userRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	defer r.s.lock()()
	_, ok := r.s.st.data.userByCode[code]
	return ok, nil
}

func (r *userRepository) IncrementSuccessfulReferrals(ctx context.Context, code string) (int, error) {
	defer r.s.lock()()
	d := r.s.st.data

	idx, ok := d.userByCode[code]
	if !ok {
		return 0, repository.ErrNotFound
	}
	d.users[idx].SuccessfulReferrals++
	d.users[idx].UpdatedAt = time.Now()
	return d.users[idx].SuccessfulReferrals, nil
}

func (r *userRepository) MarkWithdrawn(ctx context.Context, code string) error {
	defer r.s.lock()()
	d := r.s.st.data

	idx, ok := d.userByCode[code]
	if !ok {
		return repository.ErrNotFound
	}
	u := &d.users[idx]
	if u.HasWithdrawn {
		return nil
	}
	u.HasWithdrawn = true
	u.UpdatedAt = time.Now()
	if cur, ok := d.activeUserByEmail[u.Email]; ok && cur == idx {
		delete(d.activeUserByEmail, u.Email)
	}
	return nil
}

type referralRepository struct {
	s *Store
}

func (r *referralRepository) Create(ctx context.Context, referral *models.Referral) error {
	defer r.s.lock()()
	d := r.s.st.data

	if _, ok := d.referralByUser[referral.ReferredUser]; ok {
		return repository.ErrReferredUserTaken
	}
	referral.ID = uint(len(d.referrals) + 1)
	d.referrals = append(d.referrals, *referral)
	d.referralByUser[referral.ReferredUser] = len(d.referrals) - 1
	return nil
}

func (r *referralRepository) ListByReferrer(ctx context.Context, code string) ([]*models.Referral, error) {
	defer r.s.lock()()

	var out []*models.Referral
	for _, ref := range r.s.st.data.referrals {
		if ref.ReferredBy == code {
			ref := ref
			out = append(out, &ref)
		}
	}
	return out, nil
}

type milestoneRepository struct {
	s *Store
}

func (r *milestoneRepository) Create(ctx context.Context, milestone *models.Milestone) error {
	defer r.s.lock()()
	d := r.s.st.data

	if _, ok := d.milestoneByCount[milestone.ReferralCount]; ok {
		return repository.ErrMilestoneExists
	}
	milestone.ID = uint(len(d.milestones) + 1)
	d.milestones = append(d.milestones, *milestone)
	d.milestoneByCount[milestone.ReferralCount] = len(d.milestones) - 1
	return nil
}

func (r *milestoneRepository) GetByReferralCount(ctx context.Context, count int) (*models.Milestone, error) {
	defer r.s.lock()()
	d := r.s.st.data

	idx, ok := d.milestoneByCount[count]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m := d.milestones[idx]
	return &m, nil
}

func (r *milestoneRepository) List(ctx context.Context) ([]*models.Milestone, error) {
	defer r.s.lock()()

	out := make([]*models.Milestone, 0, len(r.s.st.data.milestones))
	for _, m := range r.s.st.data.milestones {
		m := m
		out = append(out, &m)
	}
	return out, nil
}
