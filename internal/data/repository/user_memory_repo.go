package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"disable-help/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type memoryRecord struct {
	user *entity.User
	seq  uint64
}

// userMemoryRepository keeps users in process memory. Used by tests and DB_DRIVER=memory.
type userMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*memoryRecord
	byEmail map[string]uuid.UUID
	seq     uint64
	log     *zap.Logger
	now     func() time.Time
}

func NewUserMemoryRepository(log *zap.Logger) UserRepository {
	return &userMemoryRepository{
		byID:    make(map[uuid.UUID]*memoryRecord),
		byEmail: make(map[string]uuid.UUID),
		log:     log.With(zap.String("repository", "user_memory")),
		now:     time.Now,
	}
}

func (r *userMemoryRepository) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = entity.NormalizeEmail(user.Email)
	if _, taken := r.byEmail[user.Email]; taken {
		return ErrDuplicateEmail
	}
	if _, taken := r.byID[user.ID]; taken {
		return fmt.Errorf("create user %s: id already exists", user.ID)
	}

	user.Touch(r.now())
	r.seq++
	r.byID[user.ID] = &memoryRecord{user: cloneUser(user), seq: r.seq}
	r.byEmail[user.Email] = user.ID

	return nil
}

func (r *userMemoryRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(rec.user), nil
}

func (r *userMemoryRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[entity.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return cloneUser(r.byID[id].user), nil
}

func (r *userMemoryRepository) FindByIDAndEmail(_ context.Context, id uuid.UUID, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok || rec.user.Email != entity.NormalizeEmail(email) {
		return nil, nil
	}
	return cloneUser(rec.user), nil
}

func (r *userMemoryRepository) FindAll(_ context.Context) ([]*entity.User, error) {
	r.mu.RLock()
	records := make([]*memoryRecord, 0, len(r.byID))
	for _, rec := range r.byID {
		records = append(records, rec)
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.user.CreatedAt.Equal(b.user.CreatedAt) {
			return a.user.CreatedAt.After(b.user.CreatedAt)
		}
		return a.seq > b.seq
	})

	users := make([]*entity.User, 0, len(records))
	for _, rec := range records {
		users = append(users, redactUser(rec.user))
	}
	return users, nil
}

func (r *userMemoryRepository) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[user.ID]
	if !ok {
		return fmt.Errorf("update user %s: %w", user.ID, ErrNotFound)
	}

	user.Email = entity.NormalizeEmail(user.Email)
	if owner, taken := r.byEmail[user.Email]; taken && owner != user.ID {
		return ErrDuplicateEmail
	}

	user.CreatedAt = rec.user.CreatedAt
	user.Touch(r.now())

	delete(r.byEmail, rec.user.Email)
	rec.user = cloneUser(user)
	r.byEmail[user.Email] = user.ID

	return nil
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	if u.PhoneNumber != nil {
		v := *u.PhoneNumber
		c.PhoneNumber = &v
	}
	if u.OTP != nil {
		v := *u.OTP
		c.OTP = &v
	}
	if u.OTPExpiry != nil {
		v := *u.OTPExpiry
		c.OTPExpiry = &v
	}
	if u.ResetTokenID != nil {
		v := *u.ResetTokenID
		c.ResetTokenID = &v
	}
	return &c
}

// redactUser mirrors the column projection of the SQL FindAll.
func redactUser(u *entity.User) *entity.User {
	c := cloneUser(u)
	c.PasswordHash = ""
	c.ClearOTP()
	c.ResetTokenID = nil
	return c
}
