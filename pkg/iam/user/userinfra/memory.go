package userinfra

import (
	"context"
	"strings"
	"sync"

	"github.com/Abraxas-365/contractorconnect/pkg/iam/user"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
)

// MemoryUserRepository keeps users in a map. Phone and email stay unique.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[kernel.UserID]user.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[kernel.UserID]user.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; ok {
		return user.ErrAlreadyExists().WithDetail("field", "id")
	}
	if err := r.checkUnique(u); err != nil {
		return err
	}
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; !ok {
		return user.ErrNotFound()
	}
	if err := r.checkUnique(u); err != nil {
		return err
	}
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id kernel.UserID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound()
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByPhone(_ context.Context, phone string) (*user.User, error) {
	return r.find(func(u user.User) bool { return u.PhoneNumber == phone })
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	return r.find(func(u user.User) bool {
		return u.Email != nil && strings.EqualFold(*u.Email, email)
	})
}

func (r *MemoryUserRepository) find(match func(user.User) bool) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, user.ErrNotFound()
}

// checkUnique must be called with the lock held.
func (r *MemoryUserRepository) checkUnique(u *user.User) error {
	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		if other.PhoneNumber == u.PhoneNumber {
			return user.ErrAlreadyExists().WithDetail("field", "phone_number")
		}
		if u.Email != nil && other.Email != nil && strings.EqualFold(*u.Email, *other.Email) {
			return user.ErrAlreadyExists().WithDetail("field", "email")
		}
	}
	return nil
}
