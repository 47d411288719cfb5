package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for user storage.
type Repository interface {
	Create(ctx context.Context, req *SignupRequest, passwordHash string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByIdentifier looks up a user by email or display name, for login.
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	Update(ctx context.Context, id string, req *UpdateRequest) (*User, error)
}

// InMemoryRepository stores users in a map, for tests and DB-less dev.
type InMemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{users: make(map[string]*User)}
}

func (r *InMemoryRepository) Create(ctx context.Context, req *SignupRequest, passwordHash string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == req.Email {
			return nil, ErrEmailTaken
		}
	}

	user := &User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.users[user.ID] = user

	snapshot := *user
	return &snapshot, nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	snapshot := *u
	return &snapshot, nil
}

func (r *InMemoryRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			snapshot := *u
			return &snapshot, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryRepository) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == identifier || u.Name == identifier {
			snapshot := *u
			return &snapshot, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryRepository) Update(ctx context.Context, id string, req *UpdateRequest) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Email != "" {
		for _, other := range r.users {
			if other.ID != id && other.Email == req.Email {
				return nil, ErrEmailTaken
			}
		}
		u.Email = req.Email
	}
	if req.Phone != "" {
		u.Phone = req.Phone
	}
	snapshot := *u
	return &snapshot, nil
}

var _ Repository = (*InMemoryRepository)(nil)
