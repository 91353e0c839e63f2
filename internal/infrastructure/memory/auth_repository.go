package memory

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var (
	_ repository.UserRepository    = (*UserRepo)(nil)
	_ repository.AccountRepository = (*AccountRepo)(nil)
)

// UserRepo usuarios en memoria, indexados por email.
type UserRepo struct {
	store *Store
}

// NewUserRepository construye el repositorio de usuarios.
func NewUserRepository(store *Store) *UserRepo {
	return &UserRepo{store: store}
}

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[u.Email]; ok {
		return domain.ErrEmailAlreadyExists
	}
	stored := *u
	r.store.users[u.Email] = &stored
	return nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.users[email]; ok {
		out := *u
		return &out, nil
	}
	return nil, nil
}

// AccountRepo cuentas en memoria.
type AccountRepo struct {
	store *Store
}

// NewAccountRepository construye el repositorio de cuentas.
func NewAccountRepository(store *Store) *AccountRepo {
	return &AccountRepo{store: store}
}

func (r *AccountRepo) Create(_ context.Context, a *entity.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored := *a
	r.store.accounts[a.ID] = &stored
	return nil
}

func (r *AccountRepo) GetByID(_ context.Context, id string) (*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if a, ok := r.store.accounts[id]; ok {
		out := *a
		return &out, nil
	}
	return nil, nil
}
