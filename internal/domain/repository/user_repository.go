package repository

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// UserRepository puerto de persistencia de usuarios.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

// AccountRepository puerto de persistencia de cuentas (tenants).
type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
}
