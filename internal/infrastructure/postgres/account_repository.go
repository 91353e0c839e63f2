package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.AccountRepository = (*AccountRepo)(nil)

// AccountRepo implementación de AccountRepository sobre PostgreSQL.
type AccountRepo struct {
	q Querier
}

// NewAccountRepository construye el adaptador de cuentas.
func NewAccountRepository(q Querier) *AccountRepo {
	return &AccountRepo{q: q}
}

// Create persiste una nueva cuenta (tenant).
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO accounts (id, name, created_at) VALUES ($1, $2, $3)`,
		a.ID, a.Name, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID obtiene una cuenta por ID. nil sin error = no existe.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	var a entity.Account
	err := r.q.QueryRow(ctx,
		`SELECT id, name, created_at FROM accounts WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}
