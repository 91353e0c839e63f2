package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del log de movimientos sobre PostgreSQL (usable con pool o tx).
// La tabla es append-only: no hay UPDATE ni DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append persiste un movimiento y devuelve el ID asignado por la secuencia
// (orden de commit). Durable solo si la tx que lo envuelve hace commit.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) (int64, error) {
	query := `
		INSERT INTO movements (account_id, product_id, user_id, kind, delta, resulting_quantity, value_snapshot, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	var id int64
	err := r.q.QueryRow(ctx, query,
		m.AccountID, m.ProductID, m.UserID, m.Kind, m.Delta,
		m.ResultingQuantity, m.ValueSnapshot, m.Reason, m.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append movement: %w", err)
	}
	m.ID = id
	return id, nil
}

// ListByProduct lista movimientos de un producto, más reciente primero, con
// paginación por keyset (beforeID = 0 para la primera página).
func (r *MovementRepo) ListByProduct(ctx context.Context, accountID, productID string, limit int, beforeID int64) ([]*entity.Movement, error) {
	query := `
		SELECT id, account_id, product_id, user_id, kind, delta, resulting_quantity, value_snapshot, reason, created_at
		FROM movements WHERE account_id = $1 AND product_id = $2`
	args := []any{accountID, productID}
	if beforeID > 0 {
		query += " AND id < $3 ORDER BY id DESC LIMIT $4"
		args = append(args, beforeID, limit)
	} else {
		query += " ORDER BY id DESC LIMIT $3"
		args = append(args, limit)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements by product: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		var snapshot *decimal.Decimal
		if err := rows.Scan(&m.ID, &m.AccountID, &m.ProductID, &m.UserID, &m.Kind,
			&m.Delta, &m.ResultingQuantity, &snapshot, &m.Reason, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.ValueSnapshot = snapshot
		list = append(list, &m)
	}
	return list, rows.Err()
}
