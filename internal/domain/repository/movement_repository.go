package repository

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// MovementRepository es el puerto del log de movimientos (append-only).
type MovementRepository interface {
	// Append persiste un movimiento y devuelve el ID asignado (orden de commit).
	// Solo es durable si la transacción que lo envuelve hace commit.
	Append(ctx context.Context, movement *entity.Movement) (int64, error)

	// ListByProduct devuelve movimientos del producto, más reciente primero.
	// beforeID pagina por keyset: 0 = primera página, si no, solo movimientos
	// con ID menor al indicado.
	ListByProduct(ctx context.Context, accountID, productID string, limit int, beforeID int64) ([]*entity.Movement, error)
}
