package memory

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo log de movimientos en memoria (append-only).
type MovementRepo struct {
	store *Store
	inTx  bool
}

// NewMovementRepository construye el repositorio para lecturas fuera de transacción.
func NewMovementRepository(store *Store) *MovementRepo {
	return &MovementRepo{store: store}
}

func (r *MovementRepo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

// Append asigna el siguiente ID y agrega una copia del movimiento al log.
func (r *MovementRepo) Append(_ context.Context, m *entity.Movement) (int64, error) {
	defer r.lock()()
	r.store.nextMovID++
	m.ID = r.store.nextMovID
	stored := *m
	r.store.movements = append(r.store.movements, &stored)
	return m.ID, nil
}

// ListByProduct recorre el log de atrás hacia adelante (IDs descendentes).
func (r *MovementRepo) ListByProduct(_ context.Context, accountID, productID string, limit int, beforeID int64) ([]*entity.Movement, error) {
	defer r.lock()()
	var list []*entity.Movement
	for i := len(r.store.movements) - 1; i >= 0 && len(list) < limit; i-- {
		m := r.store.movements[i]
		if m.AccountID != accountID || m.ProductID != productID {
			continue
		}
		if beforeID > 0 && m.ID >= beforeID {
			continue
		}
		out := *m
		list = append(list, &out)
	}
	return list, nil
}
