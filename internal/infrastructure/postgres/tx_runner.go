package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/kardex-api/internal/application/ledger"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit
// o Rollback. Fallos de serialización (40001/40P01) se traducen a
// domain.ErrVersionConflict para que el motor de stock reintente.
func (r *TxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRecordRepository,
	movementRepo repository.MovementRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stockRepo := NewStockRecordRepository(tx)
	movementRepo := NewMovementRepository(tx)

	if err := fn(stockRepo, movementRepo); err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("%w: %v", domain.ErrVersionConflict, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("%w: %v", domain.ErrVersionConflict, err)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
