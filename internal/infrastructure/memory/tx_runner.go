package memory

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/application/ledger"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner unidad atómica en memoria: retiene el lock del store durante toda la
// transacción (exclusión mutua, estrategia de serialización) y restaura un
// snapshot si fn falla, así el fallo no deja estado parcial visible.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn con repos atados al store bajo el lock. Commit implícito si fn
// devuelve nil; rollback (restauración del snapshot) si devuelve error.
func (r *TxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRecordRepository,
	movementRepo repository.MovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap := r.store.snapshotLocked()
	stockRepo := &StockRecordRepo{store: r.store, inTx: true}
	movementRepo := &MovementRepo{store: r.store, inTx: true}

	if err := fn(stockRepo, movementRepo); err != nil {
		r.store.restoreLocked(snap)
		return err
	}
	return nil
}
