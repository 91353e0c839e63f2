package memory

import (
	"context"
	"time"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo stock actual en memoria. Con inTx=true asume que el TxRunner
// ya retiene el lock del store.
type StockRecordRepo struct {
	store *Store
	inTx  bool
}

// NewStockRecordRepository construye el repositorio para lecturas fuera de transacción.
func NewStockRecordRepository(store *Store) *StockRecordRepo {
	return &StockRecordRepo{store: store}
}

func (r *StockRecordRepo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

// Get devuelve una copia del registro. Clave ausente = cantidad 0, versión 0.
func (r *StockRecordRepo) Get(_ context.Context, accountID, productID string) (*entity.StockRecord, error) {
	defer r.lock()()
	if rec, ok := r.store.stock[stockKey(accountID, productID)]; ok {
		out := *rec
		return &out, nil
	}
	return &entity.StockRecord{AccountID: accountID, ProductID: productID}, nil
}

// GetForUpdate equivale a Get: la exclusividad la da el lock del TxRunner.
func (r *StockRecordRepo) GetForUpdate(ctx context.Context, accountID, productID string) (*entity.StockRecord, error) {
	return r.Get(ctx, accountID, productID)
}

// Upsert escribe el registro con chequeo de versión (compare-and-swap).
func (r *StockRecordRepo) Upsert(_ context.Context, record *entity.StockRecord) error {
	defer r.lock()()
	key := stockKey(record.AccountID, record.ProductID)
	var current int64
	if existing, ok := r.store.stock[key]; ok {
		current = existing.Version
	}
	if current != record.Version {
		return domain.ErrVersionConflict
	}
	record.Version++
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now()
	}
	stored := *record
	r.store.stock[key] = &stored
	return nil
}
