package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL (usable con pool o tx).
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

// Get obtiene el registro de stock actual. Fila ausente = cantidad 0, versión 0.
func (r *StockRecordRepo) Get(ctx context.Context, accountID, productID string) (*entity.StockRecord, error) {
	query := `
		SELECT account_id, product_id, quantity, version, updated_at
		FROM stock_records WHERE account_id = $1 AND product_id = $2`
	var s entity.StockRecord
	err := r.q.QueryRow(ctx, query, accountID, productID).Scan(
		&s.AccountID, &s.ProductID, &s.Quantity, &s.Version, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockRecord{AccountID: accountID, ProductID: productID}, nil
		}
		return nil, fmt.Errorf("get stock record: %w", err)
	}
	return &s, nil
}

// GetForUpdate obtiene el registro y bloquea la fila hasta el fin de la tx
// (SELECT FOR UPDATE). Con fila ausente devuelve el registro-cero: la creación
// la resuelve Upsert con ON CONFLICT, así dos primeras escrituras concurrentes
// no pueden partir ambas de cero y pisarse.
func (r *StockRecordRepo) GetForUpdate(ctx context.Context, accountID, productID string) (*entity.StockRecord, error) {
	query := `
		SELECT account_id, product_id, quantity, version, updated_at
		FROM stock_records WHERE account_id = $1 AND product_id = $2
		FOR UPDATE`
	var s entity.StockRecord
	err := r.q.QueryRow(ctx, query, accountID, productID).Scan(
		&s.AccountID, &s.ProductID, &s.Quantity, &s.Version, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockRecord{AccountID: accountID, ProductID: productID}, nil
		}
		return nil, fmt.Errorf("get stock record for update: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza el registro con chequeo de versión: solo escribe
// si la versión persistida sigue siendo record.Version, incrementándola en 1.
// Si otra transacción ganó la carrera devuelve domain.ErrVersionConflict.
func (r *StockRecordRepo) Upsert(ctx context.Context, record *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (account_id, product_id, quantity, version, updated_at)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (account_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity,
		              version = stock_records.version + 1,
		              updated_at = EXCLUDED.updated_at
		WHERE stock_records.version = $5`
	cmd, err := r.q.Exec(ctx, query,
		record.AccountID, record.ProductID, record.Quantity, record.UpdatedAt, record.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Inserción concurrente de la misma clave: otra tx creó la fila primero.
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("upsert stock record: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	record.Version++
	return nil
}
