package repository

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// StockRecordRepository es el puerto del almacén de cantidades actuales.
// Un registro ausente equivale a cantidad 0 con versión 0: las implementaciones
// devuelven ese registro-cero en lugar de error, y Upsert lo crea de forma
// atómica (dos primeras escrituras concurrentes no pueden pisarse).
type StockRecordRepository interface {
	// Get lee el registro sin bloquear. Nunca devuelve nil sin error.
	Get(ctx context.Context, accountID, productID string) (*entity.StockRecord, error)

	// GetForUpdate lee el registro reteniendo exclusividad sobre la clave hasta
	// el fin de la transacción en curso (SELECT FOR UPDATE o equivalente).
	// Solo tiene sentido dentro de un TxRunner.Run.
	GetForUpdate(ctx context.Context, accountID, productID string) (*entity.StockRecord, error)

	// Upsert inserta o actualiza el registro incrementando Version en 1.
	// Si la versión persistida ya no coincide con record.Version, devuelve
	// domain.ErrVersionConflict y no escribe nada.
	Upsert(ctx context.Context, record *entity.StockRecord) error
}
