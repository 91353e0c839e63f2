package ledger

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción del store, pasando
// repositorios atados a esa tx. Es la unidad atómica del motor de stock:
// la mutación del StockRecord y el append del Movement comprometen juntos
// o no compromete ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRecordRepository,
		movementRepo repository.MovementRepository,
	) error) error
}
