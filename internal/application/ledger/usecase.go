package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// Config parámetros de reintento ante contención sobre la misma clave.
type Config struct {
	MaxRetries   int           // intentos totales (mínimo 1)
	RetryBackoff time.Duration // espera base; se duplica en cada reintento
}

// UseCase aplica deltas con signo sobre el StockRecord de un producto y registra
// el Movement correspondiente en una sola unidad atómica por clave
// (accountID, productID). Garantiza que la cantidad nunca queda negativa y que
// la secuencia de commits por clave es linealizable: el store serializa las
// operaciones sobre la misma fila (row lock o compare-and-swap con reintento).
type UseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	stockRepo    repository.StockRecordRepository // lecturas fuera de transacción
	movementRepo repository.MovementRepository    // lecturas fuera de transacción
	cfg          Config
}

// NewUseCase construye el motor de stock.
func NewUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	stockRepo repository.StockRecordRepository,
	movementRepo repository.MovementRepository,
	cfg Config,
) *UseCase {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 25 * time.Millisecond
	}
	return &UseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		cfg:          cfg,
	}
}

// ChangeInput entrada para Increase/Decrease. Amount siempre positivo; el signo
// lo define la operación. UnitPrice nil usa el precio de lista del producto.
type ChangeInput struct {
	AccountID string
	UserID    string
	ProductID string
	Amount    int64
	UnitPrice *decimal.Decimal
	Reason    string
}

// AdjustInput entrada para Adjust: delta con signo definido por el caller.
type AdjustInput struct {
	AccountID string
	UserID    string
	ProductID string
	Delta     int64
	UnitPrice *decimal.Decimal
	Reason    string
}

// ChangeResult estado comprometido tras una operación exitosa.
type ChangeResult struct {
	NewQuantity int64
	MovementID  int64
}

// Increase suma Amount al stock del producto. No hay cota superior.
func (uc *UseCase) Increase(ctx context.Context, in ChangeInput) (*ChangeResult, error) {
	if in.Amount <= 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.apply(ctx, in.AccountID, in.UserID, in.ProductID, in.Amount, entity.MovementKindEntrada, in.UnitPrice, in.Reason)
}

// Decrease resta Amount del stock. Falla con InsufficientStockError si la
// cantidad actual no alcanza; la verificación ocurre bajo la misma exclusión
// que la escritura, así dos bajas concurrentes no pueden sobregirar.
func (uc *UseCase) Decrease(ctx context.Context, in ChangeInput) (*ChangeResult, error) {
	if in.Amount <= 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.apply(ctx, in.AccountID, in.UserID, in.ProductID, -in.Amount, entity.MovementKindSaida, in.UnitPrice, in.Reason)
}

// Adjust aplica un delta con signo arbitrario (correcciones). Mismo invariante:
// la cantidad resultante no puede ser negativa.
func (uc *UseCase) Adjust(ctx context.Context, in AdjustInput) (*ChangeResult, error) {
	if in.Delta == 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.apply(ctx, in.AccountID, in.UserID, in.ProductID, in.Delta, entity.MovementKindAdjust, in.UnitPrice, in.Reason)
}

// GetCurrentQuantity devuelve la cantidad actual del producto (0 si nunca tuvo movimientos).
func (uc *UseCase) GetCurrentQuantity(ctx context.Context, accountID, productID string) (int64, error) {
	if _, err := uc.resolveProduct(ctx, accountID, productID); err != nil {
		return 0, err
	}
	record, err := uc.stockRepo.Get(ctx, accountID, productID)
	if err != nil {
		return 0, err
	}
	return record.Quantity, nil
}

// ListMovements devuelve el historial del producto, más reciente primero.
// Devuelve además el token para la página siguiente (0 = no hay más páginas).
func (uc *UseCase) ListMovements(ctx context.Context, accountID, productID string, limit int, beforeID int64) ([]*entity.Movement, int64, error) {
	if _, err := uc.resolveProduct(ctx, accountID, productID); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	items, err := uc.movementRepo.ListByProduct(ctx, accountID, productID, limit, beforeID)
	if err != nil {
		return nil, 0, err
	}
	var next int64
	if len(items) == limit {
		next = items[len(items)-1].ID
	}
	return items, next, nil
}

// apply ejecuta el read-check-write y el append del movimiento como una unidad:
//
//  1. resuelve el producto y valida que pertenece a la cuenta
//  2. dentro de la tx: lee el registro con exclusividad (fila ausente = cantidad 0),
//     verifica cantidad+delta >= 0, escribe la nueva cantidad y agrega el movimiento
//  3. ante conflicto de versión/serialización reintenta con backoff acotado
func (uc *UseCase) apply(ctx context.Context, accountID, userID, productID string, delta int64, kind string, unitPrice *decimal.Decimal, reason string) (*ChangeResult, error) {
	if accountID == "" || userID == "" || productID == "" {
		return nil, domain.ErrInvalidInput
	}
	if unitPrice != nil && unitPrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.resolveProduct(ctx, accountID, productID)
	if err != nil {
		return nil, err
	}

	price := product.Price
	if unitPrice != nil {
		price = *unitPrice
	}
	var snapshot *decimal.Decimal
	if price.IsPositive() {
		v := decimal.NewFromInt(delta).Mul(price)
		snapshot = &v
	}

	backoff := uc.cfg.RetryBackoff
	var lastErr error
	for attempt := 0; attempt < uc.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		var result ChangeResult
		err := uc.txRunner.Run(ctx, func(
			stockRepo repository.StockRecordRepository,
			movementRepo repository.MovementRepository,
		) error {
			record, err := stockRepo.GetForUpdate(ctx, accountID, productID)
			if err != nil {
				return err
			}
			newQuantity := record.Quantity + delta
			if newQuantity < 0 {
				return &domain.InsufficientStockError{Available: record.Quantity}
			}
			now := time.Now()
			record.Quantity = newQuantity
			record.UpdatedAt = now
			if err := stockRepo.Upsert(ctx, record); err != nil {
				return err
			}
			movementID, err := movementRepo.Append(ctx, &entity.Movement{
				AccountID:         accountID,
				ProductID:         productID,
				UserID:            userID,
				Kind:              kind,
				Delta:             delta,
				ResultingQuantity: newQuantity,
				ValueSnapshot:     snapshot,
				Reason:            reason,
				CreatedAt:         now,
			})
			if err != nil {
				return err
			}
			result = ChangeResult{NewQuantity: newQuantity, MovementID: movementID}
			return nil
		})
		if err == nil {
			return &result, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: reintentos agotados (%d): %v", domain.ErrConflict, uc.cfg.MaxRetries, lastErr)
}

// resolveProduct valida existencia y pertenencia a la cuenta. Un producto de otra
// cuenta se reporta como no encontrado: la existencia no se filtra entre tenants.
func (uc *UseCase) resolveProduct(ctx context.Context, accountID, productID string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	return product, nil
}
