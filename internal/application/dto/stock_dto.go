package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChangeStockRequest entrada para entrada/salida de stock por código de barras.
type ChangeStockRequest struct {
	Barcode   string           `json:"barcode" validate:"required"`
	Amount    int64            `json:"amount" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Reason    string           `json:"reason"`
}

// AdjustStockRequest entrada para un ajuste con signo definido por el caller.
type AdjustStockRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Delta     int64            `json:"delta" validate:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Reason    string           `json:"reason"`
}

// StockChangeResponse resultado de una operación de stock comprometida.
type StockChangeResponse struct {
	ProductID   string `json:"product_id"`
	NewQuantity int64  `json:"new_quantity"`
	MovementID  int64  `json:"movement_id"`
}

// QuantityResponse cantidad actual de un producto.
type QuantityResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// MovementResponse un movimiento del historial.
type MovementResponse struct {
	ID                int64            `json:"id"`
	ProductID         string           `json:"product_id"`
	UserID            string           `json:"user_id"`
	Kind              string           `json:"kind"`
	Delta             int64            `json:"delta"`
	ResultingQuantity int64            `json:"resulting_quantity"`
	ValueSnapshot     *decimal.Decimal `json:"value_snapshot,omitempty"`
	Reason            string           `json:"reason,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// MovementListResponse página de movimientos, más reciente primero.
// NextBeforeID es el token para la página siguiente (0 = no hay más).
type MovementListResponse struct {
	Items        []MovementResponse `json:"items"`
	NextBeforeID int64              `json:"next_before_id"`
}
