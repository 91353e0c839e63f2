package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
// InitialQuantity > 0 registra además un movimiento "entrada" inicial.
type CreateProductRequest struct {
	Name            string          `json:"name" validate:"required,min=1,max=200"`
	Barcode         string          `json:"barcode" validate:"required,min=1,max=100"`
	Unit            string          `json:"unit"`
	Category        string          `json:"category"`
	Price           decimal.Decimal `json:"price"`
	MinQuantity     int64           `json:"min_quantity"`
	Description     string          `json:"description"`
	InitialQuantity int64           `json:"initial_quantity"`
}

// UpdateProductRequest entrada para actualizar un producto (sin Barcode ni stock:
// el código es inmutable y la cantidad solo cambia vía movimientos).
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Unit        *string          `json:"unit"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	MinQuantity *int64           `json:"min_quantity"`
	Description *string          `json:"description"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Name        string          `json:"name"`
	Barcode     string          `json:"barcode"`
	Unit        string          `json:"unit"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	MinQuantity int64           `json:"min_quantity"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// LowStockItemResponse producto por debajo de su umbral mínimo.
type LowStockItemResponse struct {
	ProductID   string `json:"product_id"`
	Barcode     string `json:"barcode"`
	Name        string `json:"name"`
	Quantity    int64  `json:"quantity"`
	MinQuantity int64  `json:"min_quantity"`
}
