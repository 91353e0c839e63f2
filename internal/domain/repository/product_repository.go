package repository

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// LowStockItem es un producto cuyo stock actual está por debajo de su umbral mínimo.
type LowStockItem struct {
	ProductID   string
	Barcode     string
	Name        string
	Quantity    int64
	MinQuantity int64
}

// ProductRepository puerto de persistencia del catálogo de productos.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByAccountAndBarcode(ctx context.Context, accountID, barcode string) (*entity.Product, error)
	// List devuelve productos de la cuenta en orden alfabético. search filtra por
	// SearchName (ya normalizado por el caller) o coincidencia exacta de barcode.
	List(ctx context.Context, accountID, search string, limit, offset int) ([]*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, accountID, id string) error
	// ListBelowMinQuantity devuelve productos con stock < min_quantity, mayor déficit primero.
	ListBelowMinQuantity(ctx context.Context, accountID string) ([]LowStockItem, error)
}
