package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo, identificado por código de barras
// único dentro de su cuenta. La cantidad en existencia NO vive aquí: se maneja en
// StockRecord y solo la modifica el motor de stock vía movimientos.
type Product struct {
	ID          string
	AccountID   string
	Name        string
	Barcode     string // único por cuenta
	Unit        string // un, kg, lt, caja...
	Category    string
	Price       decimal.Decimal // precio unitario de referencia
	MinQuantity int64           // umbral de alerta de stock bajo
	Description string
	SearchName  string // nombre normalizado (minúsculas, sin tildes) para búsqueda
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
