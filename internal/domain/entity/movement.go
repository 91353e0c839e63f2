package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementKindEntrada = "entrada" // aumento de stock
	MovementKindSaida   = "saida"   // baja de stock
	MovementKindAdjust  = "adjust"  // corrección con signo definido por el caller
)

// Movement es el registro inmutable de un cambio de cantidad: se agrega en la
// misma transacción que la mutación del StockRecord y nunca se actualiza ni
// se borra. El ID lo asigna el log en orden de commit.
type Movement struct {
	ID                int64
	AccountID         string
	ProductID         string
	UserID            string
	Kind              string // ver constantes MovementKind*
	Delta             int64  // positivo = entrada, negativo = salida
	ResultingQuantity int64  // cantidad inmediatamente después de aplicar este movimiento
	ValueSnapshot     *decimal.Decimal // delta × precio unitario al momento; informativo, nil si no hay precio
	Reason            string
	CreatedAt         time.Time
}
