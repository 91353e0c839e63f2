package entity

import "time"

// StockRecord es la cantidad actual de un producto dentro de una cuenta.
// Clave única (AccountID, ProductID). Invariante: Quantity nunca es negativa
// después de una operación comprometida, y siempre es igual a la suma de los
// deltas de todos los movimientos del producto.
//
// Version es un contador monótono que sube en cada mutación exitosa; los
// stores lo usan para detectar escrituras concurrentes (compare-and-swap).
type StockRecord struct {
	AccountID string
	ProductID string
	Quantity  int64
	Version   int64
	UpdatedAt time.Time
}
