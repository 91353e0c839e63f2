// Package memory implementa los puertos de persistencia sobre mapas en memoria.
// Se usa en tests y en modo demo: misma semántica que el adaptador PostgreSQL,
// incluida la atomicidad del TxRunner y el chequeo de versión del stock.
package memory

import (
	"sync"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// Store estado compartido por todos los repositorios en memoria.
// mu protege todos los mapas; el TxRunner lo retiene durante toda la
// transacción, así las operaciones del motor de stock quedan serializadas.
type Store struct {
	mu sync.Mutex

	accounts  map[string]*entity.Account
	users     map[string]*entity.User // clave: email
	products  map[string]*entity.Product
	stock     map[string]*entity.StockRecord // clave: accountID + "/" + productID
	movements []*entity.Movement
	nextMovID int64
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*entity.Account),
		users:    make(map[string]*entity.User),
		products: make(map[string]*entity.Product),
		stock:    make(map[string]*entity.StockRecord),
	}
}

func stockKey(accountID, productID string) string {
	return accountID + "/" + productID
}

// snapshot copia el estado mutable por el motor de stock (registros y log)
// para poder restaurarlo si la transacción falla. Caller debe tener mu.
type snapshot struct {
	stock     map[string]*entity.StockRecord
	movements []*entity.Movement
	nextMovID int64
}

func (s *Store) snapshotLocked() snapshot {
	stock := make(map[string]*entity.StockRecord, len(s.stock))
	for k, v := range s.stock {
		rec := *v
		stock[k] = &rec
	}
	movements := make([]*entity.Movement, len(s.movements))
	copy(movements, s.movements)
	return snapshot{stock: stock, movements: movements, nextMovID: s.nextMovID}
}

func (s *Store) restoreLocked(snap snapshot) {
	s.stock = snap.stock
	s.movements = snap.movements
	s.nextMovID = snap.nextMovID
}
