// Package memory implementa los puertos de persistencia sobre estructuras en
// memoria protegidas por un RWMutex. Se usa en los tests y en el modo de
// desarrollo sin PostgreSQL (DB_DRIVER=memory).
package memory

import (
	"sort"
	"sync"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// Store estado compartido por los repositorios en memoria.
// Los lectores toman RLock; las mutaciones y las transacciones toman Lock,
// así que ninguna lectura observa un estado a medio aplicar.
type Store struct {
	mu        sync.RWMutex
	products  map[string]*entity.Product
	movements []*entity.StockMovement // en orden de inserción
	users     map[string]*entity.User
}

// NewStore construye un almacenamiento vacío.
func NewStore() *Store {
	return &Store{
		products: make(map[string]*entity.Product),
		users:    make(map[string]*entity.User),
	}
}

// snapshot captura el estado mutable por las transacciones del ledger
// (productos y movimientos). Caller debe tener el Lock.
type snapshot struct {
	products  map[string]*entity.Product
	movements []*entity.StockMovement
}

func (s *Store) snapshot() snapshot {
	products := make(map[string]*entity.Product, len(s.products))
	for id, p := range s.products {
		cp := *p
		products[id] = &cp
	}
	movements := make([]*entity.StockMovement, len(s.movements))
	copy(movements, s.movements)
	return snapshot{products: products, movements: movements}
}

func (s *Store) restore(snap snapshot) {
	s.products = snap.products
	s.movements = snap.movements
}

// sortedMovements devuelve una copia ordenada por MovementDate ascendente;
// el sort estable conserva el orden de inserción en los empates.
// Caller debe tener al menos el RLock.
func (s *Store) sortedMovements(filter func(*entity.StockMovement) bool) []*entity.StockMovement {
	out := make([]*entity.StockMovement, 0, len(s.movements))
	for _, m := range s.movements {
		if filter == nil || filter(m) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MovementDate.Before(out[j].MovementDate)
	})
	return out
}
