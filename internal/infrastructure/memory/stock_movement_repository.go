package memory

import (
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación en memoria del kardex. Los movimientos son
// inmutables: solo se insertan, nunca se actualizan ni se borran.
type StockMovementRepo struct {
	store *Store
	inTx  bool
}

// NewStockMovementRepository construye el repositorio sobre el store.
func NewStockMovementRepository(store *Store) *StockMovementRepo {
	return &StockMovementRepo{store: store}
}

// Create inserta un movimiento preservando el orden de inserción.
func (r *StockMovementRepo) Create(movement *entity.StockMovement) error {
	if !r.inTx {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	cp := *movement
	r.store.movements = append(r.store.movements, &cp)
	return nil
}

// ListAll devuelve todos los movimientos ordenados por fecha ascendente.
func (r *StockMovementRepo) ListAll() ([]*entity.StockMovement, error) {
	if !r.inTx {
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
	}
	return r.store.sortedMovements(nil), nil
}

// ListByProduct devuelve el historial de un producto, incluso si el producto
// ya fue dado de baja.
func (r *StockMovementRepo) ListByProduct(productID string) ([]*entity.StockMovement, error) {
	if !r.inTx {
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
	}
	return r.store.sortedMovements(func(m *entity.StockMovement) bool {
		return m.ProductID == productID
	}), nil
}

// ListBetween devuelve movimientos con MovementDate en [since, until).
func (r *StockMovementRepo) ListBetween(since, until time.Time) ([]*entity.StockMovement, error) {
	if !r.inTx {
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
	}
	return r.store.sortedMovements(func(m *entity.StockMovement) bool {
		return !m.MovementDate.Before(since) && m.MovementDate.Before(until)
	}), nil
}
