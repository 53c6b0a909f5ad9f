package repository

import (
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia para el kardex (DIP).
// Solo existe Create: los movimientos son inmutables y nunca se borran,
// ni siquiera cuando el producto es dado de baja.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	// ListAll devuelve todos los movimientos ordenados por MovementDate
	// ascendente, empates resueltos por orden de inserción.
	ListAll() ([]*entity.StockMovement, error)
	// ListByProduct devuelve el historial de un producto con el mismo orden.
	ListByProduct(productID string) ([]*entity.StockMovement, error)
	// ListBetween devuelve movimientos con MovementDate en [since, until).
	ListBetween(since, until time.Time) ([]*entity.StockMovement, error)
}
