package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del inventario.
// Stock es un valor derivado/cacheado: siempre igual al StockAfter del último
// movimiento del producto. Solo el ledger lo muta, nunca se escribe directo.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta
	Stock       int64           // unidades actuales, derivado de los movimientos
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time // soft delete: el historial se conserva, el producto deja de ser mutable
}

// Deleted indica si el producto fue dado de baja (estado terminal).
func (p *Product) Deleted() bool {
	return p.DeletedAt != nil
}
