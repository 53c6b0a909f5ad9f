package ledger

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios
// atados a esa tx. Garantiza que el alta del movimiento y la actualización del
// stock cacheado sean una sola unidad atómica: ningún lector observa una sin
// la otra.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// AuthorizationPolicy resuelve si un actor tiene capacidad de escritura sobre
// productos y movimientos. Es un colaborador externo: el ledger no verifica
// credenciales, solo consulta el rol ya resuelto.
type AuthorizationPolicy interface {
	HasWriteCapability(actor entity.Actor) bool
}
