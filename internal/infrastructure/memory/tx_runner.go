package memory

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks de forma atómica sobre el store: toma el Lock
// exclusivo durante todo el callback y, si fn falla, restaura el snapshot
// previo. Ningún lector observa el movimiento sin el stock actualizado ni al
// revés.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn con repos atados a la "transacción" y hace rollback si falla.
func (t *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	snap := t.store.snapshot()
	movRepo := &StockMovementRepo{store: t.store, inTx: true}
	productRepo := &ProductRepo{store: t.store, inTx: true}

	if err := fn(movRepo, productRepo); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}
