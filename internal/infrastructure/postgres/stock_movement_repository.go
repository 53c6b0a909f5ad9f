package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del kardex sobre PostgreSQL (usable con
// pool o tx). La tabla conserva cada campo del movimiento tal cual, incluidos
// stock_before y stock_after, para poder verificar los invariantes offline y
// reproducir la auditoría; seq (BIGSERIAL) solo desempata el orden de
// movimientos con la misma fecha.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, product_id, product_name, type, quantity_changed, stock_before, stock_after, movement_date, reason, username`

// Create inserta un movimiento. No existe update ni delete.
func (r *StockMovementRepo) Create(movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.ProductID, movement.ProductName, movement.Type,
		movement.QuantityChanged, movement.StockBefore, movement.StockAfter,
		movement.MovementDate, nullable(movement.Reason), nullable(movement.Username),
	)
	if err != nil {
		return wrapStorageErr("insert movement", err)
	}
	return nil
}

// ListAll devuelve todos los movimientos en orden ascendente por fecha.
func (r *StockMovementRepo) ListAll() ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements ORDER BY movement_date ASC, seq ASC`
	return r.list(query)
}

// ListByProduct devuelve el historial de un producto, incluso dado de baja.
func (r *StockMovementRepo) ListByProduct(productID string) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE product_id = $1 ORDER BY movement_date ASC, seq ASC`
	return r.list(query, productID)
}

// ListBetween devuelve movimientos con movement_date en [since, until).
func (r *StockMovementRepo) ListBetween(since, until time.Time) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE movement_date >= $1 AND movement_date < $2 ORDER BY movement_date ASC, seq ASC`
	return r.list(query, since, until)
}

func (r *StockMovementRepo) list(query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, wrapStorageErr("list movements", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var reason, username *string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.ProductName, &m.Type,
			&m.QuantityChanged, &m.StockBefore, &m.StockAfter, &m.MovementDate,
			&reason, &username); err != nil {
			return nil, wrapStorageErr("scan movement", err)
		}
		if reason != nil {
			m.Reason = *reason
		}
		if username != nil {
			m.Username = *username
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
