package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL
// (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos.
// Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, name, description, price, stock, image_url, created_at, updated_at, deleted_at`

// Create persiste un producto nuevo.
func (r *ProductRepo) Create(product *entity.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, stock, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		product.ID, product.Name, product.Description, product.Price,
		product.Stock, product.ImageURL, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapStorageErr("insert product", err)
	}
	return nil
}

// GetByID obtiene un producto activo por ID; nil si no existe o fue dado de baja.
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND deleted_at IS NULL`
	var p entity.Product
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapStorageErr("get product", err)
	}
	return &p, nil
}

// List lista los productos activos ordenados por fecha de creación.
func (r *ProductRepo) List() ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE deleted_at IS NULL ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, wrapStorageErr("list products", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL,
			&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt); err != nil {
			return nil, wrapStorageErr("scan product", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// Update actualiza los campos descriptivos. No toca stock ni deleted_at:
// el stock solo se escribe vía UpdateStockGuarded.
func (r *ProductRepo) Update(product *entity.Product) error {
	query := `
		UPDATE products SET name = $2, description = $3, price = $4, image_url = $5, updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL`
	cmd, err := r.q.Exec(context.Background(), query,
		product.ID, product.Name, product.Description, product.Price,
		product.ImageURL, product.UpdatedAt,
	)
	if err != nil {
		return wrapStorageErr("update product", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStockGuarded escribe newStock solo si el stock persistido sigue
// siendo expectedStock. Cero filas afectadas significa que otro escritor ganó
// la carrera: domain.ErrConflict, seguro de reintentar.
func (r *ProductRepo) UpdateStockGuarded(productID string, expectedStock, newStock int64) error {
	query := `
		UPDATE products SET stock = $3, updated_at = now()
		WHERE id = $1 AND stock = $2 AND deleted_at IS NULL`
	cmd, err := r.q.Exec(context.Background(), query, productID, expectedStock, newStock)
	if err != nil {
		return wrapStorageErr("update stock", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// SoftDelete marca el producto como dado de baja; el historial se conserva.
func (r *ProductRepo) SoftDelete(id string) error {
	cmd, err := r.q.Exec(context.Background(),
		`UPDATE products SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return wrapStorageErr("delete product", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
