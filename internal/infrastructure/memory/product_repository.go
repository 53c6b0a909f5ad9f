package memory

import (
	"sort"
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación en memoria de ProductRepository.
// Con inTx el repo asume que el TxRunner ya tiene el Lock del store.
type ProductRepo struct {
	store *Store
	inTx  bool
}

// NewProductRepository construye el repositorio sobre el store.
func NewProductRepository(store *Store) *ProductRepo {
	return &ProductRepo{store: store}
}

// Create persiste un producto nuevo.
func (r *ProductRepo) Create(product *entity.Product) error {
	if !r.inTx {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	if _, ok := r.store.products[product.ID]; ok {
		return domain.ErrDuplicate
	}
	cp := *product
	r.store.products[product.ID] = &cp
	return nil
}

// GetByID devuelve una copia del producto activo, o nil si no existe o fue
// dado de baja.
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	if !r.inTx {
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
	}
	p, ok := r.store.products[id]
	if !ok || p.Deleted() {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// List devuelve los productos activos ordenados por fecha de creación.
func (r *ProductRepo) List() ([]*entity.Product, error) {
	if !r.inTx {
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
	}
	out := make([]*entity.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		if p.Deleted() {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	// El ID desempata fechas iguales: el orden no depende de la iteración
	// del map, igual que el ORDER BY de la implementación PostgreSQL.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Update persiste campos descriptivos. No toca Stock ni DeletedAt.
func (r *ProductRepo) Update(product *entity.Product) error {
	if !r.inTx {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	current, ok := r.store.products[product.ID]
	if !ok || current.Deleted() {
		return domain.ErrNotFound
	}
	current.Name = product.Name
	current.Description = product.Description
	current.Price = product.Price
	current.ImageURL = product.ImageURL
	current.UpdatedAt = product.UpdatedAt
	return nil
}

// UpdateStockGuarded escribe newStock solo si el stock actual sigue siendo
// expectedStock (compare-and-swap).
func (r *ProductRepo) UpdateStockGuarded(productID string, expectedStock, newStock int64) error {
	if !r.inTx {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	p, ok := r.store.products[productID]
	if !ok || p.Deleted() {
		return domain.ErrNotFound
	}
	if p.Stock != expectedStock {
		return domain.ErrConflict
	}
	p.Stock = newStock
	return nil
}

// SoftDelete marca el producto como dado de baja.
func (r *ProductRepo) SoftDelete(id string) error {
	if !r.inTx {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	p, ok := r.store.products[id]
	if !ok || p.Deleted() {
		return domain.ErrNotFound
	}
	now := time.Now()
	p.DeletedAt = &now
	return nil
}
