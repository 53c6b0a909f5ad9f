package repository

import "github.com/jhoicas/Kardex-api/internal/domain/entity"

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID y List excluyen productos dados de baja; el stock solo se escribe
// vía UpdateStockGuarded, nunca con Update.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	List() ([]*entity.Product, error)
	// Update persiste campos descriptivos (nombre, precio...). No toca Stock.
	Update(product *entity.Product) error
	// UpdateStockGuarded escribe newStock solo si el stock persistido sigue
	// siendo expectedStock (compare-and-swap). Devuelve domain.ErrConflict si
	// la guarda falla por una mutación concurrente.
	UpdateStockGuarded(productID string, expectedStock, newStock int64) error
	// SoftDelete marca el producto como dado de baja; el historial se conserva.
	SoftDelete(id string) error
}
