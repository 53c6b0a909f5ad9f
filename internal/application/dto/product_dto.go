package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
// Stock es el inventario inicial: genera el movimiento AJUSTE_INICIAL.
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock" validate:"min=0"`
	ImageURL    string          `json:"imageUrl"`
}

// UpdateProductRequest entrada para actualizar un producto.
// Un cambio de Stock no sobreescribe el campo: se convierte en un movimiento
// CORRECCION vía SetAbsoluteStock.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int64           `json:"stock" validate:"omitempty,min=0"`
	ImageURL    *string          `json:"imageUrl"`
	Reason      string           `json:"reason"` // motivo del ajuste de stock, si lo hay
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	ImageURL    string          `json:"imageUrl"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
