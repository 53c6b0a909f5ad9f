package dto

import "time"

// RecordMovementRequest entrada para registrar un movimiento de stock.
// Quantity es el delta con signo: positivo para ENTRADA, negativo para SALIDA,
// libre para CORRECCION. AJUSTE_INICIAL no se registra por aquí: lo genera la
// creación del producto.
type RecordMovementRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Type      string `json:"type" validate:"required,oneof=ENTRADA SALIDA CORRECCION"`
	Quantity  int64  `json:"quantity" validate:"required"`
	Reason    string `json:"reason"`
}

// MovementResponse salida de un movimiento de stock.
type MovementResponse struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"productId"`
	ProductName     string    `json:"productName"`
	Type            string    `json:"type"`
	QuantityChanged int64     `json:"quantityChanged"`
	StockBefore     int64     `json:"stockBefore"`
	StockAfter      int64     `json:"stockAfter"`
	MovementDate    time.Time `json:"movementDate"`
	Reason          string    `json:"reason,omitempty"`
	Username        string    `json:"username,omitempty"`
}
