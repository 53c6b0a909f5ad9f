package entity

import "time"

// Tipos de movimiento de stock.
const (
	MovementTypeEntrada       = "ENTRADA"        // recepción de mercancía, cantidad > 0
	MovementTypeSalida        = "SALIDA"         // venta o despacho, cantidad < 0
	MovementTypeAjusteInicial = "AJUSTE_INICIAL" // único primer movimiento de un producto
	MovementTypeCorreccion    = "CORRECCION"     // ajuste manual, signo libre
)

// ValidMovementType indica si s es uno de los cuatro tipos conocidos.
func ValidMovementType(s string) bool {
	switch s {
	case MovementTypeEntrada, MovementTypeSalida, MovementTypeAjusteInicial, MovementTypeCorreccion:
		return true
	}
	return false
}

// StockMovement es un registro inmutable del kardex: un cambio de stock de un
// producto. No existe update ni delete; la cadena causal por producto exige
// StockAfter == StockBefore + QuantityChanged y que el StockBefore de cada
// movimiento coincida con el StockAfter del anterior.
type StockMovement struct {
	ID              string
	ProductID       string
	ProductName     string // desnormalizado para que el historial sobreviva al borrado del producto
	Type            string
	QuantityChanged int64 // positivo para entradas, negativo para salidas
	StockBefore     int64
	StockAfter      int64
	MovementDate    time.Time
	Reason          string
	Username        string // usuario que originó el movimiento
}
