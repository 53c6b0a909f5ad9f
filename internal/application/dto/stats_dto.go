package dto

// MovementTypeStat un punto del gráfico "movimientos por tipo".
type MovementTypeStat struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// PeriodSummary totales de entradas y salidas en un período.
// TotalSalidas se reporta en valor absoluto.
type PeriodSummary struct {
	TotalEntradas int64 `json:"totalEntradas"`
	TotalSalidas  int64 `json:"totalSalidas"`
}

// ProductStats resumen del catálogo para el dashboard.
type ProductStats struct {
	TotalProducts    int `json:"totalProducts"`
	LowStockProducts int `json:"lowStockProducts"`
}
