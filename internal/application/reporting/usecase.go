// Package reporting contiene las proyecciones read-only sobre el kardex:
// conteos por tipo de movimiento, totales de un período y resumen del
// catálogo. Nunca muta el historial ni el stock; cada operación trabaja
// sobre el snapshot que lee al momento de la llamada.
package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// CountsByType cuenta movimientos por tipo; cada movimiento cuenta
// exactamente una vez bajo su tipo.
func CountsByType(movements []*entity.StockMovement) map[string]int {
	counts := make(map[string]int, 4)
	for _, m := range movements {
		counts[m.Type]++
	}
	return counts
}

// SummarizePeriod suma quantityChanged sobre los movimientos con
// MovementDate en [since, until), separados por categoría.
//
// Política: solo ENTRADA aporta a TotalEntradas y solo SALIDA (en valor
// absoluto) a TotalSalidas. AJUSTE_INICIAL y CORRECCION quedan fuera de los
// totales del período: son ajustes administrativos, no flujo de mercancía.
// La fuente original era ambigua en esto (una CORRECCION negativa se pintaba
// como salida en el historial pero no sumaba en el dashboard); aquí se fija
// una sola regla.
func SummarizePeriod(movements []*entity.StockMovement, since, until time.Time) dto.PeriodSummary {
	var summary dto.PeriodSummary
	for _, m := range movements {
		if m.MovementDate.Before(since) || !m.MovementDate.Before(until) {
			continue
		}
		switch m.Type {
		case entity.MovementTypeEntrada:
			summary.TotalEntradas += m.QuantityChanged
		case entity.MovementTypeSalida:
			summary.TotalSalidas += -m.QuantityChanged
		}
	}
	return summary
}

// ComputeProductStats resume el catálogo: total de productos y cuántos están
// con stock por debajo del umbral. El umbral es un parámetro, no una
// constante.
func ComputeProductStats(products []*entity.Product, lowStockThreshold int64) dto.ProductStats {
	stats := dto.ProductStats{TotalProducts: len(products)}
	for _, p := range products {
		if p.Stock < lowStockThreshold {
			stats.LowStockProducts++
		}
	}
	return stats
}

// UseCase expone las proyecciones sobre los repositorios de lectura.
type UseCase struct {
	movementRepo repository.StockMovementRepository
	productRepo  repository.ProductRepository
}

// NewUseCase construye el caso de uso de reportes.
func NewUseCase(movementRepo repository.StockMovementRepository, productRepo repository.ProductRepository) *UseCase {
	return &UseCase{movementRepo: movementRepo, productRepo: productRepo}
}

// MovementsByType devuelve el conteo por tipo listo para el gráfico del
// dashboard, en orden estable por nombre de tipo.
func (uc *UseCase) MovementsByType(ctx context.Context) ([]dto.MovementTypeStat, error) {
	movements, err := uc.movementRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("reportes: movimientos por tipo: %w", err)
	}
	counts := CountsByType(movements)
	stats := make([]dto.MovementTypeStat, 0, len(counts))
	for typ, n := range counts {
		stats = append(stats, dto.MovementTypeStat{Type: typ, Count: n})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Type < stats[j].Type })
	return stats, nil
}

// PeriodSummary devuelve los totales de entradas y salidas en [since, until).
func (uc *UseCase) PeriodSummary(ctx context.Context, since, until time.Time) (dto.PeriodSummary, error) {
	movements, err := uc.movementRepo.ListBetween(since, until)
	if err != nil {
		return dto.PeriodSummary{}, fmt.Errorf("reportes: resumen de período: %w", err)
	}
	return SummarizePeriod(movements, since, until), nil
}

// ProductStats devuelve el resumen del catálogo con el umbral indicado.
func (uc *UseCase) ProductStats(ctx context.Context, lowStockThreshold int64) (dto.ProductStats, error) {
	products, err := uc.productRepo.List()
	if err != nil {
		return dto.ProductStats{}, fmt.Errorf("reportes: stats de productos: %w", err)
	}
	return ComputeProductStats(products, lowStockThreshold), nil
}

// Dashboard junta las tres proyecciones del dashboard en paralelo: stats de
// productos, conteo por tipo y resumen de los últimos siete días.
func (uc *UseCase) Dashboard(ctx context.Context, lowStockThreshold int64) (dto.ProductStats, []dto.MovementTypeStat, dto.PeriodSummary, error) {
	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)

	type productsResult struct {
		stats dto.ProductStats
		err   error
	}
	type typesResult struct {
		stats []dto.MovementTypeStat
		err   error
	}
	type summaryResult struct {
		summary dto.PeriodSummary
		err     error
	}

	productsCh := make(chan productsResult, 1)
	typesCh := make(chan typesResult, 1)
	summaryCh := make(chan summaryResult, 1)

	go func() {
		stats, err := uc.ProductStats(ctx, lowStockThreshold)
		productsCh <- productsResult{stats, err}
	}()
	go func() {
		stats, err := uc.MovementsByType(ctx)
		typesCh <- typesResult{stats, err}
	}()
	go func() {
		summary, err := uc.PeriodSummary(ctx, weekAgo, now)
		summaryCh <- summaryResult{summary, err}
	}()

	products := <-productsCh
	types := <-typesCh
	summary := <-summaryCh

	if products.err != nil {
		return dto.ProductStats{}, nil, dto.PeriodSummary{}, products.err
	}
	if types.err != nil {
		return dto.ProductStats{}, nil, dto.PeriodSummary{}, types.err
	}
	if summary.err != nil {
		return dto.ProductStats{}, nil, dto.PeriodSummary{}, summary.err
	}
	return products.stats, types.stats, summary.summary, nil
}
