package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/reporting"
)

// StatsHandler expone las proyecciones read-only del dashboard.
type StatsHandler struct {
	uc                *reporting.UseCase
	lowStockThreshold int64 // umbral por defecto, configurable por request
}

// NewStatsHandler construye el handler con el umbral por defecto.
func NewStatsHandler(uc *reporting.UseCase, lowStockThreshold int64) *StatsHandler {
	return &StatsHandler{uc: uc, lowStockThreshold: lowStockThreshold}
}

// ProductStats godoc
// @Summary      Total de productos y cuántos están bajo el umbral de stock
// @Tags         stats
// @Security     Bearer
// @Produce      json
// @Param        low_stock_threshold  query  int  false  "Umbral de stock bajo"
// @Success      200  {object}  dto.ProductStats
// @Router       /api/products/stats [get]
func (h *StatsHandler) ProductStats(c *fiber.Ctx) error {
	threshold := int64(c.QueryInt("low_stock_threshold", int(h.lowStockThreshold)))
	stats, err := h.uc.ProductStats(c.Context(), threshold)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(stats)
}

// Dashboard godoc
// @Summary      Proyecciones combinadas del dashboard
// @Description  Stats del catálogo, conteo por tipo y totales de los últimos 7 días.
// @Tags         stats
// @Security     Bearer
// @Produce      json
// @Param        low_stock_threshold  query  int  false  "Umbral de stock bajo"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/dashboard [get]
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	threshold := int64(c.QueryInt("low_stock_threshold", int(h.lowStockThreshold)))
	products, types, summary, err := h.uc.Dashboard(c.Context(), threshold)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{
		"productStats":    products,
		"movementsByType": types,
		"weeklySummary":   summary,
	})
}

// MovementsByType godoc
// @Summary      Conteo de movimientos por tipo
// @Tags         stats
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.MovementTypeStat
// @Router       /api/stock-movements/stats/movements-by-type [get]
func (h *StatsHandler) MovementsByType(c *fiber.Ctx) error {
	stats, err := h.uc.MovementsByType(c.Context())
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(stats)
}

// PeriodSummary godoc
// @Summary      Totales de entradas y salidas en [since, until)
// @Description  Sin parámetros cubre los últimos 7 días. AJUSTE_INICIAL y
// @Description  CORRECCION no suman en los totales del período.
// @Tags         stats
// @Security     Bearer
// @Produce      json
// @Param        since  query  string  false  "RFC3339, inclusive"
// @Param        until  query  string  false  "RFC3339, exclusivo"
// @Success      200  {object}  dto.PeriodSummary
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock-movements/stats/summary [get]
func (h *StatsHandler) PeriodSummary(c *fiber.Ctx) error {
	now := time.Now()
	since := now.AddDate(0, 0, -7)
	until := now

	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "since debe ser RFC3339"})
		}
		since = t
	}
	if raw := c.Query("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "until debe ser RFC3339"})
		}
		until = t
	}

	summary, err := h.uc.PeriodSummary(c.Context(), since, until)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(summary)
}
