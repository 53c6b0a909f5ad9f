package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// MovementHandler maneja el kardex: registrar movimientos y consultar historial.
type MovementHandler struct {
	svc *ledger.Service
}

// NewMovementHandler construye el handler.
func NewMovementHandler(svc *ledger.Service) *MovementHandler {
	return &MovementHandler{svc: svc}
}

// Record godoc
// @Summary      Registrar un movimiento de stock
// @Tags         stock-movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "Movimiento (ENTRADA, SALIDA o CORRECCION)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stock-movements [post]
func (h *MovementHandler) Record(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.ProductID == "" || in.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "productId y type son requeridos"})
	}
	mov, err := h.svc.RecordMovement(c.Context(), GetActor(c), in)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// ListAll godoc
// @Summary      Historial completo de movimientos (fecha ascendente)
// @Tags         stock-movements
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/stock-movements [get]
func (h *MovementHandler) ListAll(c *fiber.Ctx) error {
	movements, err := h.svc.GetHistory(c.Context(), "")
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toMovementResponses(movements))
}

// ListByProduct godoc
// @Summary      Historial de un producto (disponible aunque esté dado de baja)
// @Tags         stock-movements
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/stock-movements/product/{productId} [get]
func (h *MovementHandler) ListByProduct(c *fiber.Ctx) error {
	productID := c.Params("productId")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "productId es requerido"})
	}
	movements, err := h.svc.GetHistory(c.Context(), productID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toMovementResponses(movements))
}

// CurrentStock godoc
// @Summary      Stock actual de un producto
// @Tags         stock-movements
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {object}  map[string]int64
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-movements/product/{productId}/stock [get]
func (h *MovementHandler) CurrentStock(c *fiber.Ctx) error {
	productID := c.Params("productId")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "productId es requerido"})
	}
	stock, err := h.svc.GetCurrentStock(c.Context(), productID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{"productId": productID, "stock": stock})
}

func toMovementResponse(m *entity.StockMovement) *dto.MovementResponse {
	if m == nil {
		return nil
	}
	return &dto.MovementResponse{
		ID:              m.ID,
		ProductID:       m.ProductID,
		ProductName:     m.ProductName,
		Type:            m.Type,
		QuantityChanged: m.QuantityChanged,
		StockBefore:     m.StockBefore,
		StockAfter:      m.StockAfter,
		MovementDate:    m.MovementDate,
		Reason:          m.Reason,
		Username:        m.Username,
	}
}

func toMovementResponses(movements []*entity.StockMovement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, *toMovementResponse(m))
	}
	return out
}
