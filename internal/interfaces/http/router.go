package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Kardex-api/internal/application/auth"
	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/application/reporting"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger            *ledger.Service
	Reporting         *reporting.UseCase
	AuthUC            *auth.AuthUseCase
	JWTSecret         string
	LowStockThreshold int64
}

// Router registra las rutas de la API. Las lecturas exigen token válido
// (cualquier rol); las escrituras además exigen admin o manager. El ledger
// vuelve a validar con AuthorizationPolicy, el middleware solo corta antes.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	writers := RequireRole(entity.RoleAdmin, entity.RoleManager)

	statsHandler := NewStatsHandler(deps.Reporting, deps.LowStockThreshold)
	protected.Get("/dashboard", statsHandler.Dashboard)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.Ledger)
	products.Get("/stats", statsHandler.ProductStats)
	products.Post("/", writers, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", writers, productHandler.Update)
	products.Delete("/:id", writers, productHandler.Delete)

	// Stock movements (kardex)
	movements := protected.Group("/stock-movements")
	movementHandler := NewMovementHandler(deps.Ledger)
	movements.Get("/stats/movements-by-type", statsHandler.MovementsByType)
	movements.Get("/stats/summary", statsHandler.PeriodSummary)
	movements.Post("/", writers, movementHandler.Record)
	movements.Get("/", movementHandler.ListAll)
	movements.Get("/product/:productId", movementHandler.ListByProduct)
	movements.Get("/product/:productId/stock", movementHandler.CurrentStock)
}
