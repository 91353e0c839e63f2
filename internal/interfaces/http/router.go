package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/kardex-api/internal/application/auth"
	"github.com/jhoicas/kardex-api/internal/application/catalog"
	"github.com/jhoicas/kardex-api/internal/application/ledger"
	"github.com/jhoicas/kardex-api/internal/application/report"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.UseCase
	CatalogUC *catalog.UseCase
	LedgerUC  *ledger.UseCase
	KardexUC  *report.KardexUseCase
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Products (protegido). Las rutas fijas van antes que /:id.
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.CatalogUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/low-stock", productHandler.LowStock)
	products.Get("/barcode/:code", productHandler.GetByBarcode)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	// Stock (protegido)
	stock := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.LedgerUC, deps.CatalogUC)
	reportHandler := NewReportHandler(deps.KardexUC)
	stock.Post("/increase", stockHandler.Increase)
	stock.Post("/decrease", stockHandler.Decrease)
	stock.Post("/adjust", stockHandler.Adjust)
	stock.Get("/:product_id", stockHandler.GetQuantity)
	stock.Get("/:product_id/movements", stockHandler.ListMovements)
	stock.Get("/:product_id/kardex.pdf", reportHandler.Kardex)
}
