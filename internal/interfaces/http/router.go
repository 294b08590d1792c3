package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/bodega-api/internal/application/inventory"
	"github.com/jhoicas/bodega-api/internal/application/movement"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Workflow  *movement.WorkflowUseCase
	Ledger    *inventory.Ledger
	JWTSecret string
	AppName   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", Health(deps.AppName))

	api := app.Group("/api")

	// Confirmación del proveedor (público, autenticado por token de un solo uso).
	// Se registra antes del grupo protegido para que no pase por AuthMiddleware.
	confirmHandler := NewSupplierConfirmationHandler(deps.Workflow)
	api.Post("/receipts/confirmations", confirmHandler.Confirm)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	issues := protected.Group("/issues")
	registerMovementRoutes(issues, NewIssueHandler(deps.Workflow))

	receipts := protected.Group("/receipts")
	registerMovementRoutes(receipts, NewReceiptHandler(deps.Workflow))

	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger)
	invGroup.Get("/:productId", inventoryHandler.GetStock)
}

func registerMovementRoutes(r fiber.Router, h *MovementHandler) {
	r.Post("/", h.Create)
	r.Get("/:id", h.GetByID)
	r.Put("/:id/lines", h.SetLines)
	r.Post("/:id/actions/:action", h.ApplyAction)
	r.Get("/:id/workflow", h.Workflow)
}
