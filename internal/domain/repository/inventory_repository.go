package repository

import (
	"context"
	"time"

	"github.com/jhoicas/bodega-api/internal/domain/entity"
)

// InventoryRepository puerto de la existencia por producto.
// Increase y DecreaseIfAvailable son atómicas por fila: lectura, verificación y escritura en un solo paso
// indivisible frente a otras llamadas concurrentes sobre el mismo producto. Usado dentro de transacciones.
type InventoryRepository interface {
	// Get devuelve la existencia actual; cantidad cero si el producto aún no tiene fila.
	Get(ctx context.Context, productID int64) (*entity.InventoryRecord, error)
	// Increase suma qty. ErrNotFound si el producto no existe.
	Increase(ctx context.Context, productID, qty int64, at time.Time) (*entity.InventoryRecord, error)
	// DecreaseIfAvailable resta qty solo si la existencia alcanza; si no, devuelve
	// *domain.InsufficientStockError sin modificar nada.
	DecreaseIfAvailable(ctx context.Context, productID, qty int64, at time.Time) (*entity.InventoryRecord, error)
}
