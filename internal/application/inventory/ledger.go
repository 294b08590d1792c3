package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/repository"
	"github.com/jhoicas/bodega-api/internal/domain/workflow"
)

// Ledger único punto de acceso a la existencia por producto.
// Las mutaciones (Apply) reciben el repositorio atado a la transacción del documento;
// las consultas usan el repositorio del pool.
type Ledger struct {
	stock repository.InventoryRepository
}

// NewLedger construye el ledger con el repositorio de consultas.
func NewLedger(stock repository.InventoryRepository) *Ledger {
	return &Ledger{stock: stock}
}

// GetStock devuelve la existencia del producto (cantidad cero si no tiene movimientos).
func (l *Ledger) GetStock(ctx context.Context, productID int64) (*entity.InventoryRecord, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: producto requerido", domain.ErrInvalidInput)
	}
	return l.stock.Get(ctx, productID)
}

// Apply mueve el stock de todas las líneas en la dirección dada usando el repositorio de la transacción.
// Las filas se tocan en orden ascendente de producto para que dos transacciones nunca se bloqueen en cruz.
// En salidas, la primera línea sin existencia suficiente devuelve *domain.InsufficientStockError y el
// caller debe abortar la transacción completa.
func Apply(ctx context.Context, stock repository.InventoryRepository, dir workflow.Direction, lines []entity.MovementLine, at time.Time) error {
	for _, q := range byProduct(lines) {
		var err error
		switch dir {
		case workflow.DirectionIncrease:
			_, err = stock.Increase(ctx, q.productID, q.quantity, at)
		case workflow.DirectionDecrease:
			_, err = stock.DecreaseIfAvailable(ctx, q.productID, q.quantity, at)
		default:
			return &domain.InvariantError{Detail: fmt.Sprintf("dirección de inventario desconocida %d", dir)}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// CheckAvailability verifica, sin mutar, que cada línea quepa en la existencia actual.
// Es una validación de lectura: la garantía real la da DecreaseIfAvailable al completar.
func CheckAvailability(ctx context.Context, stock repository.InventoryRepository, lines []entity.MovementLine) error {
	for _, q := range byProduct(lines) {
		rec, err := stock.Get(ctx, q.productID)
		if err != nil {
			return err
		}
		if rec.Quantity < q.quantity {
			return &domain.InsufficientStockError{ProductID: q.productID, Requested: q.quantity, Available: rec.Quantity}
		}
	}
	return nil
}

type productQty struct {
	productID int64
	quantity  int64
}

func byProduct(lines []entity.MovementLine) []productQty {
	acc := make(map[int64]int64, len(lines))
	for _, l := range lines {
		acc[l.ProductID] += l.Quantity
	}
	out := make([]productQty, 0, len(acc))
	for id, qty := range acc {
		out = append(out, productQty{productID: id, quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].productID < out[j].productID })
	return out
}
