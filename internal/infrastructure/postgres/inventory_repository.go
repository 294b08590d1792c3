package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// InventoryRepo implementación de InventoryRepository sobre PostgreSQL (usable con pool o tx).
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador de existencias. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

// Get obtiene la existencia actual de un producto; cero si aún no tiene fila.
func (r *InventoryRepo) Get(ctx context.Context, productID int64) (*entity.InventoryRecord, error) {
	query := `SELECT product_id, quantity, last_updated_at FROM inventory WHERE product_id = $1`
	var rec entity.InventoryRecord
	err := r.q.QueryRow(ctx, query, productID).Scan(&rec.ProductID, &rec.Quantity, &rec.LastUpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.InventoryRecord{ProductID: productID}, nil
		}
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	return &rec, nil
}

// Increase suma qty en una sola sentencia (INSERT ... ON CONFLICT DO UPDATE bloquea la fila).
func (r *InventoryRepo) Increase(ctx context.Context, productID, qty int64, at time.Time) (*entity.InventoryRecord, error) {
	query := `
		INSERT INTO inventory (product_id, quantity, last_updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id)
		DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity, last_updated_at = EXCLUDED.last_updated_at
		RETURNING product_id, quantity, last_updated_at`
	var rec entity.InventoryRecord
	err := r.q.QueryRow(ctx, query, productID, qty, at).Scan(&rec.ProductID, &rec.Quantity, &rec.LastUpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: producto %d", domain.ErrNotFound, productID)
		}
		return nil, fmt.Errorf("increase inventory: %w", err)
	}
	return &rec, nil
}

// DecreaseIfAvailable bloquea la fila (SELECT FOR UPDATE), verifica la existencia y descuenta.
// Con la fila bloqueada ninguna otra transacción puede leer la misma cantidad hasta el commit.
func (r *InventoryRepo) DecreaseIfAvailable(ctx context.Context, productID, qty int64, at time.Time) (*entity.InventoryRecord, error) {
	var current int64
	err := r.q.QueryRow(ctx,
		`SELECT quantity FROM inventory WHERE product_id = $1 FOR UPDATE`, productID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.InsufficientStockError{ProductID: productID, Requested: qty, Available: 0}
		}
		return nil, fmt.Errorf("get inventory for update: %w", err)
	}
	if current < qty {
		return nil, &domain.InsufficientStockError{ProductID: productID, Requested: qty, Available: current}
	}

	query := `
		UPDATE inventory SET quantity = quantity - $2, last_updated_at = $3
		WHERE product_id = $1
		RETURNING product_id, quantity, last_updated_at`
	var rec entity.InventoryRecord
	if err := r.q.QueryRow(ctx, query, productID, qty, at).Scan(&rec.ProductID, &rec.Quantity, &rec.LastUpdatedAt); err != nil {
		if isCheckViolation(err) {
			return nil, &domain.InsufficientStockError{ProductID: productID, Requested: qty, Available: current}
		}
		return nil, fmt.Errorf("decrease inventory: %w", err)
	}
	return &rec, nil
}
