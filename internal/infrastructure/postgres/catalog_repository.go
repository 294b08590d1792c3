package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/bodega-api/internal/domain/entity"
)

// CatalogRepo consultas de existencia sobre productos, proveedores y clientes.
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

// Product devuelve nombre y unidad del producto; nil, nil si no existe.
func (r *CatalogRepo) Product(ctx context.Context, id int64) (*entity.ProductRef, error) {
	var p entity.ProductRef
	err := r.q.QueryRow(ctx, `SELECT id, name, unit FROM products WHERE id = $1`, id).Scan(&p.ID, &p.Name, &p.Unit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// SupplierExists indica si el proveedor existe.
func (r *CatalogRepo) SupplierExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1)`, id)
}

// CustomerExists indica si el cliente existe.
func (r *CatalogRepo) CustomerExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id)
}

func (r *CatalogRepo) exists(ctx context.Context, query string, id int64) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return ok, nil
}
