package movement

import (
	"context"

	"github.com/jhoicas/bodega-api/internal/domain/entity"
)

//go:generate mockgen -source=ports.go -destination=ports_mock.go -package=movement

// Catalog consulta de existencia y metadatos de productos, proveedores y clientes.
// El CRUD de esas entidades vive fuera del motor de documentos.
type Catalog interface {
	// Product devuelve nil, nil si el producto no existe.
	Product(ctx context.Context, id int64) (*entity.ProductRef, error)
	SupplierExists(ctx context.Context, id int64) (bool, error)
	CustomerExists(ctx context.Context, id int64) (bool, error)
}

// Notifier sink de notificaciones (fire-and-forget). Un error se registra; nunca revierte la transición.
type Notifier interface {
	Notify(ctx context.Context, n entity.Notification) error
}
