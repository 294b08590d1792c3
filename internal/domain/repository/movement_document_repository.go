package repository

import (
	"context"

	"github.com/jhoicas/bodega-api/internal/domain/entity"
)

// MovementDocumentRepository puerto de persistencia para salidas y entradas con sus líneas.
// Las escrituras posteriores a Create usan control optimista por Version: si la fila cambió desde
// la lectura devuelven domain.ErrConflict y no escriben nada.
type MovementDocumentRepository interface {
	// Create inserta cabecera y líneas; asigna ID y Version = 1.
	Create(ctx context.Context, doc *entity.MovementDocument) error
	// GetByID devuelve nil, nil si no existe un documento de ese tipo con ese ID.
	GetByID(ctx context.Context, kind entity.Kind, id int64) (*entity.MovementDocument, error)
	// GetByConfirmationKey busca la entrada por la parte pública del token del proveedor.
	GetByConfirmationKey(ctx context.Context, key string) (*entity.MovementDocument, error)
	// UpdateWorkflow persiste estado, sellos y confirmación del proveedor; incrementa Version.
	UpdateWorkflow(ctx context.Context, doc *entity.MovementDocument) error
	// ReplaceLines reemplaza las líneas y TotalAmount; incrementa Version.
	ReplaceLines(ctx context.Context, doc *entity.MovementDocument) error
	// NextSequence siguiente valor de la secuencia de numeración del tipo.
	NextSequence(ctx context.Context, kind entity.Kind) (int64, error)
}
