package movement

import (
	"context"
	"time"

	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error no persiste nada: documento y existencias quedan como estaban.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		docs repository.MovementDocumentRepository,
		stock repository.InventoryRepository,
	) error) error
}

// Sequencer entrega el consecutivo de numeración del tipo de documento para el día dado.
type Sequencer interface {
	Next(ctx context.Context, kind entity.Kind, day time.Time) (int64, error)
}

// DocumentLocker bloqueo por documento tomado antes de la transacción. Si otro proceso ya lo tiene,
// Lock devuelve domain.ErrConflict sin esperar.
type DocumentLocker interface {
	Lock(ctx context.Context, kind entity.Kind, id int64) (release func(), err error)
}

// repoSequencer usa la secuencia del repositorio de documentos (sin Redis).
type repoSequencer struct {
	docs repository.MovementDocumentRepository
}

func (s repoSequencer) Next(ctx context.Context, kind entity.Kind, _ time.Time) (int64, error) {
	return s.docs.NextSequence(ctx, kind)
}
