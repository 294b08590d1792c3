// Package movement implementa el motor de flujo de salidas (GoodsIssue) y entradas (GoodsReceipt):
// creación, edición de líneas, acciones de flujo, confirmación del proveedor y consultas de estado.
// Toda acción pasa por workflow.Definition.Decide y, cuando la transición mueve stock, el cambio de
// estado y el ajuste de inventario se confirman en la misma transacción.
package movement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/bodega-api/internal/application/inventory"
	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/repository"
	"github.com/jhoicas/bodega-api/internal/domain/workflow"
	"github.com/jhoicas/bodega-api/pkg/logger"
)

const notifyTimeout = 5 * time.Second

// Deps colaboradores del motor. Sequencer y Locker son opcionales.
type Deps struct {
	Tx        TxRunner
	Documents repository.MovementDocumentRepository // lecturas fuera de transacción
	Catalog   Catalog
	Notifier  Notifier
	Sequencer Sequencer      // nil → secuencia del repositorio
	Locker    DocumentLocker // nil → solo control optimista por versión
	Logger    *logger.Logger
	Clock     func() time.Time
}

// Config parámetros de numeración y hashing del token de confirmación.
type Config struct {
	IssuePrefix   string
	ReceiptPrefix string
	BcryptCost    int
}

// WorkflowUseCase casos de uso de documentos de movimiento.
type WorkflowUseCase struct {
	tx        TxRunner
	docs      repository.MovementDocumentRepository
	catalog   Catalog
	notifier  Notifier
	sequencer Sequencer
	locker    DocumentLocker
	log       *logger.Logger
	now       func() time.Time
	cfg       Config
}

// NewWorkflowUseCase construye el motor aplicando valores por defecto.
func NewWorkflowUseCase(deps Deps, cfg Config) *WorkflowUseCase {
	if cfg.IssuePrefix == "" {
		cfg.IssuePrefix = "GI"
	}
	if cfg.ReceiptPrefix == "" {
		cfg.ReceiptPrefix = "GR"
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	uc := &WorkflowUseCase{
		tx:        deps.Tx,
		docs:      deps.Documents,
		catalog:   deps.Catalog,
		notifier:  deps.Notifier,
		sequencer: deps.Sequencer,
		locker:    deps.Locker,
		log:       deps.Logger,
		now:       deps.Clock,
		cfg:       cfg,
	}
	if uc.sequencer == nil {
		uc.sequencer = repoSequencer{docs: deps.Documents}
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc
}

// step acción de flujo a ejecutar. load obtiene el documento dentro de la transacción; guard valida
// reglas de negocio sin mutar; mutate escribe sellos y campos propios de la acción.
type step struct {
	kind   entity.Kind
	id     int64
	action workflow.Action
	actor  entity.Actor
	load   func(ctx context.Context, docs repository.MovementDocumentRepository) (*entity.MovementDocument, error)
	guard  func(ctx context.Context, stock repository.InventoryRepository, doc *entity.MovementDocument) error
	mutate func(doc *entity.MovementDocument, now time.Time) error
}

// run ejecuta la acción y, ya liberado el bloqueo, notifica al creador del documento.
func (uc *WorkflowUseCase) run(ctx context.Context, s step) (*entity.MovementDocument, error) {
	result, from, err := uc.apply(ctx, s)
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("kind", string(result.Kind)).
		Int64("document_id", result.ID).
		Str("number", result.Number).
		Str("action", string(s.action)).
		Str("from", string(from)).
		Str("to", string(result.Status)).
		Int64("user_id", s.actor.UserID).
		Msg("transición aplicada")

	uc.notifyTransition(ctx, result, s.action, s.actor)
	return result, nil
}

// apply bloqueo opcional, transacción, compuerta, guardas, sellos, CAS de versión y, si la transición
// mueve stock, el ajuste de inventario de todas las líneas.
func (uc *WorkflowUseCase) apply(ctx context.Context, s step) (*entity.MovementDocument, entity.Status, error) {
	def, err := workflow.For(s.kind)
	if err != nil {
		return nil, "", err
	}
	release, err := uc.lock(ctx, s.kind, s.id)
	if err != nil {
		return nil, "", err
	}
	defer release()

	var (
		result *entity.MovementDocument
		from   entity.Status
	)
	err = uc.tx.Run(ctx, func(docs repository.MovementDocumentRepository, stock repository.InventoryRepository) error {
		load := s.load
		if load == nil {
			load = byID(s.kind, s.id)
		}
		doc, err := load(ctx, docs)
		if err != nil {
			return err
		}
		from = doc.Status
		tr, err := def.Decide(doc.Status, s.action, s.actor.Role)
		if err != nil {
			return err
		}
		if s.guard != nil {
			if err := s.guard(ctx, stock, doc); err != nil {
				return err
			}
		}
		now := uc.now()
		if s.mutate != nil {
			if err := s.mutate(doc, now); err != nil {
				return err
			}
		}
		doc.Status = tr.To
		doc.UpdatedAt = now
		if !doc.StampsInOrder() {
			return &domain.InvariantError{Detail: fmt.Sprintf("sellos fuera de orden en %s %d", doc.Kind, doc.ID)}
		}
		if tr.MovesStock {
			if err := inventory.Apply(ctx, stock, def.Direction, doc.Lines, now); err != nil {
				return err
			}
		}
		if err := docs.UpdateWorkflow(ctx, doc); err != nil {
			// Otra acción ganó la carrera entre la lectura y el CAS de versión.
			if errors.Is(err, domain.ErrConflict) {
				return fmt.Errorf("%w: %s %d cambió durante la acción: %w", domain.ErrIllegalTransition, kindName(s.kind), s.id, err)
			}
			return err
		}
		result = doc
		return nil
	})
	if err != nil {
		var inv *domain.InvariantError
		if errors.As(err, &inv) {
			uc.log.Error().Err(err).Str("kind", string(s.kind)).Int64("document_id", s.id).
				Str("action", string(s.action)).Msg("invariante violado en acción de flujo")
		}
		return nil, "", err
	}
	return result, from, nil
}

func byID(kind entity.Kind, id int64) func(context.Context, repository.MovementDocumentRepository) (*entity.MovementDocument, error) {
	return func(ctx context.Context, docs repository.MovementDocumentRepository) (*entity.MovementDocument, error) {
		doc, err := docs.GetByID(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, fmt.Errorf("%w: %s %d", domain.ErrNotFound, kindName(kind), id)
		}
		return doc, nil
	}
}

func (uc *WorkflowUseCase) lock(ctx context.Context, kind entity.Kind, id int64) (func(), error) {
	if uc.locker == nil || id <= 0 {
		return func() {}, nil
	}
	return uc.locker.Lock(ctx, kind, id)
}

// notifyTransition avisa al creador del documento. Se ejecuta después del commit y sin el bloqueo
// del documento, con un contexto desligado de la petición; los errores solo se registran.
func (uc *WorkflowUseCase) notifyTransition(ctx context.Context, doc *entity.MovementDocument, action workflow.Action, actor entity.Actor) {
	if uc.notifier == nil {
		return
	}
	var event string
	var notes string
	switch action {
	case workflow.ActionApprove:
		event = entity.EventApproved
		notes = stampNotes(doc.Approval)
	case workflow.ActionReject:
		event = entity.EventRejected
		notes = stampNotes(doc.Rejection)
	case workflow.ActionComplete:
		event = entity.EventCompleted
		notes = stampNotes(doc.Completion)
	default:
		return
	}
	n := entity.Notification{
		Event:           event,
		Kind:            doc.Kind,
		DocumentID:      doc.ID,
		Number:          doc.Number,
		Status:          doc.Status,
		RecipientUserID: doc.CreatedByUserID,
		ActorUserID:     actor.UserID,
		Notes:           notes,
		OccurredAt:      doc.UpdatedAt,
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := uc.notifier.Notify(nctx, n); err != nil {
		uc.log.Warn().Err(err).Str("event", event).Int64("document_id", doc.ID).Msg("no se pudo enviar la notificación")
	}
}

func stampNotes(s *entity.Stamp) string {
	if s == nil {
		return ""
	}
	return s.Notes
}

func validActor(actor entity.Actor) error {
	if actor.UserID <= 0 || !actor.Role.IsValid() {
		return fmt.Errorf("%w: usuario o rol no reconocido", domain.ErrForbidden)
	}
	return nil
}

func kindName(k entity.Kind) string {
	if k == entity.KindReceipt {
		return "entrada"
	}
	return "salida"
}
