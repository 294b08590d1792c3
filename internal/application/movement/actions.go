package movement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/bodega-api/internal/application/dto"
	"github.com/jhoicas/bodega-api/internal/application/inventory"
	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/repository"
	"github.com/jhoicas/bodega-api/internal/domain/workflow"
)

// ApplyIssueAction aplica Approve, Reject, StartPreparing, Deliver o Complete sobre una salida.
// Approve verifica existencias (solo lectura); Complete descuenta cada línea de forma atómica y, si
// alguna no alcanza, devuelve *domain.InsufficientStockError y la salida queda en DELIVERED.
func (uc *WorkflowUseCase) ApplyIssueAction(ctx context.Context, id int64, action workflow.Action, actor entity.Actor, payload dto.ActionRequest) (*dto.ActionResponse, error) {
	if err := validActor(actor); err != nil {
		return nil, err
	}
	s := step{kind: entity.KindIssue, id: id, action: action, actor: actor}
	if err := uc.prepare(&s, payload); err != nil {
		return nil, err
	}
	if action == workflow.ActionApprove {
		s.guard = func(ctx context.Context, stock repository.InventoryRepository, doc *entity.MovementDocument) error {
			return inventory.CheckAvailability(ctx, stock, doc.Lines)
		}
	}
	doc, err := uc.run(ctx, s)
	if err != nil {
		return nil, err
	}
	return toActionResponse(doc), nil
}

// ApplyReceiptAction aplica Approve, Reject o Complete sobre una entrada. Complete exige la
// confirmación del proveedor cuando la entrada la requiere (ErrConfirmationRequired).
// La confirmación del proveedor no entra por aquí: usa ConfirmReceiptBySupplier con el token.
func (uc *WorkflowUseCase) ApplyReceiptAction(ctx context.Context, id int64, action workflow.Action, actor entity.Actor, payload dto.ActionRequest) (*dto.ActionResponse, error) {
	if action == workflow.ActionSupplierConfirm {
		return nil, fmt.Errorf("%w: la confirmación del proveedor se registra con su token", domain.ErrInvalidInput)
	}
	if err := validActor(actor); err != nil {
		return nil, err
	}
	s := step{kind: entity.KindReceipt, id: id, action: action, actor: actor}
	if err := uc.prepare(&s, payload); err != nil {
		return nil, err
	}
	if action == workflow.ActionComplete {
		s.guard = func(_ context.Context, _ repository.InventoryRepository, doc *entity.MovementDocument) error {
			if doc.RequiresSupplierConfirmation && !doc.IsConfirmed() {
				return fmt.Errorf("%w: entrada %s", domain.ErrConfirmationRequired, doc.Number)
			}
			return nil
		}
	}
	doc, err := uc.run(ctx, s)
	if err != nil {
		return nil, err
	}
	return toActionResponse(doc), nil
}

// prepare asigna a s la mutación de sellos de la acción y valida el payload.
// Reject exige motivo; se valida después de la compuerta para que repetir un rechazo siga
// reportando IllegalTransition.
func (uc *WorkflowUseCase) prepare(s *step, payload dto.ActionRequest) error {
	notes := strings.TrimSpace(payload.Notes)
	actor := s.actor
	stampAt := func(at time.Time) entity.Stamp {
		return entity.Stamp{UserID: actor.UserID, At: at, Notes: notes}
	}

	switch s.action {
	case workflow.ActionApprove:
		s.mutate = func(doc *entity.MovementDocument, now time.Time) error {
			return setOnce(&doc.Approval, stampAt(now), "aprobación")
		}
	case workflow.ActionReject:
		s.mutate = func(doc *entity.MovementDocument, now time.Time) error {
			if notes == "" {
				return fmt.Errorf("%w: el rechazo requiere un motivo", domain.ErrInvalidInput)
			}
			if doc.Approval == nil {
				// rechazo antes de aprobar: la decisión queda también como sello de aprobación
				if err := setOnce(&doc.Approval, stampAt(now), "aprobación"); err != nil {
					return err
				}
			}
			return setOnce(&doc.Rejection, stampAt(now), "rechazo")
		}
	case workflow.ActionStartPreparing:
		s.mutate = func(doc *entity.MovementDocument, now time.Time) error {
			return setOnce(&doc.Preparation, stampAt(now), "alistamiento")
		}
	case workflow.ActionDeliver:
		address := strings.TrimSpace(payload.DeliveryAddress)
		s.mutate = func(doc *entity.MovementDocument, now time.Time) error {
			if address != "" {
				doc.DeliveryAddress = address
			}
			return setOnce(&doc.Delivery, stampAt(now), "entrega")
		}
	case workflow.ActionComplete:
		s.mutate = func(doc *entity.MovementDocument, now time.Time) error {
			return setOnce(&doc.Completion, stampAt(now), "cierre")
		}
	case workflow.ActionSupplierConfirm:
		// en salidas la compuerta la rechaza como IllegalTransition
	default:
		return fmt.Errorf("%w: acción desconocida %q", domain.ErrInvalidInput, s.action)
	}
	return nil
}

// setOnce escribe un sello que debe estar vacío.
func setOnce(slot **entity.Stamp, s entity.Stamp, name string) error {
	if *slot != nil {
		return &domain.InvariantError{Detail: "sello de " + name + " ya registrado"}
	}
	*slot = &s
	return nil
}

func toActionResponse(doc *entity.MovementDocument) *dto.ActionResponse {
	return &dto.ActionResponse{
		ID:      doc.ID,
		Number:  doc.Number,
		Status:  string(doc.Status),
		Version: doc.Version,
	}
}
