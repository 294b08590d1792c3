package movement

import (
	"context"
	"fmt"

	"github.com/jhoicas/bodega-api/internal/application/dto"
	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/workflow"
)

// GetDocument devuelve cabecera, líneas (con nombre y unidad del catálogo) y sellos.
func (uc *WorkflowUseCase) GetDocument(ctx context.Context, kind entity.Kind, id int64) (*dto.MovementDocumentResponse, error) {
	doc, err := uc.get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return uc.toDocumentResponse(ctx, doc)
}

// GetWorkflowStatus deriva del estado actual las acciones disponibles y los bloques por etapa.
// No depende del rol de quien consulta: la compuerta decide al aplicar la acción.
func (uc *WorkflowUseCase) GetWorkflowStatus(ctx context.Context, kind entity.Kind, id int64) (*dto.WorkflowStatusResponse, error) {
	def, err := workflow.For(kind)
	if err != nil {
		return nil, err
	}
	doc, err := uc.get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return workflowStatus(def, doc), nil
}

func (uc *WorkflowUseCase) get(ctx context.Context, kind entity.Kind, id int64) (*entity.MovementDocument, error) {
	if _, err := workflow.For(kind); err != nil {
		return nil, err
	}
	doc, err := uc.docs.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s %d", domain.ErrNotFound, kindName(kind), id)
	}
	return doc, nil
}

func workflowStatus(def *workflow.Definition, doc *entity.MovementDocument) *dto.WorkflowStatusResponse {
	out := &dto.WorkflowStatusResponse{
		DocumentID:       doc.ID,
		Kind:             string(doc.Kind),
		Number:           doc.Number,
		CurrentStatus:    string(doc.Status),
		AvailableActions: []string{},
		IsTerminal:       def.IsTerminal(doc.Status),
		CanEdit:          def.CanEdit(doc.Status),

		Approval:    toStampDTO(doc.Approval),
		Preparation: toStampDTO(doc.Preparation),
		Delivery:    toStampDTO(doc.Delivery),
		Completion:  toStampDTO(doc.Completion),
		Rejection:   toStampDTO(doc.Rejection),

		DeliveryAddress:              doc.DeliveryAddress,
		RequiresSupplierConfirmation: doc.RequiresSupplierConfirmation,
		SupplierConfirmation:         toConfirmationDTO(doc.SupplierConfirmation),
	}
	for _, tr := range def.Available(doc.Status) {
		if !actionOpen(doc, tr.Action) {
			continue
		}
		out.AvailableActions = append(out.AvailableActions, string(tr.Action))
		switch tr.Action {
		case workflow.ActionApprove:
			out.CanApprove = true
		case workflow.ActionReject:
			out.CanReject = true
		case workflow.ActionStartPreparing:
			out.CanStartPreparing = true
		case workflow.ActionDeliver:
			out.CanDeliver = true
		case workflow.ActionComplete:
			out.CanComplete = true
		case workflow.ActionSupplierConfirm:
			out.CanConfirm = true
		}
	}
	out.AwaitingSupplierConfirmation = doc.Kind == entity.KindReceipt &&
		doc.Status == entity.StatusApproved &&
		doc.RequiresSupplierConfirmation && !doc.IsConfirmed()
	return out
}

// actionOpen guardas de estado que la tabla no expresa. La verificación de stock no entra aquí:
// depende de existencias que cambian entre la consulta y la acción.
func actionOpen(doc *entity.MovementDocument, a workflow.Action) bool {
	if doc.Kind != entity.KindReceipt {
		return true
	}
	switch a {
	case workflow.ActionSupplierConfirm:
		return doc.RequiresSupplierConfirmation && doc.ConfirmationSecretHash != ""
	case workflow.ActionComplete:
		return !doc.RequiresSupplierConfirmation || doc.IsConfirmed()
	}
	return true
}

func (uc *WorkflowUseCase) toDocumentResponse(ctx context.Context, doc *entity.MovementDocument) (*dto.MovementDocumentResponse, error) {
	lines := make([]dto.MovementLineResponse, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		line := dto.MovementLineResponse{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal(),
		}
		p, err := uc.catalog.Product(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			line.ProductName = p.Name
			line.Unit = p.Unit
		}
		lines = append(lines, line)
	}
	return &dto.MovementDocumentResponse{
		ID:                           doc.ID,
		Kind:                         string(doc.Kind),
		Number:                       doc.Number,
		CustomerID:                   doc.CustomerID,
		SupplierID:                   doc.SupplierID,
		CreatedByUserID:              doc.CreatedByUserID,
		CreatedAt:                    doc.CreatedAt,
		Status:                       string(doc.Status),
		TotalAmount:                  doc.TotalAmount,
		Notes:                        doc.Notes,
		Lines:                        lines,
		RequestedDeliveryDate:        doc.RequestedDeliveryDate,
		DeliveryAddress:              doc.DeliveryAddress,
		Approval:                     toStampDTO(doc.Approval),
		Preparation:                  toStampDTO(doc.Preparation),
		Delivery:                     toStampDTO(doc.Delivery),
		Completion:                   toStampDTO(doc.Completion),
		Rejection:                    toStampDTO(doc.Rejection),
		RequiresSupplierConfirmation: doc.RequiresSupplierConfirmation,
		SupplierConfirmation:         toConfirmationDTO(doc.SupplierConfirmation),
		Version:                      doc.Version,
		UpdatedAt:                    doc.UpdatedAt,
	}, nil
}

func toStampDTO(s *entity.Stamp) *dto.StampDTO {
	if s == nil {
		return nil
	}
	return &dto.StampDTO{UserID: s.UserID, At: s.At, Notes: s.Notes}
}

func toConfirmationDTO(c *entity.SupplierConfirmation) *dto.SupplierConfirmationDTO {
	if c == nil {
		return nil
	}
	return &dto.SupplierConfirmationDTO{Confirmed: c.Confirmed, At: c.At, Notes: c.Notes}
}
