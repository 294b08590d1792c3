package movement

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/bodega-api/internal/application/dto"
	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/repository"
	"github.com/jhoicas/bodega-api/internal/domain/workflow"
)

// SetLines reemplaza las líneas de un documento en su estado editable (NEW / PENDING) y recalcula el total.
// Fuera de ese estado devuelve ErrIllegalTransition; una línea inválida devuelve *domain.InvalidLineError
// sin modificar nada.
func (uc *WorkflowUseCase) SetLines(ctx context.Context, kind entity.Kind, id int64, actor entity.Actor, req dto.SetLinesRequest) (*dto.MovementDocumentResponse, error) {
	if err := validActor(actor); err != nil {
		return nil, err
	}
	def, err := workflow.For(kind)
	if err != nil {
		return nil, err
	}
	lines, err := uc.resolveLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}
	release, err := uc.lock(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	defer release()

	var result *entity.MovementDocument
	err = uc.tx.Run(ctx, func(docs repository.MovementDocumentRepository, _ repository.InventoryRepository) error {
		doc, err := byID(kind, id)(ctx, docs)
		if err != nil {
			return err
		}
		if !def.CanEdit(doc.Status) {
			return fmt.Errorf("%w: las líneas solo se editan en %s (estado actual %s)",
				domain.ErrIllegalTransition, def.Editable, doc.Status)
		}
		if err := doc.ReplaceLines(lines); err != nil {
			return err
		}
		if req.Notes != nil {
			doc.Notes = strings.TrimSpace(*req.Notes)
		}
		doc.UpdatedAt = uc.now()
		if err := docs.ReplaceLines(ctx, doc); err != nil {
			return err
		}
		result = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("kind", string(kind)).Int64("document_id", id).
		Int("lines", len(result.Lines)).Str("total", result.TotalAmount.String()).Msg("líneas actualizadas")
	return uc.toDocumentResponse(ctx, result)
}
