package http

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/bodega-api/internal/application/dto"
	"github.com/jhoicas/bodega-api/internal/application/movement"
	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/workflow"
)

// MovementHandler maneja salidas o entradas de mercancía (protegido). Una instancia por tipo.
type MovementHandler struct {
	uc   *movement.WorkflowUseCase
	kind entity.Kind
}

// NewIssueHandler handler de /api/issues.
func NewIssueHandler(uc *movement.WorkflowUseCase) *MovementHandler {
	return &MovementHandler{uc: uc, kind: entity.KindIssue}
}

// NewReceiptHandler handler de /api/receipts.
func NewReceiptHandler(uc *movement.WorkflowUseCase) *MovementHandler {
	return &MovementHandler{uc: uc, kind: entity.KindReceipt}
}

// Create godoc
// @Summary      Crear salida o entrada
// @Description  Body dto.CreateIssueRequest en /api/issues y dto.CreateReceiptRequest en /api/receipts.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      201   {object}  dto.CreateMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/issues [post]
// @Router       /api/receipts [post]
func (h *MovementHandler) Create(c *fiber.Ctx) error {
	actor := GetActor(c)
	var (
		out *dto.CreateMovementResponse
		err error
	)
	if h.kind == entity.KindIssue {
		var in dto.CreateIssueRequest
		if err := parseBody(c, &in); err != nil {
			return writeError(c, err)
		}
		out, err = h.uc.CreateIssue(c.Context(), actor, in)
	} else {
		var in dto.CreateReceiptRequest
		if err := parseBody(c, &in); err != nil {
			return writeError(c, err)
		}
		out, err = h.uc.CreateReceipt(c.Context(), actor, in)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener documento con líneas y sellos
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del documento"
// @Success      200  {object}  dto.MovementDocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/issues/{id} [get]
// @Router       /api/receipts/{id} [get]
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetDocument(c.Context(), h.kind, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetLines godoc
// @Summary      Reemplazar líneas (solo en estado editable)
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                  true  "ID del documento"
// @Param        body  body  dto.SetLinesRequest  true  "líneas y notas"
// @Success      200   {object}  dto.MovementDocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/issues/{id}/lines [put]
// @Router       /api/receipts/{id}/lines [put]
func (h *MovementHandler) SetLines(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.SetLinesRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.SetLines(c.Context(), h.kind, id, GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ApplyAction godoc
// @Summary      Aplicar acción de flujo
// @Description  approve, reject (requiere notes), start_preparing, deliver, complete.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  int                true   "ID del documento"
// @Param        action  path  string             true   "acción"
// @Param        body    body  dto.ActionRequest  false  "notas / dirección de entrega"
// @Success      200     {object}  dto.ActionResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      403     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/issues/{id}/actions/{action} [post]
// @Router       /api/receipts/{id}/actions/{action} [post]
func (h *MovementHandler) ApplyAction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	action, err := workflow.ParseAction(c.Params("action"))
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ActionRequest
	if err := parseOptionalBody(c, &in); err != nil {
		return writeError(c, err)
	}
	var out *dto.ActionResponse
	if h.kind == entity.KindIssue {
		out, err = h.uc.ApplyIssueAction(c.Context(), id, action, GetActor(c), in)
	} else {
		out, err = h.uc.ApplyReceiptAction(c.Context(), id, action, GetActor(c), in)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Workflow godoc
// @Summary      Estado de flujo y acciones disponibles
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del documento"
// @Success      200  {object}  dto.WorkflowStatusResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/issues/{id}/workflow [get]
// @Router       /api/receipts/{id}/workflow [get]
func (h *MovementHandler) Workflow(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetWorkflowStatus(c.Context(), h.kind, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SupplierConfirmationHandler confirmación externa de entradas (público, autenticado por token).
type SupplierConfirmationHandler struct {
	uc *movement.WorkflowUseCase
}

// NewSupplierConfirmationHandler construye el handler.
func NewSupplierConfirmationHandler(uc *movement.WorkflowUseCase) *SupplierConfirmationHandler {
	return &SupplierConfirmationHandler{uc: uc}
}

// Confirm godoc
// @Summary      Confirmación del proveedor
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SupplierConfirmationRequest  true  "token, confirmed, notes"
// @Success      200   {object}  dto.SupplierConfirmationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/receipts/confirmations [post]
func (h *SupplierConfirmationHandler) Confirm(c *fiber.Ctx) error {
	var in dto.SupplierConfirmationRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ConfirmReceiptBySupplier(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s debe ser un entero positivo", domain.ErrInvalidInput, name)
	}
	return id, nil
}
