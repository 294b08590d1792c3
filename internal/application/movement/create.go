package movement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/bodega-api/internal/application/dto"
	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/repository"
	"github.com/jhoicas/bodega-api/internal/domain/workflow"
)

// CreateIssue crea una salida en NEW. CustomerID es opcional (venta directa); si viene debe existir.
func (uc *WorkflowUseCase) CreateIssue(ctx context.Context, actor entity.Actor, req dto.CreateIssueRequest) (*dto.CreateMovementResponse, error) {
	if err := validActor(actor); err != nil {
		return nil, err
	}
	lines, err := uc.resolveLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != nil {
		ok, err := uc.catalog.CustomerExists(ctx, *req.CustomerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: cliente %d", domain.ErrNotFound, *req.CustomerID)
		}
	}

	now := uc.now()
	doc := &entity.MovementDocument{
		Kind:                  entity.KindIssue,
		CustomerID:            req.CustomerID,
		CreatedByUserID:       actor.UserID,
		CreatedAt:             now,
		UpdatedAt:             now,
		Status:                workflow.Issue.Initial,
		Notes:                 strings.TrimSpace(req.Notes),
		RequestedDeliveryDate: req.RequestedDeliveryDate,
		DeliveryAddress:       strings.TrimSpace(req.DeliveryAddress),
	}
	if err := uc.create(ctx, doc, lines, now); err != nil {
		return nil, err
	}
	return toCreateResponse(doc, ""), nil
}

// CreateReceipt crea una entrada en PENDING. Si exige confirmación del proveedor devuelve el token
// de un solo uso; solo se guarda su parte pública y el hash del secreto.
func (uc *WorkflowUseCase) CreateReceipt(ctx context.Context, actor entity.Actor, req dto.CreateReceiptRequest) (*dto.CreateMovementResponse, error) {
	if err := validActor(actor); err != nil {
		return nil, err
	}
	if req.SupplierID <= 0 {
		return nil, fmt.Errorf("%w: proveedor requerido", domain.ErrInvalidInput)
	}
	lines, err := uc.resolveLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}
	ok, err := uc.catalog.SupplierExists(ctx, req.SupplierID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: proveedor %d", domain.ErrNotFound, req.SupplierID)
	}

	now := uc.now()
	supplierID := req.SupplierID
	doc := &entity.MovementDocument{
		Kind:                         entity.KindReceipt,
		SupplierID:                   &supplierID,
		CreatedByUserID:              actor.UserID,
		CreatedAt:                    now,
		UpdatedAt:                    now,
		Status:                       workflow.Receipt.Initial,
		Notes:                        strings.TrimSpace(req.Notes),
		RequiresSupplierConfirmation: req.RequiresSupplierConfirmation,
	}
	var token string
	if req.RequiresSupplierConfirmation {
		key, secret, hash, err := newConfirmationToken(uc.cfg.BcryptCost)
		if err != nil {
			return nil, err
		}
		doc.ConfirmationKey = key
		doc.ConfirmationSecretHash = hash
		token = key + tokenSeparator + secret
	}
	if err := uc.create(ctx, doc, lines, now); err != nil {
		return nil, err
	}
	return toCreateResponse(doc, token), nil
}

func (uc *WorkflowUseCase) create(ctx context.Context, doc *entity.MovementDocument, lines []entity.MovementLine, now time.Time) error {
	if err := doc.ReplaceLines(lines); err != nil {
		return err
	}
	// El contador puede ir detrás de los números guardados (Redis vaciado o cambio de secuenciador);
	// cada intento consume un consecutivo nuevo.
	var err error
	for attempt := 1; attempt <= numberAttempts; attempt++ {
		doc.Number, err = uc.nextNumber(ctx, doc.Kind, now)
		if err != nil {
			return err
		}
		err = uc.tx.Run(ctx, func(docs repository.MovementDocumentRepository, _ repository.InventoryRepository) error {
			return docs.Create(ctx, doc)
		})
		if !errors.Is(err, domain.ErrNumberTaken) {
			break
		}
		uc.log.Warn().Str("number", doc.Number).Int("attempt", attempt).Msg("número ya asignado, se pide otro")
	}
	if err != nil {
		return err
	}
	uc.log.Info().
		Str("kind", string(doc.Kind)).
		Int64("document_id", doc.ID).
		Str("number", doc.Number).
		Str("total", doc.TotalAmount.String()).
		Int64("user_id", doc.CreatedByUserID).
		Msg("documento creado")
	return nil
}

// nextNumber <PREFIJO>-<AAAAMMDD>-<consecutivo de 6 dígitos>.
func (uc *WorkflowUseCase) nextNumber(ctx context.Context, kind entity.Kind, now time.Time) (string, error) {
	seq, err := uc.sequencer.Next(ctx, kind, now)
	if err != nil {
		return "", fmt.Errorf("numeración de %s: %w", kindName(kind), err)
	}
	prefix := uc.cfg.IssuePrefix
	if kind == entity.KindReceipt {
		prefix = uc.cfg.ReceiptPrefix
	}
	return fmt.Sprintf("%s-%s-%06d", prefix, now.Format("20060102"), seq), nil
}

// resolveLines convierte y valida las líneas; cada producto debe existir en el catálogo.
func (uc *WorkflowUseCase) resolveLines(ctx context.Context, in []dto.MovementLineRequest) ([]entity.MovementLine, error) {
	lines := make([]entity.MovementLine, len(in))
	for i, l := range in {
		lines[i] = entity.MovementLine{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}
	if err := entity.ValidateLines(lines); err != nil {
		return nil, err
	}
	for _, l := range lines {
		p, err := uc.catalog.Product(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &domain.InvalidLineError{ProductID: l.ProductID, Reason: "el producto no existe"}
		}
	}
	return lines, nil
}

const tokenSeparator = "."

// numberAttempts intentos de numeración antes de devolver el conflicto.
const numberAttempts = 5

func newConfirmationToken(cost int) (key, secret, hash string, err error) {
	key = strings.ReplaceAll(uuid.NewString(), "-", "")
	secret = strings.ReplaceAll(uuid.NewString(), "-", "")
	h, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", "", "", fmt.Errorf("hash de token: %w", err)
	}
	return key, secret, string(h), nil
}

func toCreateResponse(doc *entity.MovementDocument, token string) *dto.CreateMovementResponse {
	return &dto.CreateMovementResponse{
		ID:                doc.ID,
		Number:            doc.Number,
		Status:            string(doc.Status),
		TotalAmount:       doc.TotalAmount,
		ConfirmationToken: token,
	}
}
