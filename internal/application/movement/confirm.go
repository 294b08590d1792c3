package movement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/bodega-api/internal/application/dto"
	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/repository"
	"github.com/jhoicas/bodega-api/internal/domain/workflow"
)

// ConfirmReceiptBySupplier registra la respuesta del proveedor autenticada con el token de un solo uso.
// Solo es legal con la entrada en APPROVED. Confirmed=false queda registrado como rechazo del proveedor
// y Complete seguirá devolviendo ErrConfirmationRequired. El token se consume en ambos casos.
func (uc *WorkflowUseCase) ConfirmReceiptBySupplier(ctx context.Context, req dto.SupplierConfirmationRequest) (*dto.SupplierConfirmationResponse, error) {
	key, secret, ok := strings.Cut(strings.TrimSpace(req.Token), tokenSeparator)
	if !ok || key == "" || secret == "" {
		return nil, domain.ErrInvalidToken
	}
	if req.Confirmed == nil {
		return nil, fmt.Errorf("%w: confirmed es obligatorio", domain.ErrInvalidInput)
	}
	confirmed := *req.Confirmed
	notes := strings.TrimSpace(req.Notes)

	found, err := uc.docs.GetByConfirmationKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, domain.ErrInvalidToken
	}

	doc, err := uc.run(ctx, step{
		kind:   entity.KindReceipt,
		id:     found.ID,
		action: workflow.ActionSupplierConfirm,
		load: func(ctx context.Context, docs repository.MovementDocumentRepository) (*entity.MovementDocument, error) {
			doc, err := docs.GetByConfirmationKey(ctx, key)
			if err != nil {
				return nil, err
			}
			if doc == nil || doc.ID != found.ID || !secretMatches(doc.ConfirmationSecretHash, secret) {
				return nil, domain.ErrInvalidToken
			}
			return doc, nil
		},
		mutate: func(doc *entity.MovementDocument, now time.Time) error {
			doc.SupplierConfirmation = &entity.SupplierConfirmation{Confirmed: confirmed, At: now, Notes: notes}
			doc.ConfirmationSecretHash = ""
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &dto.SupplierConfirmationResponse{
		ID:        doc.ID,
		Number:    doc.Number,
		Status:    string(doc.Status),
		Confirmed: confirmed,
	}, nil
}

// secretMatches false también cuando el token ya se consumió (hash vacío).
func secretMatches(hash, secret string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
