package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementLineRequest línea de una salida o entrada. El precio se valida en dominio (decimal > 0).
type MovementLineRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  int64           `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateIssueRequest body para POST /api/issues. CustomerID nil = venta directa.
type CreateIssueRequest struct {
	CustomerID            *int64                `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	Lines                 []MovementLineRequest `json:"lines" validate:"required,min=1,dive"`
	RequestedDeliveryDate *time.Time            `json:"requested_delivery_date,omitempty"`
	DeliveryAddress       string                `json:"delivery_address,omitempty" validate:"max=255"`
	Notes                 string                `json:"notes,omitempty" validate:"max=1000"`
}

// CreateReceiptRequest body para POST /api/receipts.
type CreateReceiptRequest struct {
	SupplierID                   int64                 `json:"supplier_id" validate:"required,gt=0"`
	Lines                        []MovementLineRequest `json:"lines" validate:"required,min=1,dive"`
	RequiresSupplierConfirmation bool                  `json:"requires_supplier_confirmation"`
	Notes                        string                `json:"notes,omitempty" validate:"max=1000"`
}

// CreateMovementResponse respuesta de creación. ConfirmationToken solo se entrega una vez,
// en entradas que exigen confirmación del proveedor.
type CreateMovementResponse struct {
	ID                int64           `json:"id"`
	Number            string          `json:"number"`
	Status            string          `json:"status"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	ConfirmationToken string          `json:"confirmation_token,omitempty"`
}

// SetLinesRequest body para PUT /api/{issues|receipts}/:id/lines. Notes nil = no se modifica.
type SetLinesRequest struct {
	Lines []MovementLineRequest `json:"lines" validate:"required,min=1,dive"`
	Notes *string               `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ActionRequest payload de una acción de flujo. Reject exige Notes (motivo).
// DeliveryAddress solo aplica a Deliver y reemplaza la dirección registrada al crear.
type ActionRequest struct {
	Notes           string `json:"notes,omitempty" validate:"max=1000"`
	DeliveryAddress string `json:"delivery_address,omitempty" validate:"max=255"`
}

// ActionResponse resultado de una acción aplicada.
type ActionResponse struct {
	ID      int64  `json:"id"`
	Number  string `json:"number"`
	Status  string `json:"status"`
	Version int    `json:"version"`
}

// SupplierConfirmationRequest body para POST /api/receipts/confirmations (sin JWT, autenticado por token).
type SupplierConfirmationRequest struct {
	Token     string `json:"token" validate:"required"`
	Confirmed *bool  `json:"confirmed" validate:"required"`
	Notes     string `json:"notes,omitempty" validate:"max=1000"`
}

// SupplierConfirmationResponse acuse de la confirmación.
type SupplierConfirmationResponse struct {
	ID        int64  `json:"id"`
	Number    string `json:"number"`
	Status    string `json:"status"`
	Confirmed bool   `json:"confirmed"`
}

// StampDTO sello de una transición (quién, cuándo, notas).
type StampDTO struct {
	UserID int64     `json:"user_id"`
	At     time.Time `json:"at"`
	Notes  string    `json:"notes,omitempty"`
}

// SupplierConfirmationDTO respuesta registrada del proveedor.
type SupplierConfirmationDTO struct {
	Confirmed bool      `json:"confirmed"`
	At        time.Time `json:"at"`
	Notes     string    `json:"notes,omitempty"`
}

// MovementLineResponse línea con datos del catálogo.
type MovementLineResponse struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// MovementDocumentResponse salida o entrada completa (GET /api/{issues|receipts}/:id).
type MovementDocumentResponse struct {
	ID              int64                  `json:"id"`
	Kind            string                 `json:"kind"`
	Number          string                 `json:"number"`
	CustomerID      *int64                 `json:"customer_id,omitempty"`
	SupplierID      *int64                 `json:"supplier_id,omitempty"`
	CreatedByUserID int64                  `json:"created_by_user_id"`
	CreatedAt       time.Time              `json:"created_at"`
	Status          string                 `json:"status"`
	TotalAmount     decimal.Decimal        `json:"total_amount"`
	Notes           string                 `json:"notes,omitempty"`
	Lines           []MovementLineResponse `json:"lines"`

	RequestedDeliveryDate *time.Time `json:"requested_delivery_date,omitempty"`
	DeliveryAddress       string     `json:"delivery_address,omitempty"`

	Approval    *StampDTO `json:"approval,omitempty"`
	Preparation *StampDTO `json:"preparation,omitempty"`
	Delivery    *StampDTO `json:"delivery,omitempty"`
	Completion  *StampDTO `json:"completion,omitempty"`
	Rejection   *StampDTO `json:"rejection,omitempty"`

	RequiresSupplierConfirmation bool                     `json:"requires_supplier_confirmation,omitempty"`
	SupplierConfirmation         *SupplierConfirmationDTO `json:"supplier_confirmation,omitempty"`

	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkflowStatusResponse estado derivado para pintar las acciones disponibles.
// Los bloques por etapa solo aparecen cuando la transición correspondiente ya ocurrió.
type WorkflowStatusResponse struct {
	DocumentID       int64    `json:"document_id"`
	Kind             string   `json:"kind"`
	Number           string   `json:"number"`
	CurrentStatus    string   `json:"current_status"`
	AvailableActions []string `json:"available_actions"`
	IsTerminal       bool     `json:"is_terminal"`

	CanEdit           bool `json:"can_edit"`
	CanApprove        bool `json:"can_approve"`
	CanReject         bool `json:"can_reject"`
	CanStartPreparing bool `json:"can_start_preparing"`
	CanDeliver        bool `json:"can_deliver"`
	CanComplete       bool `json:"can_complete"`
	CanConfirm        bool `json:"can_confirm"`

	Approval    *StampDTO `json:"approval,omitempty"`
	Preparation *StampDTO `json:"preparation,omitempty"`
	Delivery    *StampDTO `json:"delivery,omitempty"`
	Completion  *StampDTO `json:"completion,omitempty"`
	Rejection   *StampDTO `json:"rejection,omitempty"`

	DeliveryAddress              string                   `json:"delivery_address,omitempty"`
	RequiresSupplierConfirmation bool                     `json:"requires_supplier_confirmation,omitempty"`
	AwaitingSupplierConfirmation bool                     `json:"awaiting_supplier_confirmation,omitempty"`
	SupplierConfirmation         *SupplierConfirmationDTO `json:"supplier_confirmation,omitempty"`
}
