package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodega-api/internal/domain"
)

// Kind tipo de documento de movimiento.
type Kind string

const (
	KindIssue   Kind = "ISSUE"   // salida de mercancía
	KindReceipt Kind = "RECEIPT" // entrada de mercancía
)

// IsValid indica si el tipo es conocido.
func (k Kind) IsValid() bool {
	return k == KindIssue || k == KindReceipt
}

// Status estado del documento dentro de su flujo.
type Status string

// Estados de los flujos de salida y entrada.
const (
	StatusNew       Status = "NEW"       // salida recién creada (editable)
	StatusPending   Status = "PENDING"   // entrada recién creada (editable)
	StatusApproved  Status = "APPROVED"  // aprobada por un manager
	StatusPreparing Status = "PREPARING" // salida en alistamiento
	StatusDelivered Status = "DELIVERED" // salida entregada, pendiente de cierre
	StatusCompleted Status = "COMPLETED" // terminal: stock ajustado
	StatusRejected  Status = "REJECTED"  // terminal
)

// Stamp sello de auditoría de una transición: quién, cuándo y notas. Se escribe una sola vez.
type Stamp struct {
	UserID int64
	At     time.Time
	Notes  string
}

// SupplierConfirmation respuesta del proveedor a una entrada que la exige.
type SupplierConfirmation struct {
	Confirmed bool
	At        time.Time
	Notes     string
}

// MovementLine línea de un documento; (DocumentID, ProductID) es su identidad.
type MovementLine struct {
	DocumentID int64
	ProductID  int64
	Quantity   int64
	UnitPrice  decimal.Decimal
}

// Subtotal Quantity × UnitPrice; siempre derivado, nunca almacenado aparte.
func (l MovementLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// PriceScale decimales que admite un precio unitario; coincide con NUMERIC(18,4) de la base.
const PriceScale int32 = 4

// SumSubtotals suma los subtotales de las líneas.
func SumSubtotals(lines []MovementLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ValidateLines valida cada línea (producto, cantidad > 0, precio > 0 con a lo sumo PriceScale
// decimales, sin productos repetidos).
// Devuelve el primer *domain.InvalidLineError encontrado.
func ValidateLines(lines []MovementLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: el documento requiere al menos una línea", domain.ErrInvalidInput)
	}
	seen := make(map[int64]struct{}, len(lines))
	for _, l := range lines {
		switch {
		case l.ProductID <= 0:
			return &domain.InvalidLineError{ProductID: l.ProductID, Reason: "producto requerido"}
		case l.Quantity <= 0:
			return &domain.InvalidLineError{ProductID: l.ProductID, Reason: "la cantidad debe ser mayor que cero"}
		case !l.UnitPrice.IsPositive():
			return &domain.InvalidLineError{ProductID: l.ProductID, Reason: "el precio unitario debe ser mayor que cero"}
		case !l.UnitPrice.Equal(l.UnitPrice.Truncate(PriceScale)):
			return &domain.InvalidLineError{ProductID: l.ProductID, Reason: fmt.Sprintf("el precio unitario admite hasta %d decimales", PriceScale)}
		}
		if _, dup := seen[l.ProductID]; dup {
			return &domain.InvalidLineError{ProductID: l.ProductID, Reason: "producto repetido en el documento"}
		}
		seen[l.ProductID] = struct{}{}
	}
	return nil
}

// MovementDocument cabecera común de GoodsIssue y GoodsReceipt.
// CustomerID aplica a salidas (nil = venta directa); SupplierID es obligatorio en entradas.
type MovementDocument struct {
	ID              int64
	Kind            Kind
	Number          string
	CustomerID      *int64
	SupplierID      *int64
	CreatedByUserID int64
	CreatedAt       time.Time
	Status          Status
	TotalAmount     decimal.Decimal
	Notes           string
	Lines           []MovementLine

	// Solo salidas.
	RequestedDeliveryDate *time.Time
	DeliveryAddress       string

	// Sellos por transición, en orden de flujo.
	Approval    *Stamp
	Preparation *Stamp
	Delivery    *Stamp
	Completion  *Stamp
	Rejection   *Stamp

	// Solo entradas.
	RequiresSupplierConfirmation bool
	SupplierConfirmation         *SupplierConfirmation
	ConfirmationKey              string // parte pública del token, única
	ConfirmationSecretHash       string // bcrypt del secreto; vacío cuando el token ya se usó

	Version   int
	UpdatedAt time.Time
}

// ReplaceLines reemplaza las líneas y recalcula TotalAmount. Si alguna línea es inválida no modifica nada.
func (d *MovementDocument) ReplaceLines(lines []MovementLine) error {
	if err := ValidateLines(lines); err != nil {
		return err
	}
	next := make([]MovementLine, len(lines))
	for i, l := range lines {
		l.DocumentID = d.ID
		next[i] = l
	}
	d.Lines = next
	d.TotalAmount = SumSubtotals(next)
	return nil
}

// IsConfirmed true cuando el proveedor confirmó la entrada.
func (d *MovementDocument) IsConfirmed() bool {
	return d.SupplierConfirmation != nil && d.SupplierConfirmation.Confirmed
}

// StampsInOrder verifica que ningún sello posterior exista sin el anterior.
func (d *MovementDocument) StampsInOrder() bool {
	chain := []*Stamp{d.Approval, d.Completion}
	if d.Kind == KindIssue {
		chain = []*Stamp{d.Approval, d.Preparation, d.Delivery, d.Completion}
	}
	for i := 1; i < len(chain); i++ {
		if chain[i] != nil && chain[i-1] == nil {
			return false
		}
	}
	return true
}

// Clone copia profunda (líneas, sellos y punteros opcionales).
func (d *MovementDocument) Clone() *MovementDocument {
	if d == nil {
		return nil
	}
	c := *d
	c.Lines = append([]MovementLine(nil), d.Lines...)
	c.CustomerID = cloneInt64(d.CustomerID)
	c.SupplierID = cloneInt64(d.SupplierID)
	if d.RequestedDeliveryDate != nil {
		t := *d.RequestedDeliveryDate
		c.RequestedDeliveryDate = &t
	}
	c.Approval = cloneStamp(d.Approval)
	c.Preparation = cloneStamp(d.Preparation)
	c.Delivery = cloneStamp(d.Delivery)
	c.Completion = cloneStamp(d.Completion)
	c.Rejection = cloneStamp(d.Rejection)
	if d.SupplierConfirmation != nil {
		sc := *d.SupplierConfirmation
		c.SupplierConfirmation = &sc
	}
	return &c
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStamp(s *Stamp) *Stamp {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
