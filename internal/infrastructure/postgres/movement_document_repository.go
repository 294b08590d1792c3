package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/repository"
)

var _ repository.MovementDocumentRepository = (*MovementDocumentRepo)(nil)

// MovementDocumentRepo implementación de MovementDocumentRepository sobre PostgreSQL (usable con pool o tx).
// Create y ReplaceLines escriben varias filas: deben correr dentro de TxRunner.Run.
type MovementDocumentRepo struct {
	q Querier
}

// NewMovementDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementDocumentRepository(q Querier) *MovementDocumentRepo {
	return &MovementDocumentRepo{q: q}
}

const documentColumns = `
	id, kind, number, customer_id, supplier_id, created_by_user_id, created_at, status, total_amount, notes,
	requested_delivery_date, delivery_address,
	approved_by, approved_at, approval_notes,
	prepared_by, prepared_at, preparation_notes,
	delivered_by, delivered_at, delivery_notes,
	completed_by, completed_at, completion_notes,
	rejected_by, rejected_at, rejection_reason,
	requires_supplier_confirmation, supplier_confirmed, supplier_confirmed_at, supplier_confirmation_notes,
	COALESCE(confirmation_key, ''), confirmation_secret_hash, version, updated_at`

// numberConstraint nombre que PostgreSQL da a UNIQUE (number) de movement_documents.
const numberConstraint = "movement_documents_number_key"

// Create inserta cabecera y líneas. Asigna ID y Version.
func (r *MovementDocumentRepo) Create(ctx context.Context, doc *entity.MovementDocument) error {
	query := `
		INSERT INTO movement_documents (
			kind, number, customer_id, supplier_id, created_by_user_id, created_at, status, total_amount, notes,
			requested_delivery_date, delivery_address,
			requires_supplier_confirmation, confirmation_key, confirmation_secret_hash, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1, $15)
		RETURNING id, version`
	err := r.q.QueryRow(ctx, query,
		doc.Kind, doc.Number, doc.CustomerID, doc.SupplierID, doc.CreatedByUserID, doc.CreatedAt,
		doc.Status, doc.TotalAmount, doc.Notes,
		doc.RequestedDeliveryDate, doc.DeliveryAddress,
		doc.RequiresSupplierConfirmation, nullIfEmpty(doc.ConfirmationKey), doc.ConfirmationSecretHash, doc.UpdatedAt,
	).Scan(&doc.ID, &doc.Version)
	if err != nil {
		switch {
		case isUniqueViolation(err) && constraintName(err) == numberConstraint:
			return fmt.Errorf("%w: %s", domain.ErrNumberTaken, doc.Number)
		case isUniqueViolation(err):
			return fmt.Errorf("%w: clave de confirmación repetida", domain.ErrConflict)
		case isForeignKeyViolation(err):
			return fmt.Errorf("%w: cliente o proveedor inexistente", domain.ErrNotFound)
		}
		return fmt.Errorf("insert movement document: %w", err)
	}
	return r.insertLines(ctx, doc)
}

func (r *MovementDocumentRepo) insertLines(ctx context.Context, doc *entity.MovementDocument) error {
	query := `
		INSERT INTO movement_lines (document_id, product_id, position, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`
	for i := range doc.Lines {
		l := &doc.Lines[i]
		l.DocumentID = doc.ID
		if _, err := r.q.Exec(ctx, query, doc.ID, l.ProductID, i, l.Quantity, l.UnitPrice); err != nil {
			if isForeignKeyViolation(err) {
				return &domain.InvalidLineError{ProductID: l.ProductID, Reason: "el producto no existe"}
			}
			return fmt.Errorf("insert movement line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene el documento con sus líneas. nil, nil si no existe uno de ese tipo.
func (r *MovementDocumentRepo) GetByID(ctx context.Context, kind entity.Kind, id int64) (*entity.MovementDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM movement_documents WHERE id = $1 AND kind = $2`
	return r.getOne(ctx, query, id, kind)
}

// GetByConfirmationKey obtiene la entrada asociada a la parte pública del token.
func (r *MovementDocumentRepo) GetByConfirmationKey(ctx context.Context, key string) (*entity.MovementDocument, error) {
	if key == "" {
		return nil, nil
	}
	query := `SELECT ` + documentColumns + ` FROM movement_documents WHERE confirmation_key = $1 AND kind = 'RECEIPT'`
	return r.getOne(ctx, query, key)
}

func (r *MovementDocumentRepo) getOne(ctx context.Context, query string, args ...any) (*entity.MovementDocument, error) {
	doc, err := scanDocument(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement document: %w", err)
	}
	lines, err := r.lines(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines
	return doc, nil
}

func (r *MovementDocumentRepo) lines(ctx context.Context, documentID int64) ([]entity.MovementLine, error) {
	query := `
		SELECT document_id, product_id, quantity, unit_price
		FROM movement_lines WHERE document_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list movement lines: %w", err)
	}
	defer rows.Close()
	var list []entity.MovementLine
	for rows.Next() {
		var l entity.MovementLine
		if err := rows.Scan(&l.DocumentID, &l.ProductID, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan movement line: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// UpdateWorkflow persiste estado, sellos y confirmación del proveedor si la versión no cambió.
func (r *MovementDocumentRepo) UpdateWorkflow(ctx context.Context, doc *entity.MovementDocument) error {
	a, p, d, c, x := stampArgs(doc.Approval), stampArgs(doc.Preparation), stampArgs(doc.Delivery),
		stampArgs(doc.Completion), stampArgs(doc.Rejection)
	var confirmed *bool
	var confirmedAt *time.Time
	var confirmationNotes *string
	if sc := doc.SupplierConfirmation; sc != nil {
		confirmed, confirmedAt, confirmationNotes = &sc.Confirmed, &sc.At, &sc.Notes
	}
	query := `
		UPDATE movement_documents
		SET status = $3, delivery_address = $4,
		    approved_by  = $5,  approved_at  = $6,  approval_notes    = $7,
		    prepared_by  = $8,  prepared_at  = $9,  preparation_notes = $10,
		    delivered_by = $11, delivered_at = $12, delivery_notes    = $13,
		    completed_by = $14, completed_at = $15, completion_notes  = $16,
		    rejected_by  = $17, rejected_at  = $18, rejection_reason  = $19,
		    supplier_confirmed = $20, supplier_confirmed_at = $21, supplier_confirmation_notes = $22,
		    confirmation_secret_hash = $23,
		    updated_at = $24, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version`
	err := r.q.QueryRow(ctx, query,
		doc.ID, doc.Version, doc.Status, doc.DeliveryAddress,
		a.userID, a.at, a.notes,
		p.userID, p.at, p.notes,
		d.userID, d.at, d.notes,
		c.userID, c.at, c.notes,
		x.userID, x.at, x.notes,
		confirmed, confirmedAt, confirmationNotes,
		doc.ConfirmationSecretHash,
		doc.UpdatedAt,
	).Scan(&doc.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: el documento %s cambió desde su lectura", domain.ErrConflict, doc.Number)
		}
		if isCheckViolation(err) {
			return &domain.InvariantError{Detail: fmt.Sprintf("la base rechazó el estado de %s: %v", doc.Number, err)}
		}
		return fmt.Errorf("update movement workflow: %w", err)
	}
	return nil
}

// ReplaceLines reemplaza líneas, total y notas si la versión no cambió.
func (r *MovementDocumentRepo) ReplaceLines(ctx context.Context, doc *entity.MovementDocument) error {
	query := `
		UPDATE movement_documents
		SET total_amount = $3, notes = $4, updated_at = $5, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version`
	err := r.q.QueryRow(ctx, query, doc.ID, doc.Version, doc.TotalAmount, doc.Notes, doc.UpdatedAt).Scan(&doc.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: el documento %s cambió desde su lectura", domain.ErrConflict, doc.Number)
		}
		return fmt.Errorf("update movement lines header: %w", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM movement_lines WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("delete movement lines: %w", err)
	}
	return r.insertLines(ctx, doc)
}

// NextSequence siguiente valor de la secuencia de numeración del tipo.
func (r *MovementDocumentRepo) NextSequence(ctx context.Context, kind entity.Kind) (int64, error) {
	seq := "goods_issue_number_seq"
	if kind == entity.KindReceipt {
		seq = "goods_receipt_number_seq"
	}
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval($1::regclass)`, seq).Scan(&n); err != nil {
		return 0, fmt.Errorf("nextval %s: %w", seq, err)
	}
	return n, nil
}

type nullableStamp struct {
	userID *int64
	at     *time.Time
	notes  *string
}

func stampArgs(s *entity.Stamp) nullableStamp {
	if s == nil {
		return nullableStamp{}
	}
	return nullableStamp{userID: &s.UserID, at: &s.At, notes: &s.Notes}
}

func (n nullableStamp) stamp() *entity.Stamp {
	if n.userID == nil || n.at == nil {
		return nil
	}
	s := &entity.Stamp{UserID: *n.userID, At: *n.at}
	if n.notes != nil {
		s.Notes = *n.notes
	}
	return s
}

func scanDocument(row pgx.Row) (*entity.MovementDocument, error) {
	var (
		d                 entity.MovementDocument
		a, p, dl, c, x    nullableStamp
		confirmed         *bool
		confirmedAt       *time.Time
		confirmationNotes *string
	)
	err := row.Scan(
		&d.ID, &d.Kind, &d.Number, &d.CustomerID, &d.SupplierID, &d.CreatedByUserID, &d.CreatedAt,
		&d.Status, &d.TotalAmount, &d.Notes,
		&d.RequestedDeliveryDate, &d.DeliveryAddress,
		&a.userID, &a.at, &a.notes,
		&p.userID, &p.at, &p.notes,
		&dl.userID, &dl.at, &dl.notes,
		&c.userID, &c.at, &c.notes,
		&x.userID, &x.at, &x.notes,
		&d.RequiresSupplierConfirmation, &confirmed, &confirmedAt, &confirmationNotes,
		&d.ConfirmationKey, &d.ConfirmationSecretHash, &d.Version, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Approval, d.Preparation, d.Delivery, d.Completion, d.Rejection = a.stamp(), p.stamp(), dl.stamp(), c.stamp(), x.stamp()
	if confirmed != nil && confirmedAt != nil {
		d.SupplierConfirmation = &entity.SupplierConfirmation{Confirmed: *confirmed, At: *confirmedAt}
		if confirmationNotes != nil {
			d.SupplierConfirmation.Notes = *confirmationNotes
		}
	}
	return &d, nil
}
