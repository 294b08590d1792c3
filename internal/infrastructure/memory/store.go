// Package memory adaptador en memoria de los repositorios de documentos, inventario y catálogo.
// Run serializa las transacciones con un único mutex y restaura una copia del estado si fn falla,
// así que cumple el contrato del TxRunner de PostgreSQL. Lo usan los tests del motor y de HTTP.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/repository"
)

var (
	_ repository.MovementDocumentRepository = (*documentRepo)(nil)
	_ repository.InventoryRepository        = (*inventoryRepo)(nil)
)

type state struct {
	docs      map[int64]*entity.MovementDocument
	stock     map[int64]entity.InventoryRecord
	products  map[int64]entity.ProductRef
	suppliers map[int64]bool
	customers map[int64]bool
	lastID    int64
	seq       map[entity.Kind]int64
}

func (s *state) clone() *state {
	c := &state{
		docs:      make(map[int64]*entity.MovementDocument, len(s.docs)),
		stock:     make(map[int64]entity.InventoryRecord, len(s.stock)),
		products:  s.products,
		suppliers: s.suppliers,
		customers: s.customers,
		lastID:    s.lastID,
		seq:       make(map[entity.Kind]int64, len(s.seq)),
	}
	for id, d := range s.docs {
		c.docs[id] = d.Clone()
	}
	for id, r := range s.stock {
		c.stock[id] = r
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	return c
}

// Store estado compartido del adaptador.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: &state{
		docs:      make(map[int64]*entity.MovementDocument),
		stock:     make(map[int64]entity.InventoryRecord),
		products:  make(map[int64]entity.ProductRef),
		suppliers: make(map[int64]bool),
		customers: make(map[int64]bool),
		seq:       make(map[entity.Kind]int64),
	}}
}

// AddProduct registra un producto en el catálogo.
func (s *Store) AddProduct(p entity.ProductRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = p
}

// AddSupplier registra un proveedor.
func (s *Store) AddSupplier(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.suppliers[id] = true
}

// AddCustomer registra un cliente.
func (s *Store) AddCustomer(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.customers[id] = true
}

// SetStock fija la existencia de un producto ya registrado.
func (s *Store) SetStock(productID, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.stock[productID] = entity.InventoryRecord{ProductID: productID, Quantity: qty, LastUpdatedAt: time.Now()}
}

// Run ejecuta fn con repositorios atados a una transacción serializable. Si fn devuelve error
// (o el contexto ya está cancelado) el estado vuelve a como estaba antes de empezar.
func (s *Store) Run(ctx context.Context, fn func(
	docs repository.MovementDocumentRepository,
	stock repository.InventoryRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	snapshot := s.st.clone()
	if err := fn(&documentRepo{s: s, inTx: true}, &inventoryRepo{s: s, inTx: true}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Documents repositorio de documentos fuera de transacción.
func (s *Store) Documents() repository.MovementDocumentRepository {
	return &documentRepo{s: s}
}

// Inventory repositorio de existencias fuera de transacción.
func (s *Store) Inventory() repository.InventoryRepository {
	return &inventoryRepo{s: s}
}

// Product implementa el catálogo de productos.
func (s *Store) Product(_ context.Context, id int64) (*entity.ProductRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// SupplierExists implementa el catálogo de proveedores.
func (s *Store) SupplierExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.suppliers[id], nil
}

// CustomerExists implementa el catálogo de clientes.
func (s *Store) CustomerExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.customers[id], nil
}

// locker toma el mutex salvo cuando la llamada ocurre dentro de Run (que ya lo tiene).
type locker struct {
	s    *Store
	inTx bool
}

func (l locker) lock() func() {
	if l.inTx {
		return func() {}
	}
	l.s.mu.Lock()
	return l.s.mu.Unlock
}

// ─── Documentos ─────────────────────────────────────────────────────────────

type documentRepo locker

func (r *documentRepo) lock() func() { return locker(*r).lock() }

func (r *documentRepo) Create(_ context.Context, doc *entity.MovementDocument) error {
	defer r.lock()()
	for _, d := range r.s.st.docs {
		if d.Number == doc.Number {
			return fmt.Errorf("%w: %s", domain.ErrNumberTaken, doc.Number)
		}
		if doc.ConfirmationKey != "" && d.ConfirmationKey == doc.ConfirmationKey {
			return fmt.Errorf("%w: clave de confirmación repetida", domain.ErrConflict)
		}
	}
	r.s.st.lastID++
	doc.ID = r.s.st.lastID
	doc.Version = 1
	for i := range doc.Lines {
		doc.Lines[i].DocumentID = doc.ID
	}
	r.s.st.docs[doc.ID] = doc.Clone()
	return nil
}

func (r *documentRepo) GetByID(_ context.Context, kind entity.Kind, id int64) (*entity.MovementDocument, error) {
	defer r.lock()()
	d, ok := r.s.st.docs[id]
	if !ok || d.Kind != kind {
		return nil, nil
	}
	return d.Clone(), nil
}

func (r *documentRepo) GetByConfirmationKey(_ context.Context, key string) (*entity.MovementDocument, error) {
	defer r.lock()()
	if key == "" {
		return nil, nil
	}
	for _, d := range r.s.st.docs {
		if d.ConfirmationKey == key {
			return d.Clone(), nil
		}
	}
	return nil, nil
}

func (r *documentRepo) UpdateWorkflow(_ context.Context, doc *entity.MovementDocument) error {
	defer r.lock()()
	cur, err := r.current(doc)
	if err != nil {
		return err
	}
	next := cur.Clone()
	next.Status = doc.Status
	next.DeliveryAddress = doc.DeliveryAddress
	next.Approval = doc.Approval
	next.Preparation = doc.Preparation
	next.Delivery = doc.Delivery
	next.Completion = doc.Completion
	next.Rejection = doc.Rejection
	next.SupplierConfirmation = doc.SupplierConfirmation
	next.ConfirmationSecretHash = doc.ConfirmationSecretHash
	next.UpdatedAt = doc.UpdatedAt
	next.Version++
	r.s.st.docs[doc.ID] = next.Clone()
	doc.Version = next.Version
	return nil
}

func (r *documentRepo) ReplaceLines(_ context.Context, doc *entity.MovementDocument) error {
	defer r.lock()()
	cur, err := r.current(doc)
	if err != nil {
		return err
	}
	next := cur.Clone()
	next.Lines = append([]entity.MovementLine(nil), doc.Lines...)
	next.TotalAmount = doc.TotalAmount
	next.Notes = doc.Notes
	next.UpdatedAt = doc.UpdatedAt
	next.Version++
	r.s.st.docs[doc.ID] = next
	doc.Version = next.Version
	return nil
}

// current compara versión (CAS): si la fila cambió desde la lectura devuelve ErrConflict.
func (r *documentRepo) current(doc *entity.MovementDocument) (*entity.MovementDocument, error) {
	cur, ok := r.s.st.docs[doc.ID]
	if !ok || cur.Kind != doc.Kind {
		return nil, fmt.Errorf("%w: documento %d", domain.ErrNotFound, doc.ID)
	}
	if cur.Version != doc.Version {
		return nil, fmt.Errorf("%w: el documento %s cambió (versión %d, esperada %d)",
			domain.ErrConflict, cur.Number, cur.Version, doc.Version)
	}
	return cur, nil
}

func (r *documentRepo) NextSequence(_ context.Context, kind entity.Kind) (int64, error) {
	defer r.lock()()
	r.s.st.seq[kind]++
	return r.s.st.seq[kind], nil
}

// ─── Inventario ─────────────────────────────────────────────────────────────

type inventoryRepo locker

func (r *inventoryRepo) lock() func() { return locker(*r).lock() }

func (r *inventoryRepo) Get(_ context.Context, productID int64) (*entity.InventoryRecord, error) {
	defer r.lock()()
	rec, ok := r.s.st.stock[productID]
	if !ok {
		return &entity.InventoryRecord{ProductID: productID}, nil
	}
	return &rec, nil
}

func (r *inventoryRepo) Increase(_ context.Context, productID, qty int64, at time.Time) (*entity.InventoryRecord, error) {
	defer r.lock()()
	if _, ok := r.s.st.products[productID]; !ok {
		return nil, fmt.Errorf("%w: producto %d", domain.ErrNotFound, productID)
	}
	rec := r.s.st.stock[productID]
	rec.ProductID = productID
	rec.Quantity += qty
	rec.LastUpdatedAt = at
	r.s.st.stock[productID] = rec
	return &rec, nil
}

func (r *inventoryRepo) DecreaseIfAvailable(_ context.Context, productID, qty int64, at time.Time) (*entity.InventoryRecord, error) {
	defer r.lock()()
	rec := r.s.st.stock[productID]
	if rec.Quantity < qty {
		return nil, &domain.InsufficientStockError{ProductID: productID, Requested: qty, Available: rec.Quantity}
	}
	rec.ProductID = productID
	rec.Quantity -= qty
	rec.LastUpdatedAt = at
	r.s.st.stock[productID] = rec
	return &rec, nil
}
