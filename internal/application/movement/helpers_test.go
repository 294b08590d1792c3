package movement_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/bodega-api/internal/application/dto"
	"github.com/jhoicas/bodega-api/internal/application/movement"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/workflow"
	"github.com/jhoicas/bodega-api/internal/infrastructure/memory"
)

const (
	productA   int64 = 1
	productB   int64 = 2
	productX   int64 = 10
	supplierID int64 = 50
	customerID int64 = 70
)

var (
	manager  = entity.Actor{UserID: 1, Role: entity.RoleManager}
	employee = entity.Actor{UserID: 2, Role: entity.RoleEmployee}
	admin    = entity.Actor{UserID: 3, Role: entity.RoleAdmin}

	fixedNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
)

type fixture struct {
	store *memory.Store
	uc    *movement.WorkflowUseCase
}

type option func(*movement.Deps)

func withNotifier(n movement.Notifier) option {
	return func(d *movement.Deps) { d.Notifier = n }
}

func withCatalog(c movement.Catalog) option {
	return func(d *movement.Deps) { d.Catalog = c }
}

func withLocker(l movement.DocumentLocker) option {
	return func(d *movement.Deps) { d.Locker = l }
}

func withSequencer(s movement.Sequencer) option {
	return func(d *movement.Deps) { d.Sequencer = s }
}

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.ProductRef{ID: productA, Name: "Tornillo 1/4", Unit: "UND"})
	store.AddProduct(entity.ProductRef{ID: productB, Name: "Cable #12", Unit: "MTS"})
	store.AddProduct(entity.ProductRef{ID: productX, Name: "Taladro", Unit: "UND"})
	store.AddSupplier(supplierID)
	store.AddCustomer(customerID)

	deps := movement.Deps{
		Tx:        store,
		Documents: store.Documents(),
		Catalog:   store,
		Clock:     func() time.Time { return fixedNow },
	}
	for _, o := range opts {
		o(&deps)
	}
	uc := movement.NewWorkflowUseCase(deps, movement.Config{BcryptCost: bcrypt.MinCost})
	return &fixture{store: store, uc: uc}
}

func lineReq(productID, qty int64, price string) dto.MovementLineRequest {
	return dto.MovementLineRequest{ProductID: productID, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func (f *fixture) stock(t *testing.T, productID int64) int64 {
	t.Helper()
	rec, err := f.store.Inventory().Get(context.Background(), productID)
	require.NoError(t, err)
	return rec.Quantity
}

func (f *fixture) createIssue(t *testing.T, lines ...dto.MovementLineRequest) int64 {
	t.Helper()
	res, err := f.uc.CreateIssue(context.Background(), employee, dto.CreateIssueRequest{Lines: lines})
	require.NoError(t, err)
	return res.ID
}

func (f *fixture) createReceipt(t *testing.T, requiresConfirmation bool, lines ...dto.MovementLineRequest) *dto.CreateMovementResponse {
	t.Helper()
	res, err := f.uc.CreateReceipt(context.Background(), employee, dto.CreateReceiptRequest{
		SupplierID:                   supplierID,
		Lines:                        lines,
		RequiresSupplierConfirmation: requiresConfirmation,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) issue(t *testing.T, id int64, action workflow.Action, actor entity.Actor) {
	t.Helper()
	_, err := f.uc.ApplyIssueAction(context.Background(), id, action, actor, dto.ActionRequest{Notes: string(action)})
	require.NoError(t, err, "%s sobre salida %d", action, id)
}

func (f *fixture) receipt(t *testing.T, id int64, action workflow.Action, actor entity.Actor) {
	t.Helper()
	_, err := f.uc.ApplyReceiptAction(context.Background(), id, action, actor, dto.ActionRequest{Notes: string(action)})
	require.NoError(t, err, "%s sobre entrada %d", action, id)
}

// deliveredIssue lleva una salida nueva hasta DELIVERED.
func (f *fixture) deliveredIssue(t *testing.T, lines ...dto.MovementLineRequest) int64 {
	t.Helper()
	id := f.createIssue(t, lines...)
	f.issue(t, id, workflow.ActionApprove, manager)
	f.issue(t, id, workflow.ActionStartPreparing, employee)
	f.issue(t, id, workflow.ActionDeliver, employee)
	return id
}

func confirmed(v bool) *bool { return &v }
