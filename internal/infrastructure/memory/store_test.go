package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/repository"
	"github.com/jhoicas/bodega-api/internal/infrastructure/memory"
)

func newDoc(number string) *entity.MovementDocument {
	doc := &entity.MovementDocument{Kind: entity.KindIssue, Number: number, Status: entity.StatusNew}
	_ = doc.ReplaceLines([]entity.MovementLine{{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(1)}})
	return doc
}

func TestDocuments_CreateYVersion(t *testing.T) {
	s := memory.NewStore()
	docs := s.Documents()
	ctx := context.Background()

	doc := newDoc("GI-1")
	require.NoError(t, docs.Create(ctx, doc))
	assert.Equal(t, int64(1), doc.ID)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, int64(1), doc.Lines[0].DocumentID)

	assert.ErrorIs(t, docs.Create(ctx, newDoc("GI-1")), domain.ErrNumberTaken, "número único")

	got, err := docs.GetByID(ctx, entity.KindReceipt, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "el tipo forma parte de la identidad")
}

func TestDocuments_UpdateWorkflowCAS(t *testing.T) {
	s := memory.NewStore()
	docs := s.Documents()
	ctx := context.Background()
	require.NoError(t, docs.Create(ctx, newDoc("GI-1")))

	a, err := docs.GetByID(ctx, entity.KindIssue, 1)
	require.NoError(t, err)
	b, err := docs.GetByID(ctx, entity.KindIssue, 1)
	require.NoError(t, err)

	a.Status = entity.StatusApproved
	a.Approval = &entity.Stamp{UserID: 1, At: time.Now()}
	require.NoError(t, docs.UpdateWorkflow(ctx, a))
	assert.Equal(t, 2, a.Version)

	b.Status = entity.StatusRejected
	assert.ErrorIs(t, docs.UpdateWorkflow(ctx, b), domain.ErrConflict)

	got, err := docs.GetByID(ctx, entity.KindIssue, 1)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, got.Status)
}

func TestRun_RollbackRestauraEstado(t *testing.T) {
	s := memory.NewStore()
	s.AddProduct(entity.ProductRef{ID: 1})
	s.SetStock(1, 5)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Run(ctx, func(docs repository.MovementDocumentRepository, stock repository.InventoryRepository) error {
		if err := docs.Create(ctx, newDoc("GI-1")); err != nil {
			return err
		}
		if _, err := stock.DecreaseIfAvailable(ctx, 1, 5, time.Now()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	rec, err := s.Inventory().Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.Quantity)

	got, err := s.Documents().GetByID(ctx, entity.KindIssue, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInventory_DecreaseIfAvailable(t *testing.T) {
	s := memory.NewStore()
	s.AddProduct(entity.ProductRef{ID: 1})
	s.SetStock(1, 2)
	inv := s.Inventory()
	ctx := context.Background()

	_, err := inv.DecreaseIfAvailable(ctx, 1, 3, time.Now())
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	rec, err := inv.DecreaseIfAvailable(ctx, 1, 2, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Quantity)
}

func TestCatalogo(t *testing.T) {
	s := memory.NewStore()
	s.AddProduct(entity.ProductRef{ID: 1, Name: "Tornillo", Unit: "UND"})
	s.AddSupplier(5)
	ctx := context.Background()

	p, err := s.Product(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Tornillo", p.Name)

	p, err = s.Product(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, p)

	ok, err := s.SupplierExists(ctx, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CustomerExists(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}
