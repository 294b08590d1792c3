package movement_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/bodega-api/internal/application/dto"
	"github.com/jhoicas/bodega-api/internal/application/movement"
	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/repository"
	"github.com/jhoicas/bodega-api/internal/domain/workflow"
)

// Dos salidas que juntas superan la existencia: exactamente una se completa y el stock nunca es negativo.
func TestCompletarSalidasConcurrentes_SinSobreventa(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t)
		f.store.SetStock(productX, 5)
		q := []int64{3, 4}
		ids := []int64{
			f.deliveredIssue(t, lineReq(productX, q[0], "1")),
			f.deliveredIssue(t, lineReq(productX, q[1], "1")),
		}

		errs := make([]error, len(ids))
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i, id := range ids {
			wg.Add(1)
			go func(i int, id int64) {
				defer wg.Done()
				<-start
				_, errs[i] = f.uc.ApplyIssueAction(context.Background(), id, workflow.ActionComplete, employee, dto.ActionRequest{})
			}(i, id)
		}
		close(start)
		wg.Wait()

		winner := -1
		for i, err := range errs {
			if err == nil {
				require.Equal(t, -1, winner, "solo una salida puede completarse")
				winner = i
				continue
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}
		require.NotEqual(t, -1, winner)
		assert.Equal(t, 5-q[winner], f.stock(t, productX))
	}
}

// Varios managers aprueban la misma entrada a la vez: una gana, el resto recibe IllegalTransition o Conflict.
func TestAprobacionesConcurrentes_UnaGana(t *testing.T) {
	f := newFixture(t)
	res := f.createReceipt(t, false, lineReq(productA, 1, "1"))

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			actor := entity.Actor{UserID: uid, Role: entity.RoleManager}
			_, err := f.uc.ApplyReceiptAction(context.Background(), res.ID, workflow.ActionApprove, actor, dto.ActionRequest{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrIllegalTransition), errors.Is(err, domain.ErrConflict):
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}(int64(100 + i))
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, rejected)

	doc, err := f.uc.GetDocument(context.Background(), entity.KindReceipt, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version, "una sola escritura de flujo")
}

// Entradas y salidas concurrentes sobre el mismo producto: el saldo final es exacto.
func TestEntradasYSalidasConcurrentes_SaldoExacto(t *testing.T) {
	f := newFixture(t)
	f.store.SetStock(productA, 10)

	var issues, receipts []int64
	for i := 0; i < 5; i++ {
		issues = append(issues, f.deliveredIssue(t, lineReq(productA, 2, "1")))
		r := f.createReceipt(t, false, lineReq(productA, 3, "1"))
		f.receipt(t, r.ID, workflow.ActionApprove, manager)
		receipts = append(receipts, r.ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := range issues {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			_, err := f.uc.ApplyIssueAction(context.Background(), id, workflow.ActionComplete, employee, dto.ActionRequest{})
			errs <- err
		}(issues[i])
		go func(id int64) {
			defer wg.Done()
			_, err := f.uc.ApplyReceiptAction(context.Background(), id, workflow.ActionComplete, employee, dto.ActionRequest{})
			errs <- err
		}(receipts[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(10-5*2+5*3), f.stock(t, productA))
}

// staleDocs simula que otra transacción modificó el documento entre la lectura y la escritura.
type staleDocs struct {
	repository.MovementDocumentRepository
}

func (staleDocs) UpdateWorkflow(context.Context, *entity.MovementDocument) error {
	return fmt.Errorf("update movement document: %w", domain.ErrConflict)
}

type staleTx struct {
	inner movement.TxRunner
}

func (s staleTx) Run(ctx context.Context, fn func(repository.MovementDocumentRepository, repository.InventoryRepository) error) error {
	return s.inner.Run(ctx, func(docs repository.MovementDocumentRepository, stock repository.InventoryRepository) error {
		return fn(staleDocs{docs}, stock)
	})
}

// Perder el CAS de versión se reporta como transición ilegal y no deja rastro.
func TestPerderCASDeVersion_EsTransicionIlegal(t *testing.T) {
	f := newFixture(t)
	id := f.createReceipt(t, false, lineReq(productA, 4, "2")).ID

	uc := movement.NewWorkflowUseCase(movement.Deps{
		Tx:        staleTx{inner: f.store},
		Documents: f.store.Documents(),
		Catalog:   f.store,
		Clock:     func() time.Time { return fixedNow },
	}, movement.Config{BcryptCost: bcrypt.MinCost})

	_, err := uc.ApplyReceiptAction(context.Background(), id, workflow.ActionApprove, manager, dto.ActionRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.ErrorIs(t, err, domain.ErrConflict)

	doc, err := f.uc.GetDocument(context.Background(), entity.KindReceipt, id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusPending), doc.Status)
	assert.Nil(t, doc.Approval)
}
