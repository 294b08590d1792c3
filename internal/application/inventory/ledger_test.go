package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodega-api/internal/application/inventory"
	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/domain/repository"
	"github.com/jhoicas/bodega-api/internal/domain/workflow"
	"github.com/jhoicas/bodega-api/internal/infrastructure/memory"
)

func line(productID, qty int64) entity.MovementLine {
	return entity.MovementLine{ProductID: productID, Quantity: qty, UnitPrice: decimal.NewFromInt(1)}
}

func newStore(stock map[int64]int64) *memory.Store {
	s := memory.NewStore()
	for id, q := range stock {
		s.AddProduct(entity.ProductRef{ID: id})
		s.SetStock(id, q)
	}
	return s
}

func TestGetStock(t *testing.T) {
	s := newStore(map[int64]int64{1: 7})
	s.AddProduct(entity.ProductRef{ID: 2})
	l := inventory.NewLedger(s.Inventory())

	rec, err := l.GetStock(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.Quantity)

	rec, err = l.GetStock(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Quantity, "sin movimientos = cero")

	_, err = l.GetStock(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApply_Aumenta(t *testing.T) {
	s := newStore(map[int64]int64{1: 0, 2: 5})
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	err := s.Run(context.Background(), func(_ repository.MovementDocumentRepository, stock repository.InventoryRepository) error {
		return inventory.Apply(context.Background(), stock, workflow.DirectionIncrease, []entity.MovementLine{line(2, 3), line(1, 10)}, at)
	})
	require.NoError(t, err)

	rec, err := s.Inventory().Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(8), rec.Quantity)
	assert.Equal(t, at, rec.LastUpdatedAt)
}

func TestApply_AumentaProductoInexistente(t *testing.T) {
	s := newStore(nil)
	err := s.Run(context.Background(), func(_ repository.MovementDocumentRepository, stock repository.InventoryRepository) error {
		return inventory.Apply(context.Background(), stock, workflow.DirectionIncrease, []entity.MovementLine{line(99, 1)}, time.Now())
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Una línea sin existencia revierte también las líneas ya descontadas.
func TestApply_DisminuyeTodoONada(t *testing.T) {
	s := newStore(map[int64]int64{1: 10, 2: 1})

	err := s.Run(context.Background(), func(_ repository.MovementDocumentRepository, stock repository.InventoryRepository) error {
		return inventory.Apply(context.Background(), stock, workflow.DirectionDecrease, []entity.MovementLine{line(1, 4), line(2, 2)}, time.Now())
	})
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(2), stockErr.ProductID)
	assert.Equal(t, int64(2), stockErr.Requested)
	assert.Equal(t, int64(1), stockErr.Available)

	rec, err := s.Inventory().Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec.Quantity)
}

func TestApply_DireccionDesconocida(t *testing.T) {
	s := newStore(map[int64]int64{1: 1})
	err := s.Run(context.Background(), func(_ repository.MovementDocumentRepository, stock repository.InventoryRepository) error {
		return inventory.Apply(context.Background(), stock, workflow.Direction(0), []entity.MovementLine{line(1, 1)}, time.Now())
	})
	assert.ErrorIs(t, err, domain.ErrInternal)
}

func TestCheckAvailability(t *testing.T) {
	s := newStore(map[int64]int64{1: 3, 2: 0})
	inv := s.Inventory()

	assert.NoError(t, inventory.CheckAvailability(context.Background(), inv, []entity.MovementLine{line(1, 3)}))

	err := inventory.CheckAvailability(context.Background(), inv, []entity.MovementLine{line(1, 1), line(2, 1)})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	rec, err := inv.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.Quantity, "la verificación no muta")
}
