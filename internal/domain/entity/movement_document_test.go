package entity_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodega-api/internal/domain"
	"github.com/jhoicas/bodega-api/internal/domain/entity"
)

func line(productID, qty int64, price string) entity.MovementLine {
	return entity.MovementLine{ProductID: productID, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func TestReplaceLines_RecalculaTotal(t *testing.T) {
	doc := &entity.MovementDocument{ID: 7, Kind: entity.KindReceipt}

	require.NoError(t, doc.ReplaceLines([]entity.MovementLine{line(1, 10, "5"), line(2, 2, "20")}))
	assert.True(t, decimal.NewFromInt(90).Equal(doc.TotalAmount), "10×5 + 2×20 = 90, got %s", doc.TotalAmount)
	for _, l := range doc.Lines {
		assert.Equal(t, int64(7), l.DocumentID)
	}

	require.NoError(t, doc.ReplaceLines([]entity.MovementLine{line(3, 3, "1.25")}))
	assert.True(t, decimal.RequireFromString("3.75").Equal(doc.TotalAmount))
	assert.Len(t, doc.Lines, 1)
}

func TestReplaceLines_TotalIgualSumaDeSubtotales(t *testing.T) {
	sets := [][]entity.MovementLine{
		{line(1, 1, "0.01")},
		{line(1, 3, "19.99"), line(2, 7, "0.5"), line(3, 1000, "1234.5678")},
		{line(9, 1, "1"), line(8, 2, "2"), line(7, 3, "3"), line(6, 4, "4")},
	}
	for _, lines := range sets {
		doc := &entity.MovementDocument{}
		require.NoError(t, doc.ReplaceLines(lines))
		assert.True(t, entity.SumSubtotals(doc.Lines).Equal(doc.TotalAmount))
	}
}

func TestReplaceLines_LineaInvalida_SinCambios(t *testing.T) {
	doc := &entity.MovementDocument{}
	require.NoError(t, doc.ReplaceLines([]entity.MovementLine{line(1, 1, "10")}))

	cases := []struct {
		name      string
		lines     []entity.MovementLine
		productID int64
	}{
		{"cantidad cero", []entity.MovementLine{line(2, 0, "1")}, 2},
		{"cantidad negativa", []entity.MovementLine{line(2, 1, "1"), line(3, -1, "1")}, 3},
		{"precio cero", []entity.MovementLine{line(4, 1, "0")}, 4},
		{"producto repetido", []entity.MovementLine{line(5, 1, "1"), line(5, 2, "1")}, 5},
		{"sin producto", []entity.MovementLine{line(0, 1, "1")}, 0},
		{"precio con cinco decimales", []entity.MovementLine{line(6, 3, "0.33335")}, 6},
		{"precio menor que la escala", []entity.MovementLine{line(7, 1, "0.00001")}, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := doc.ReplaceLines(tc.lines)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			var lineErr *domain.InvalidLineError
			require.ErrorAs(t, err, &lineErr)
			assert.Equal(t, tc.productID, lineErr.ProductID)

			assert.Len(t, doc.Lines, 1, "no debe haber actualización parcial")
			assert.True(t, decimal.NewFromInt(10).Equal(doc.TotalAmount))
		})
	}
}

func TestReplaceLines_TotalSobreviveEscalaDeAlmacenamiento(t *testing.T) {
	doc := &entity.MovementDocument{}
	lines := []entity.MovementLine{line(1, 3, "0.3333"), line(2, 7, "12.5000"), line(3, 1, "0.0001")}
	require.NoError(t, doc.ReplaceLines(lines))

	// Redondear cada valor a la escala de la columna no cambia nada si la validación pasó.
	stored := decimal.Zero
	for _, l := range doc.Lines {
		p := l.UnitPrice.Round(entity.PriceScale)
		assert.True(t, p.Equal(l.UnitPrice))
		stored = stored.Add(p.Mul(decimal.NewFromInt(l.Quantity)))
	}
	assert.True(t, doc.TotalAmount.Round(entity.PriceScale).Equal(doc.TotalAmount))
	assert.True(t, stored.Equal(doc.TotalAmount), "total %s, suma almacenada %s", doc.TotalAmount, stored)
}

func TestValidateLines_Vacio(t *testing.T) {
	assert.ErrorIs(t, entity.ValidateLines(nil), domain.ErrInvalidInput)
}

func TestStampsInOrder(t *testing.T) {
	now := time.Now()
	issue := &entity.MovementDocument{Kind: entity.KindIssue}
	assert.True(t, issue.StampsInOrder())

	issue.Approval = &entity.Stamp{UserID: 1, At: now}
	issue.Preparation = &entity.Stamp{UserID: 2, At: now}
	assert.True(t, issue.StampsInOrder())

	issue.Completion = &entity.Stamp{UserID: 2, At: now}
	assert.False(t, issue.StampsInOrder(), "Completion sin Delivery")

	receipt := &entity.MovementDocument{Kind: entity.KindReceipt, Completion: &entity.Stamp{}}
	assert.False(t, receipt.StampsInOrder())
	receipt.Approval = &entity.Stamp{}
	assert.True(t, receipt.StampsInOrder())
}

func TestClone_EsProfundo(t *testing.T) {
	customer := int64(3)
	doc := &entity.MovementDocument{
		ID:         1,
		CustomerID: &customer,
		Lines:      []entity.MovementLine{line(1, 1, "1")},
		Approval:   &entity.Stamp{UserID: 9, Notes: "ok"},
	}
	c := doc.Clone()
	c.Lines[0].Quantity = 50
	*c.CustomerID = 4
	c.Approval.Notes = "cambiado"

	assert.Equal(t, int64(1), doc.Lines[0].Quantity)
	assert.Equal(t, int64(3), *doc.CustomerID)
	assert.Equal(t, "ok", doc.Approval.Notes)
}
