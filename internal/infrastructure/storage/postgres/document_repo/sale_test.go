package document_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/internal/core/entity"
	"pharmapos/internal/core/types"
	"pharmapos/internal/domain/documents/sale"
	"pharmapos/internal/infrastructure/storage/postgres"
)

func TestRowMapping_KeepsEverySaleField(t *testing.T) {
	expiry := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)
	s := &sale.Sale{
		Document:       entity.NewDocument(),
		IdempotencyKey: "till-1-0001",
		RequestHash:    "abc",
		Customer:       sale.CustomerSnapshot{Name: "Asha", Contact: "9876543210"},
		PaymentType:    sale.PaymentUPI,
		Items: []sale.LineItem{{
			LineNo: 1, ProductName: "Insulin", BatchID: "INS-7", Quantity: 1,
			MRP: types.MustMoney("200"), DiscountPerUnit: types.MustMoney("40"),
			ExpiryDiscount: true, ExpiryDateAtSale: &expiry,
			GSTAmount: types.MustMoney("8"), LineTotal: types.MustMoney("168"),
		}},
		TotalAmount:  types.MustMoney("168"),
		PointsEarned: 2,
	}
	s.Number = "INV-2026-00001"

	lines := []lineRow{toLineRow(s.ID, s.Items[0])}
	got := fromRows(toRow(s), lines)

	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Number, got.Number)
	assert.Equal(t, s.IdempotencyKey, got.IdempotencyKey)
	assert.Equal(t, s.Customer, got.Customer)
	assert.Equal(t, s.PaymentType, got.PaymentType)
	assert.Equal(t, s.PointsEarned, got.PointsEarned)
	require.Len(t, got.Items, 1)
	assert.Equal(t, s.Items[0], got.Items[0])
}

func TestToRow_EmptyKeyIsNull(t *testing.T) {
	row := toRow(&sale.Sale{Document: entity.NewDocument()})
	assert.Nil(t, row.IdempotencyKey)
}

func TestColumns_MatchInsertMap(t *testing.T) {
	row := postgres.StructToMap(toRow(&sale.Sale{Document: entity.NewDocument()}))
	assert.Len(t, row, len(saleColumns))
	for _, c := range saleColumns {
		assert.Contains(t, row, c)
	}
	assert.Contains(t, lineColumns, "expiry_date_at_sale")
}
