package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/entity"
	"pharmapos/internal/core/types"
	"pharmapos/internal/domain/documents/sale"
)

func TestSaleRequest_ToCart(t *testing.T) {
	req := SaleRequest{
		InvoiceNumber: "INV-7",
		Customer:      CustomerRequest{Name: "Asha", Contact: "9876543210"},
		Items: []SaleItemRequest{
			{ProductName: "Insulin", BatchID: "INS-7", Quantity: 2, MRP: "200", GSTPercent: "5", ExpiryDate: "2027-01-31"},
			{ProductName: "Gauze", BatchID: "G-1", Quantity: 1, MRP: "12.50"},
		},
		PaymentType:    "UPI",
		RedeemedPoints: 50,
	}

	cart, err := req.ToCart()
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.True(t, cart.Items[0].MRP.Equal(types.MustMoney("200")))
	require.NotNil(t, cart.Items[0].ExpiryDate)
	assert.Equal(t, time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC), *cart.Items[0].ExpiryDate)
	assert.True(t, cart.Items[1].Discount.IsZero())
	assert.Nil(t, cart.Items[1].ExpiryDate)
	assert.Equal(t, int64(50), cart.RedeemedPoints)
	assert.Equal(t, "invoice:INV-7", cart.EffectiveIdempotencyKey())
}

func TestSaleRequest_ToCart_BadDate(t *testing.T) {
	req := SaleRequest{Items: []SaleItemRequest{{ProductName: "X", BatchID: "B", Quantity: 1, ExpiryDate: "31/01/2027"}}}

	_, err := req.ToCart()
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "items[0].expiryDate", appErr.Details["field"])
}

func TestFromResult_FormatsMoney(t *testing.T) {
	s := &sale.Sale{
		Document:    entity.NewDocument(),
		PaymentType: sale.PaymentCash,
		Items: []sale.LineItem{{
			LineNo: 1, ProductName: "Insulin", BatchID: "INS-7", Quantity: 1,
			MRP: types.MustMoney("200"), GSTPercent: types.MustMoney("5"),
			DiscountPerUnit: types.MustMoney("40"), LineTotal: types.MustMoney("168"),
		}},
		TotalAmount: types.MustMoney("168"),
	}

	resp := FromResult(&sale.Result{Sale: s, Replayed: true})

	assert.True(t, resp.Replayed)
	assert.Equal(t, "168.00", resp.TotalAmount)
	assert.Equal(t, "0.00", resp.GSTTotal)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "40.00", resp.Items[0].DiscountPerUnit)
	assert.Equal(t, "5", resp.Items[0].GSTPercent)
}
