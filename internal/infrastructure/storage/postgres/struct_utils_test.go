package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"pharmapos/internal/core/entity"
	"pharmapos/internal/core/id"
)

func TestExtractDBColumns_StockMovement(t *testing.T) {
	cols := ExtractDBColumns[entity.StockMovement]()

	assert.Equal(t, []string{
		"line_id", "recorder_id", "recorder_type", "record_type", "created_at",
		"product_name", "batch_id", "quantity", "balance_after",
	}, cols)
}

func TestStructToMap_EmbeddedFields(t *testing.T) {
	rec := entity.Recorder{ID: id.New(), Type: "Sale"}
	m := entity.NewPointsMovement(rec, "9876543210", entity.PointsRedeem, 50)
	m.BalanceAfter = 70

	got := StructToMap(&m)

	assert.Equal(t, rec.ID, got["recorder_id"])
	assert.Equal(t, entity.RecordTypeExpense, got["record_type"])
	assert.Equal(t, "9876543210", got["customer_contact"])
	assert.Equal(t, int64(50), got["points"])
	assert.Equal(t, int64(70), got["balance_after"])
	assert.Len(t, got, 9)
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
}

func TestRowValues_FollowsColumnOrder(t *testing.T) {
	rec := entity.Recorder{ID: id.New(), Type: "Sale"}
	m := entity.NewStockMovement(rec, entity.RecordTypeExpense, "Paracetamol 500", "B-17", 4)
	m.BalanceAfter = 16

	cols := []string{"batch_id", "quantity", "balance_after", "missing"}
	assert.Equal(t, []any{"B-17", int64(4), int64(16), nil}, rowValues(m, cols))
}

func TestCopyStructs_RequiresTransaction(t *testing.T) {
	err := CopyStructs(context.Background(), &TxManager{}, "doc_sale_lines", []entity.StockMovement{})
	assert.ErrorIs(t, err, ErrCopyOutsideTx)
}
