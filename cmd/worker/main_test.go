package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/internal/core/types"
	"pharmapos/internal/domain/documents/sale"
	"pharmapos/internal/infrastructure/storage/postgres"
	"pharmapos/pkg/logger"
)

func TestHandle_SaleCommitted(t *testing.T) {
	w := &Worker{log: logger.NewNop()}

	payload, err := json.Marshal(sale.CommittedEvent{
		SaleID:      "0192",
		Number:      "INV-2026-00001",
		TotalAmount: types.MustMoney("950"),
		Items:       []sale.CommittedLineRef{{ProductName: "Insulin", BatchID: "INS-7", Quantity: 2}},
	})
	require.NoError(t, err)

	err = w.handle(context.Background(), &postgres.OutboxMessage{EventType: sale.EventSaleCommitted, Payload: payload})
	assert.NoError(t, err)
}

func TestHandle_BadPayloadIsRetried(t *testing.T) {
	w := &Worker{log: logger.NewNop()}

	err := w.handle(context.Background(), &postgres.OutboxMessage{EventType: sale.EventSaleCommitted, Payload: []byte("{")})
	assert.Error(t, err)
}

func TestHandle_UnknownEventIsSkipped(t *testing.T) {
	w := &Worker{log: logger.NewNop()}

	err := w.handle(context.Background(), &postgres.OutboxMessage{EventType: "Other", Payload: []byte("{")})
	assert.NoError(t, err)
}
