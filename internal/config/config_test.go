package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{"STORAGE": "memory"}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "INV", cfg.InvoicePrefix)
	assert.Equal(t, 30*time.Second, cfg.StatementTimeout)

	rules := cfg.Loyalty()
	assert.Equal(t, int64(50), rules.MinRedemption)
	assert.Equal(t, "100", rules.PointsPerUnit.String())

	policy := cfg.Pricing()
	assert.Equal(t, 3, policy.ExpiryWindowMonths)
	assert.Equal(t, "20", policy.ExpiryDiscountPercent.String())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		"STORAGE":                 "postgres",
		"DATABASE_URL":            "postgres://localhost/pharmapos",
		"DB_MAX_CONNS":            "8",
		"TX_STATEMENT_TIMEOUT":    "5s",
		"INVOICE_PREFIX":          "CHN",
		"EXPIRY_DISCOUNT_PERCENT": "15.5",
		"MIN_REDEMPTION_POINTS":   "25",
		"OUTBOX_MAX_RETRIES":      "9",
		"OUTBOX_RETRY_BACKOFF":    "1m",
	}))
	require.NoError(t, err)

	assert.Equal(t, int32(8), cfg.Pool().MaxConns)
	assert.Equal(t, 5*time.Second, cfg.TxOptions().StatementTimeout)
	assert.Equal(t, "CHN", cfg.Sale().InvoicePrefix)
	assert.Equal(t, "15.5", cfg.Pricing().ExpiryDiscountPercent.String())
	assert.Equal(t, int64(25), cfg.Loyalty().MinRedemption)

	relay := cfg.Relay()
	assert.Equal(t, 9, relay.MaxRetries)
	assert.Equal(t, time.Minute, relay.BaseBackoff)
	assert.Equal(t, 100, relay.BatchSize)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"postgres without url", map[string]string{"STORAGE": "postgres"}},
		{"unknown storage", map[string]string{"STORAGE": "sqlite"}},
		{"bad int", map[string]string{"STORAGE": "memory", "DB_MAX_CONNS": "many"}},
		{"bad duration", map[string]string{"STORAGE": "memory", "OUTBOX_POLL_INTERVAL": "soon"}},
		{"bad money", map[string]string{"STORAGE": "memory", "POINTS_PER_UNIT": "ten"}},
		{"zero points unit", map[string]string{"STORAGE": "memory", "POINTS_PER_UNIT": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(lookup(tt.vars))
			assert.Error(t, err)
		})
	}
}
