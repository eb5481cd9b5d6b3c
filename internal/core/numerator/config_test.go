package numerator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Format(t *testing.T) {
	period := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "INV-2026-00042", DefaultConfig("INV").Format(period, 42))

	cfg := Config{Prefix: "POS", PadWidth: 3}
	assert.Equal(t, "POS-007", cfg.Format(period, 7))
}

func TestConfig_SequenceKey(t *testing.T) {
	period := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "INV_2026", DefaultConfig("INV").SequenceKey(period))
	assert.Equal(t, "INV_2026_03", Config{Prefix: "INV", ResetPeriod: "month"}.SequenceKey(period))
	assert.Equal(t, "INV", Config{Prefix: "INV", ResetPeriod: "never"}.SequenceKey(period))
}
