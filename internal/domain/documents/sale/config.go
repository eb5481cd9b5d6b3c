package sale

import (
	"time"

	"pharmapos/internal/core/numerator"
)

// Config tunes the finalization service.
type Config struct {
	// InvoicePrefix is used for server-assigned invoice numbers.
	InvoicePrefix string

	// Now is the business clock. Expiry discounts are decided against it.
	Now func() time.Time
}

// DefaultConfig numbers invoices INV-YYYY-00001 using wall-clock time.
func DefaultConfig() Config {
	return Config{
		InvoicePrefix: "INV",
		Now:           func() time.Time { return time.Now().UTC() },
	}
}

func (c Config) numbering() numerator.Config {
	prefix := c.InvoicePrefix
	if prefix == "" {
		prefix = "INV"
	}
	return numerator.DefaultConfig(prefix)
}

func (c Config) now() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return c.Now()
}
