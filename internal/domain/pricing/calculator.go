package pricing

import (
	"time"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/types"
)

var maxGSTPercent = types.FromInt(100)

// LineInput is the raw data needed to price one line item.
type LineInput struct {
	Quantity   int64
	MRP        types.Money
	GSTPercent types.Money

	// UserDiscount is the per-unit discount entered at the counter.
	// It is ignored when the batch qualifies for the expiry discount.
	UserDiscount types.Money

	ExpiryDate *time.Time
}

// Line is a priced line item. GSTAmount and LineBase keep full precision
// for aggregation; LineTotal is rounded for display.
type Line struct {
	Quantity           int64
	MRP                types.Money
	GSTPercent         types.Money
	DiscountPerUnit    types.Money
	ExpiryDiscount     bool
	PriceAfterDiscount types.Money
	LineBase           types.Money
	GSTAmount          types.Money
	LineTotal          types.Money
}

// Totals are the invoice aggregates, each rounded once.
type Totals struct {
	Subtotal           types.Money
	ItemDiscount       types.Money
	RedemptionDiscount types.Money
	TotalDiscount      types.Money
	GSTTotal           types.Money
	TotalAmount        types.Money

	// Payable is the rounded amount before clamping at zero. Negative means
	// the redemption is larger than the invoice.
	Payable types.Money
}

// Calculator applies a Policy. It is safe for concurrent use.
type Calculator struct {
	policy Policy
}

// NewCalculator creates a calculator for policy.
func NewCalculator(policy Policy) *Calculator {
	return &Calculator{policy: policy}
}

// Policy returns the active policy.
func (c *Calculator) Policy() Policy {
	return c.policy
}

// ExpiryQualifies reports whether today < expiry <= today + window, compared
// on calendar dates in today's location.
func (c *Calculator) ExpiryQualifies(expiry *time.Time, today time.Time) bool {
	if expiry == nil || expiry.IsZero() {
		return false
	}
	day := dateOf(today, today.Location())
	exp := dateOf(*expiry, today.Location())
	limit := day.AddDate(0, c.policy.ExpiryWindowMonths, 0)

	return exp.After(day) && !exp.After(limit)
}

// DiscountPerUnit returns the per-unit discount for a batch and whether the
// automatic expiry discount was applied.
func (c *Calculator) DiscountPerUnit(mrp, userDiscount types.Money, expiry *time.Time, today time.Time) (types.Money, bool) {
	if c.ExpiryQualifies(expiry, today) {
		return types.Round2(types.Percent(mrp, c.policy.ExpiryDiscountPercent)), true
	}
	return userDiscount, false
}

// Line prices a single line item.
func (c *Calculator) Line(in LineInput, today time.Time) (Line, error) {
	if in.Quantity <= 0 {
		return Line{}, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if in.MRP.IsNegative() {
		return Line{}, apperror.NewValidation("mrp cannot be negative").
			WithDetail("field", "mrp")
	}
	if in.GSTPercent.IsNegative() || in.GSTPercent.GreaterThan(maxGSTPercent) {
		return Line{}, apperror.NewValidation("gst percent must be between 0 and 100").
			WithDetail("field", "gstPercent")
	}
	if in.UserDiscount.IsNegative() {
		return Line{}, apperror.NewValidation("discount cannot be negative").
			WithDetail("field", "discount")
	}

	discount, auto := c.DiscountPerUnit(in.MRP, in.UserDiscount, in.ExpiryDate, today)
	if discount.GreaterThan(in.MRP) {
		return Line{}, apperror.NewValidation("discount cannot exceed mrp").
			WithDetail("field", "discount")
	}

	qty := types.FromInt(in.Quantity)
	price := in.MRP.Sub(discount)
	base := price.Mul(qty)
	gst := types.Percent(base, in.GSTPercent)

	return Line{
		Quantity:           in.Quantity,
		MRP:                in.MRP,
		GSTPercent:         in.GSTPercent,
		DiscountPerUnit:    discount,
		ExpiryDiscount:     auto,
		PriceAfterDiscount: price,
		LineBase:           base,
		GSTAmount:          gst,
		LineTotal:          types.Round2(base.Add(gst)),
	}, nil
}

// Totals aggregates priced lines and a points redemption (1 point = 1 unit).
// GST is summed from unrounded per-line amounts and rounded once.
func (c *Calculator) Totals(lines []Line, redeemedPoints int64) Totals {
	subtotal := types.Zero()
	itemDiscount := types.Zero()
	gst := types.Zero()

	for _, l := range lines {
		qty := types.FromInt(l.Quantity)
		subtotal = subtotal.Add(l.MRP.Mul(qty))
		itemDiscount = itemDiscount.Add(l.DiscountPerUnit.Mul(qty))
		gst = gst.Add(l.GSTAmount)
	}

	redemption := types.FromInt(redeemedPoints)
	totalDiscount := itemDiscount.Add(redemption)
	payable := subtotal.Sub(totalDiscount).Add(gst)

	return Totals{
		Subtotal:           types.Round2(subtotal),
		ItemDiscount:       types.Round2(itemDiscount),
		RedemptionDiscount: redemption,
		TotalDiscount:      types.Round2(totalDiscount),
		GSTTotal:           types.Round2(gst),
		TotalAmount:        types.Round2(types.NonNegative(payable)),
		Payable:            types.Round2(payable),
	}
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
