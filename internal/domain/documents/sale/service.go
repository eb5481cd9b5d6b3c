package sale

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pharmapos/internal/core/apperror"
	appctx "pharmapos/internal/core/context"
	"pharmapos/internal/core/entity"
	"pharmapos/internal/core/id"
	"pharmapos/internal/core/numerator"
	"pharmapos/internal/core/outbox"
	"pharmapos/internal/core/tx"
	"pharmapos/internal/domain/audit"
	"pharmapos/internal/domain/pricing"
	"pharmapos/internal/domain/registers/loyalty"
	"pharmapos/internal/domain/registers/stock"
	"pharmapos/pkg/logger"
)

var tracer = otel.Tracer("pharmapos/sale")

// Deps are the collaborators of Service.
type Deps struct {
	Repo      Repository
	Stock     *stock.Service
	Loyalty   *loyalty.Service
	Pricing   *pricing.Calculator
	Numerator numerator.Generator
	TxManager tx.Manager
	Events    outbox.Publisher
	Audit     audit.Trail // optional
}

// Service finalizes sales. It holds no per-request state and is safe for
// concurrent use; concurrent finalizations only meet at the ledgers.
type Service struct {
	repo      Repository
	stock     *stock.Service
	loyalty   *loyalty.Service
	pricing   *pricing.Calculator
	numerator numerator.Generator
	txManager tx.Manager
	events    outbox.Publisher
	audit     audit.Trail
	cfg       Config
}

// NewService creates a new sale service.
func NewService(deps Deps, cfg Config) *Service {
	auditLog := deps.Audit
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	return &Service{
		repo:      deps.Repo,
		stock:     deps.Stock,
		loyalty:   deps.Loyalty,
		pricing:   deps.Pricing,
		numerator: deps.Numerator,
		txManager: deps.TxManager,
		events:    deps.Events,
		audit:     auditLog,
		cfg:       cfg,
	}
}

// Result is the outcome of a successful Finalize.
type Result struct {
	Sale *Sale

	// Replayed is set when the idempotency key matched an earlier sale and
	// no ledger was touched by this call.
	Replayed bool
}

// Finalize turns a cart into a committed sale.
//
// Stock is allocated, points are redeemed and accrued, and the sale is
// stored with its outbox event. Either all of it takes effect or every
// ledger change already made is compensated before the error is returned.
// Resubmitting the same cart with the same idempotency key returns the
// stored sale.
func (s *Service) Finalize(ctx context.Context, cart Cart) (*Result, error) {
	ctx, span := tracer.Start(ctx, "sale.Finalize",
		trace.WithAttributes(attribute.Int("sale.items", len(cart.Items))))
	defer span.End()

	res, err := s.finalize(ctx, cart)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("sale.id", res.Sale.ID.String()),
		attribute.String("sale.number", res.Sale.Number),
		attribute.Bool("sale.replayed", res.Replayed),
	)
	return res, nil
}

func (s *Service) finalize(ctx context.Context, cart Cart) (*Result, error) {
	cart = cart.Normalize()
	key := cart.EffectiveIdempotencyKey()

	hash, err := cart.Hash()
	if err != nil {
		return nil, apperror.NewValidation("cart cannot be encoded").WithCause(err)
	}

	if key != "" {
		prior, err := s.lookupPrior(ctx, key, hash)
		if err != nil {
			return nil, classify(err).WithDetail("stage", string(StateValidating))
		}
		if prior != nil {
			logger.Info(ctx, "sale replayed", "sale_id", prior.ID, "number", prior.Number, "idempotency_key", key)
			return &Result{Sale: prior, Replayed: true}, nil
		}
	}

	sale, err := s.price(ctx, cart)
	if err != nil {
		return nil, classify(err).WithDetail("stage", string(StateValidating))
	}
	sale.IdempotencyKey = key
	sale.RequestHash = hash

	r := newRun(s, sale)
	steps := []struct {
		state State
		fn    func(context.Context) error
	}{
		{StateAllocatingStock, r.allocateStock},
		{StateRedeemingPoints, r.redeemPoints},
		{StateAccruingPoints, r.accruePoints},
	}
	for _, step := range steps {
		r.enter(ctx, step.state)
		if err := ctx.Err(); err != nil {
			return r.abort(ctx, err)
		}
		if err := r.traced(ctx, step.fn); err != nil {
			return r.abort(ctx, err)
		}
	}

	r.enter(ctx, StatePersisting)
	if err := ctx.Err(); err != nil {
		return r.abort(ctx, err)
	}
	return r.persist(ctx)
}

// Quote prices a cart without touching any ledger.
func (s *Service) Quote(ctx context.Context, cart Cart) (*Sale, error) {
	ctx, span := tracer.Start(ctx, "sale.Quote")
	defer span.End()

	sale, err := s.price(ctx, cart.Normalize())
	if err != nil {
		span.RecordError(err)
		return nil, classify(err).WithDetail("stage", string(StateValidating))
	}
	if !sale.Customer.IsWalkIn() {
		sale.PointsEarned = s.loyalty.Rules().PointsFor(sale.Subtotal)
	}
	return sale, nil
}

// GetByID returns a stored sale.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	return s.repo.GetByID(ctx, saleID)
}

// History returns the audit trail of a committed sale, newest first.
func (s *Service) History(ctx context.Context, saleID id.ID, limit int) ([]audit.Entry, error) {
	if _, err := s.repo.GetByID(ctx, saleID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	entries, err := s.audit.History(ctx, DocumentType, saleID, limit)
	if err != nil {
		return nil, fmt.Errorf("load sale history: %w", err)
	}
	return entries, nil
}

// GetByNumber returns a stored sale by invoice number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Sale, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, apperror.NewValidation("invoice number is required").WithDetail("field", "number")
	}
	return s.repo.GetByNumber(ctx, number)
}

// lookupPrior returns the sale stored under key, nil if there is none, or
// IDEMPOTENCY_CONFLICT when it was stored for a different cart.
func (s *Service) lookupPrior(ctx context.Context, key, hash string) (*Sale, error) {
	prior, err := s.repo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if prior.RequestHash != "" && prior.RequestHash != hash {
		return nil, apperror.NewIdempotencyMismatch(key)
	}
	return prior, nil
}

// price is the Validating stage: it loads batch attributes from the stock
// ledger, prices every line and checks the redemption.
func (s *Service) price(ctx context.Context, cart Cart) (*Sale, error) {
	if len(cart.Items) == 0 {
		return nil, apperror.NewValidation("cart has no items").WithDetail("field", "items")
	}
	if err := cart.PaymentType.Validate(); err != nil {
		return nil, err
	}
	if err := s.loyalty.Rules().CheckRedemption(cart.RedeemedPoints); err != nil {
		return nil, err
	}
	if cart.RedeemedPoints > 0 && cart.Customer.IsWalkIn() {
		return nil, apperror.NewValidation("redeeming points requires a customer contact").
			WithDetail("field", "customer.contact")
	}

	today := s.cfg.now()
	items := make([]LineItem, 0, len(cart.Items))
	lines := make([]pricing.Line, 0, len(cart.Items))
	demand := newDemand()

	for i, in := range cart.Items {
		lineNo := i + 1
		item, line, batch, err := s.priceLine(ctx, in, today)
		if err != nil {
			return nil, atLine(err, lineNo)
		}
		item.LineNo = lineNo
		items = append(items, item)
		lines = append(lines, line)
		demand.add(batch, in.Quantity, lineNo)
	}

	if err := demand.check(); err != nil {
		return nil, err
	}

	totals := s.pricing.Totals(lines, cart.RedeemedPoints)
	if totals.Payable.IsNegative() {
		return nil, apperror.NewValidation("redeemed points exceed the invoice amount").
			WithDetail("field", "redeemedPoints").
			WithDetail("payable", totals.Payable.String())
	}

	doc := entity.NewDocument()
	doc.Date = today
	doc.Number = cart.InvoiceNumber
	doc.CreatedBy = appctx.Operator(ctx)

	return &Sale{
		Document:           doc,
		Customer:           cart.Customer,
		PaymentType:        cart.PaymentType,
		Items:              items,
		Subtotal:           totals.Subtotal,
		ItemDiscount:       totals.ItemDiscount,
		RedemptionDiscount: totals.RedemptionDiscount,
		TotalDiscount:      totals.TotalDiscount,
		GSTTotal:           totals.GSTTotal,
		TotalAmount:        totals.TotalAmount,
		RedeemedPoints:     cart.RedeemedPoints,
	}, nil
}

func (s *Service) priceLine(ctx context.Context, in CartItem, today time.Time) (LineItem, pricing.Line, stock.Batch, error) {
	key := stock.BatchKey{ProductName: in.ProductName, BatchID: in.BatchID}
	if err := key.Validate(); err != nil {
		return LineItem{}, pricing.Line{}, stock.Batch{}, err
	}
	if in.Quantity <= 0 {
		return LineItem{}, pricing.Line{}, stock.Batch{}, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if in.MRP.IsNegative() {
		return LineItem{}, pricing.Line{}, stock.Batch{}, apperror.NewValidation("mrp cannot be negative").
			WithDetail("field", "mrp")
	}

	batch, err := s.stock.GetBatch(ctx, key)
	if err != nil {
		if apperror.IsNotFound(err) {
			return LineItem{}, pricing.Line{}, stock.Batch{}, apperror.NewValidation("unknown batch").
				WithDetail("field", "batchId").
				WithDetail("batch", key.String())
		}
		return LineItem{}, pricing.Line{}, stock.Batch{}, err
	}

	line, err := s.pricing.Line(pricing.LineInput{
		Quantity:     in.Quantity,
		MRP:          batch.MRP,
		GSTPercent:   batch.GSTPercent,
		UserDiscount: in.Discount,
		ExpiryDate:   batch.ExpiryDate,
	}, today)
	if err != nil {
		return LineItem{}, pricing.Line{}, stock.Batch{}, err
	}

	return LineItem{
		ProductName:      batch.ProductName,
		BatchID:          batch.BatchID,
		Packing:          batch.Packing,
		Quantity:         in.Quantity,
		MRP:              line.MRP,
		GSTPercent:       line.GSTPercent,
		DiscountPerUnit:  line.DiscountPerUnit,
		ExpiryDiscount:   line.ExpiryDiscount,
		ExpiryDateAtSale: batch.ExpiryDate,
		GSTAmount:        line.GSTAmount,
		LineTotal:        line.LineTotal,
	}, line, batch, nil
}

func atLine(err error, lineNo int) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		appErr.WithDetail("lineNo", lineNo)
	}
	return err
}

// demand sums the quantity asked of each batch across lines so an obvious
// shortage is rejected before any ledger write. Allocation stays the
// authoritative check.
type demand struct {
	order []stock.BatchKey
	want  map[stock.BatchKey]int64
	have  map[stock.BatchKey]int64
	line  map[stock.BatchKey]int
}

func newDemand() *demand {
	return &demand{
		want: make(map[stock.BatchKey]int64),
		have: make(map[stock.BatchKey]int64),
		line: make(map[stock.BatchKey]int),
	}
}

func (d *demand) add(b stock.Batch, qty int64, lineNo int) {
	k := b.Key()
	if _, seen := d.want[k]; !seen {
		d.order = append(d.order, k)
		d.line[k] = lineNo
	}
	d.want[k] += qty
	d.have[k] = b.Quantity
}

func (d *demand) check() error {
	for _, k := range d.order {
		if d.want[k] > d.have[k] {
			return apperror.NewInsufficientStock(k.ProductName, k.BatchID, d.want[k], d.have[k]).
				WithDetail("lineNo", d.line[k])
		}
	}
	return nil
}

// traced runs one stage in its own span.
func (r *run) traced(ctx context.Context, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "sale."+string(r.state),
		trace.WithAttributes(attribute.String("sale.id", r.sale.ID.String())))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// allocateStock takes every line out of its batch. Lines are visited in
// (batchId, productName) order so concurrent sales touch batches in the
// same order.
//
// Ledger calls run detached from ctx so a write is never left in an
// unknown state by a cancellation; ctx is checked between calls.
func (r *run) allocateStock(ctx context.Context) error {
	order := make([]int, len(r.sale.Items))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ia, ib := r.sale.Items[a], r.sale.Items[b]
		if c := cmp.Compare(ia.BatchID, ib.BatchID); c != 0 {
			return c
		}
		return cmp.Compare(ia.ProductName, ib.ProductName)
	})

	opCtx := context.WithoutCancel(ctx)
	for _, i := range order {
		if err := ctx.Err(); err != nil {
			return err
		}

		item := r.sale.Items[i]
		key := stock.BatchKey{ProductName: item.ProductName, BatchID: item.BatchID}
		qty := item.Quantity

		if _, err := r.svc.stock.Allocate(opCtx, key, qty, r.recorder); err != nil {
			return atLine(err, item.LineNo)
		}
		r.push(compensation{
			step:   "release_stock",
			fields: []any{"batch", key.String(), "quantity", qty},
			undo: func(ctx context.Context) error {
				_, err := r.svc.stock.Release(ctx, key, qty, r.recorder)
				return err
			},
		})
	}
	return nil
}

// redeemPoints enrolls the customer on first purchase and takes the
// redeemed points. Walk-in sales skip loyalty entirely.
func (r *run) redeemPoints(ctx context.Context) error {
	customer := r.sale.Customer
	if customer.IsWalkIn() {
		return nil
	}

	opCtx := context.WithoutCancel(ctx)
	account, err := r.svc.loyalty.Enroll(opCtx, loyalty.Profile{
		Name:    customer.Name,
		Contact: customer.Contact,
		Email:   customer.Email,
	})
	if err != nil {
		return err
	}
	if r.sale.Customer.Name == "" {
		r.sale.Customer.Name = account.Name
	}
	if r.sale.Customer.Email == "" {
		r.sale.Customer.Email = account.Email
	}

	points := r.sale.RedeemedPoints
	if points == 0 {
		return nil
	}
	if _, err := r.svc.loyalty.Redeem(opCtx, customer.Contact, points, r.recorder); err != nil {
		return err
	}
	r.push(compensation{
		step:   "restore_points",
		fields: []any{"customer", customer.Contact, "points", points},
		undo: func(ctx context.Context) error {
			return r.svc.loyalty.Restore(ctx, customer.Contact, points, r.recorder)
		},
	})
	return nil
}

// accruePoints credits points on the pre-discount subtotal.
func (r *run) accruePoints(ctx context.Context) error {
	contact := r.sale.Customer.Contact
	if r.sale.Customer.IsWalkIn() {
		return nil
	}

	m, err := r.svc.loyalty.Accrue(context.WithoutCancel(ctx), contact, r.sale.Subtotal, r.recorder)
	if err != nil {
		return err
	}
	r.sale.PointsEarned = m.Points
	if m.Points == 0 {
		return nil
	}

	earned := m.Points
	r.push(compensation{
		step:   "reverse_accrual",
		fields: []any{"customer", contact, "points", earned},
		undo: func(ctx context.Context) error {
			return r.svc.loyalty.Reverse(ctx, contact, earned, r.recorder)
		},
	})
	return nil
}

// persist stores the sale, its event and its audit entry in one
// transaction. It runs detached from ctx: once reached, the outcome is
// decided by storage alone.
func (r *run) persist(ctx context.Context) (*Result, error) {
	ctx = context.WithoutCancel(ctx)
	svc := r.svc
	sale := r.sale

	err := r.traced(ctx, func(ctx context.Context) error {
		return svc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if sale.Number == "" {
				number, err := svc.numerator.GetNextNumber(ctx, svc.cfg.numbering(), sale.Date)
				if err != nil {
					return fmt.Errorf("generate number: %w", err)
				}
				sale.Number = number
			}

			if err := svc.repo.Create(ctx, sale); err != nil {
				return err
			}

			event := outbox.Event{
				AggregateType: DocumentType,
				AggregateID:   sale.ID,
				EventType:     EventSaleCommitted,
				Payload:       newCommittedEvent(sale),
			}
			if err := svc.events.Publish(ctx, event); err != nil {
				return fmt.Errorf("publish %s: %w", EventSaleCommitted, err)
			}

			return svc.audit.LogChange(ctx, DocumentType, sale.ID, audit.ActionCommit, map[string]any{
				"number":          sale.Number,
				"total_amount":    sale.TotalAmount.String(),
				"redeemed_points": sale.RedeemedPoints,
				"points_earned":   sale.PointsEarned,
				"items":           len(sale.Items),
			})
		})
	})

	if err == nil {
		r.undo = nil
		r.enter(ctx, StateCommitted)
		logger.Info(ctx, "sale committed",
			"sale_id", sale.ID,
			"number", sale.Number,
			"total_amount", sale.TotalAmount.String(),
			"points_earned", sale.PointsEarned,
		)
		return &Result{Sale: sale}, nil
	}

	// A duplicate key means a concurrent submission of the same key
	// committed first; abort finds it and answers with a replay.
	return r.abort(ctx, err)
}
