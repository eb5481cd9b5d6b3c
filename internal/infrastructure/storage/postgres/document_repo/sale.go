// Package document_repo provides the PostgreSQL sale repository.
package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/entity"
	"pharmapos/internal/core/id"
	"pharmapos/internal/core/types"
	"pharmapos/internal/domain/documents/sale"
	"pharmapos/internal/infrastructure/storage/postgres"
)

const (
	salesTable     = "doc_sales"
	saleLinesTable = "doc_sale_lines"
)

// saleConstraints names the unique indexes of doc_sales.
var saleConstraints = postgres.UniqueConstraint{
	"doc_sales_number_key":          "number",
	"doc_sales_idempotency_key_key": "idempotency_key",
}

// saleRow is the flat header row.
type saleRow struct {
	ID                 id.ID       `db:"id"`
	CreatedAt          time.Time   `db:"created_at"`
	CreatedBy          string      `db:"created_by"`
	Number             string      `db:"number"`
	Date               time.Time   `db:"date"`
	IdempotencyKey     *string     `db:"idempotency_key"`
	RequestHash        string      `db:"request_hash"`
	CustomerName       string      `db:"customer_name"`
	CustomerContact    string      `db:"customer_contact"`
	CustomerEmail      string      `db:"customer_email"`
	PaymentType        string      `db:"payment_type"`
	Subtotal           types.Money `db:"subtotal"`
	ItemDiscount       types.Money `db:"item_discount"`
	RedemptionDiscount types.Money `db:"redemption_discount"`
	TotalDiscount      types.Money `db:"total_discount"`
	GSTTotal           types.Money `db:"gst_total"`
	TotalAmount        types.Money `db:"total_amount"`
	RedeemedPoints     int64       `db:"redeemed_points"`
	PointsEarned       int64       `db:"points_earned"`
}

type lineRow struct {
	SaleID           id.ID       `db:"sale_id"`
	LineNo           int         `db:"line_no"`
	ProductName      string      `db:"product_name"`
	BatchID          string      `db:"batch_id"`
	Packing          string      `db:"packing"`
	Quantity         int64       `db:"quantity"`
	MRP              types.Money `db:"mrp"`
	GSTPercent       types.Money `db:"gst_percent"`
	DiscountPerUnit  types.Money `db:"discount_per_unit"`
	ExpiryDiscount   bool        `db:"expiry_discount"`
	ExpiryDateAtSale *time.Time  `db:"expiry_date_at_sale"`
	GSTAmount        types.Money `db:"gst_amount"`
	LineTotal        types.Money `db:"line_total"`
}

var (
	saleColumns = postgres.ExtractDBColumns[saleRow]()
	lineColumns = postgres.ExtractDBColumns[lineRow]()
)

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ sale.Repository = (*SaleRepo)(nil)

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the header and copies the lines in one transaction.
func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sql, args, err := r.builder.
			Insert(salesTable).
			SetMap(postgres.StructToMap(toRow(s))).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}

		if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return postgres.TranslateUnique(err, "sale", saleConstraints, map[string]string{
				"number":          s.Number,
				"idempotency_key": s.IdempotencyKey,
			})
		}

		lines := make([]lineRow, 0, len(s.Items))
		for _, it := range s.Items {
			lines = append(lines, toLineRow(s.ID, it))
		}
		if err := postgres.CopyStructs(ctx, r.txManager, saleLinesTable, lines); err != nil {
			return fmt.Errorf("copy sale lines: %w", err)
		}
		return nil
	})
}

// GetByID returns a sale with its lines.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.getOne(ctx, squirrel.Eq{"id": saleID}, saleID)
}

// GetByNumber returns a sale by invoice number.
func (r *SaleRepo) GetByNumber(ctx context.Context, number string) (*sale.Sale, error) {
	return r.getOne(ctx, squirrel.Eq{"number": number}, number)
}

// GetByIdempotencyKey returns the sale stored under key.
func (r *SaleRepo) GetByIdempotencyKey(ctx context.Context, key string) (*sale.Sale, error) {
	return r.getOne(ctx, squirrel.Eq{"idempotency_key": key}, key)
}

func (r *SaleRepo) getOne(ctx context.Context, where squirrel.Eq, ref any) (*sale.Sale, error) {
	sql, args, err := r.builder.Select(saleColumns...).From(salesTable).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	q := r.txManager.GetQuerier(ctx)

	var row saleRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", ref)
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	sql, args, err = r.builder.
		Select(lineColumns...).
		From(saleLinesTable).
		Where(squirrel.Eq{"sale_id": row.ID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select lines: %w", err)
	}

	var lines []lineRow
	if err := pgxscan.Select(ctx, q, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get sale lines: %w", err)
	}

	return fromRows(row, lines), nil
}

func toRow(s *sale.Sale) saleRow {
	var key *string
	if s.IdempotencyKey != "" {
		k := s.IdempotencyKey
		key = &k
	}
	return saleRow{
		ID:                 s.ID,
		CreatedAt:          s.CreatedAt,
		CreatedBy:          s.CreatedBy,
		Number:             s.Number,
		Date:               s.Date,
		IdempotencyKey:     key,
		RequestHash:        s.RequestHash,
		CustomerName:       s.Customer.Name,
		CustomerContact:    s.Customer.Contact,
		CustomerEmail:      s.Customer.Email,
		PaymentType:        string(s.PaymentType),
		Subtotal:           s.Subtotal,
		ItemDiscount:       s.ItemDiscount,
		RedemptionDiscount: s.RedemptionDiscount,
		TotalDiscount:      s.TotalDiscount,
		GSTTotal:           s.GSTTotal,
		TotalAmount:        s.TotalAmount,
		RedeemedPoints:     s.RedeemedPoints,
		PointsEarned:       s.PointsEarned,
	}
}

func toLineRow(saleID id.ID, it sale.LineItem) lineRow {
	return lineRow{
		SaleID:           saleID,
		LineNo:           it.LineNo,
		ProductName:      it.ProductName,
		BatchID:          it.BatchID,
		Packing:          it.Packing,
		Quantity:         it.Quantity,
		MRP:              it.MRP,
		GSTPercent:       it.GSTPercent,
		DiscountPerUnit:  it.DiscountPerUnit,
		ExpiryDiscount:   it.ExpiryDiscount,
		ExpiryDateAtSale: it.ExpiryDateAtSale,
		GSTAmount:        it.GSTAmount,
		LineTotal:        it.LineTotal,
	}
}

func fromRows(row saleRow, lines []lineRow) *sale.Sale {
	s := &sale.Sale{
		Document: entity.Document{
			ID:        row.ID,
			Number:    row.Number,
			Date:      row.Date,
			CreatedAt: row.CreatedAt,
			CreatedBy: row.CreatedBy,
		},
		RequestHash: row.RequestHash,
		Customer: sale.CustomerSnapshot{
			Name:    row.CustomerName,
			Contact: row.CustomerContact,
			Email:   row.CustomerEmail,
		},
		PaymentType:        sale.PaymentType(row.PaymentType),
		Subtotal:           row.Subtotal,
		ItemDiscount:       row.ItemDiscount,
		RedemptionDiscount: row.RedemptionDiscount,
		TotalDiscount:      row.TotalDiscount,
		GSTTotal:           row.GSTTotal,
		TotalAmount:        row.TotalAmount,
		RedeemedPoints:     row.RedeemedPoints,
		PointsEarned:       row.PointsEarned,
	}
	if row.IdempotencyKey != nil {
		s.IdempotencyKey = *row.IdempotencyKey
	}

	s.Items = make([]sale.LineItem, 0, len(lines))
	for _, l := range lines {
		s.Items = append(s.Items, sale.LineItem{
			LineNo:           l.LineNo,
			ProductName:      l.ProductName,
			BatchID:          l.BatchID,
			Packing:          l.Packing,
			Quantity:         l.Quantity,
			MRP:              l.MRP,
			GSTPercent:       l.GSTPercent,
			DiscountPerUnit:  l.DiscountPerUnit,
			ExpiryDiscount:   l.ExpiryDiscount,
			ExpiryDateAtSale: l.ExpiryDateAtSale,
			GSTAmount:        l.GSTAmount,
			LineTotal:        l.LineTotal,
		})
	}
	return s
}
