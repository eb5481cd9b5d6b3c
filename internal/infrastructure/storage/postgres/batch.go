package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrCopyOutsideTx is returned by CopyStructs when ctx carries no transaction.
var ErrCopyOutsideTx = errors.New("copy requires a transaction")

// CopyStructs streams items into table with the COPY protocol, one row per
// item, in the column order of ExtractDBColumns[T]. It only runs inside a
// transaction so the rows commit with their parent document.
func CopyStructs[T any](ctx context.Context, m *TxManager, table string, items []T) error {
	tx := m.GetTx(ctx)
	if tx == nil {
		return ErrCopyOutsideTx
	}

	columns := ExtractDBColumns[T]()
	src := pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
		return rowValues(items[i], columns), nil
	})

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, src)
	if err != nil {
		return err
	}
	if n != int64(len(items)) {
		return fmt.Errorf("copy into %s: wrote %d of %d rows", table, n, len(items))
	}
	return nil
}

// rowValues orders the db-tagged fields of v by columns.
func rowValues(v any, columns []string) []any {
	byName := StructToMap(v)
	out := make([]any, len(columns))
	for i, col := range columns {
		out[i] = byName[col]
	}
	return out
}
