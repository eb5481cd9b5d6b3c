package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "pharmapos/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier keeps one counter per sequence key like sys_sequences does.
type mockQuerier struct {
	mu      sync.Mutex
	values  map[string]int64
	failErr error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{values: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return &mockRow{err: m.failErr}
	}

	key := args[0].(string)
	m.values[key]++
	return &mockRow{val: m.values[key]}
}

func TestGetNextNumber_Sequential(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("INV")
	period := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00002", num)
}

func TestGetNextNumber_ResetsPerYear(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("INV")

	_, err := svc.GetNextNumber(ctx, cfg, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	num, err := svc.GetNextNumber(ctx, cfg, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "INV-2027-00001", num)
}

func TestGetNextNumber_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	cfg := corenumerator.DefaultConfig("INV")
	period := time.Now()

	const n = 50
	var wg sync.WaitGroup
	results := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.GetNextNumber(context.Background(), cfg, period)
			if err == nil {
				results <- num
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for num := range results {
		assert.False(t, seen[num], "duplicate %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestGetNextNumber_PropagatesError(t *testing.T) {
	q := newMockQuerier()
	q.failErr = errors.New("relation sys_sequences does not exist")

	_, err := New(q).GetNextNumber(context.Background(), corenumerator.DefaultConfig("INV"), time.Now())
	assert.ErrorIs(t, err, q.failErr)
}
