package loyalty_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/entity"
	"pharmapos/internal/core/id"
	"pharmapos/internal/core/types"
	"pharmapos/internal/domain/registers/loyalty"
	"pharmapos/internal/infrastructure/storage/memory"
	"pharmapos/pkg/logger"
)

const contact = "9123456780"

func testCtx() context.Context {
	return logger.Into(context.Background(), logger.NewNop())
}

func newService(t *testing.T, points int64) *loyalty.Service {
	t.Helper()
	store := memory.New()
	store.SeedCustomer(loyalty.Customer{Contact: contact, Name: "Ravi", Points: points})
	return loyalty.NewService(store.Loyalty(), loyalty.DefaultRules())
}

func balance(t *testing.T, svc *loyalty.Service) int64 {
	t.Helper()
	c, err := svc.Get(testCtx(), contact)
	require.NoError(t, err)
	return c.Points
}

func TestRules_PointsFor(t *testing.T) {
	rules := loyalty.DefaultRules()

	assert.Equal(t, int64(0), rules.PointsFor(types.MustMoney("99.99")))
	assert.Equal(t, int64(1), rules.PointsFor(types.MustMoney("100")))
	assert.Equal(t, int64(10), rules.PointsFor(types.MustMoney("1099.50")))
	assert.Equal(t, int64(0), rules.PointsFor(types.MustMoney("-500")))
}

func TestRules_CheckRedemption(t *testing.T) {
	rules := loyalty.DefaultRules()

	assert.NoError(t, rules.CheckRedemption(0))
	assert.NoError(t, rules.CheckRedemption(50))
	assert.True(t, apperror.IsCode(rules.CheckRedemption(49), apperror.CodeBelowMinimumRedemption))
	assert.True(t, apperror.IsCode(rules.CheckRedemption(1), apperror.CodeBelowMinimumRedemption))
	assert.True(t, apperror.IsCode(rules.CheckRedemption(-5), apperror.CodeValidation))
}

func TestRedeem(t *testing.T) {
	svc := newService(t, 120)

	m, err := svc.Redeem(testCtx(), contact, 50, entity.Recorder{ID: id.New(), Type: "Sale"})
	require.NoError(t, err)
	assert.Equal(t, int64(70), m.BalanceAfter)
	assert.Equal(t, entity.PointsRedeem, m.Reason)
	assert.Equal(t, int64(70), balance(t, svc))
}

func TestRedeem_ZeroIsNoop(t *testing.T) {
	svc := newService(t, 10)

	m, err := svc.Redeem(testCtx(), contact, 0, entity.Recorder{ID: id.New()})
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.Points)
	assert.Equal(t, int64(10), balance(t, svc))
}

func TestRedeem_Rejections(t *testing.T) {
	svc := newService(t, 60)

	_, err := svc.Redeem(testCtx(), contact, 30, entity.Recorder{ID: id.New()})
	assert.True(t, apperror.IsCode(err, apperror.CodeBelowMinimumRedemption))

	_, err = svc.Redeem(testCtx(), contact, 100, entity.Recorder{ID: id.New()})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientPoints, appErr.Code)
	assert.Equal(t, int64(60), appErr.Details["balance"])

	assert.Equal(t, int64(60), balance(t, svc))
}

func TestAccrue_AndReverse(t *testing.T) {
	svc := newService(t, 0)
	rec := entity.Recorder{ID: id.New(), Type: "Sale"}

	m, err := svc.Accrue(testCtx(), contact, types.MustMoney("1000"), rec)
	require.NoError(t, err)
	assert.Equal(t, int64(10), m.Points)
	assert.Equal(t, int64(10), balance(t, svc))

	require.NoError(t, svc.Reverse(testCtx(), contact, 10, rec))
	assert.Equal(t, int64(0), balance(t, svc))
}

func TestAccrue_BelowOneUnitEarnsNothing(t *testing.T) {
	svc := newService(t, 5)

	m, err := svc.Accrue(testCtx(), contact, types.MustMoney("45"), entity.Recorder{ID: id.New()})
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.Points)
	assert.Equal(t, int64(5), balance(t, svc))
}

func TestReverse_FailsWhenPointsAlreadySpent(t *testing.T) {
	svc := newService(t, 3)

	err := svc.Reverse(testCtx(), contact, 10, entity.Recorder{ID: id.New()})
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
	assert.Equal(t, int64(3), balance(t, svc))
}

func TestRestore(t *testing.T) {
	svc := newService(t, 120)
	rec := entity.Recorder{ID: id.New(), Type: "Sale"}

	_, err := svc.Redeem(testCtx(), contact, 100, rec)
	require.NoError(t, err)
	require.NoError(t, svc.Restore(testCtx(), contact, 100, rec))
	assert.Equal(t, int64(120), balance(t, svc))

	moves, err := svc.Movements(testCtx(), contact, 10)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, entity.PointsRestore, moves[0].Reason)
	assert.Equal(t, entity.PointsRedeem, moves[1].Reason)
}

func TestEnroll(t *testing.T) {
	svc := loyalty.NewService(memory.New().Loyalty(), loyalty.DefaultRules())

	c, err := svc.Enroll(testCtx(), loyalty.Profile{Name: " Meera ", Contact: " 9000000001 "})
	require.NoError(t, err)
	assert.Equal(t, "9000000001", c.Contact)
	assert.Equal(t, "Meera", c.Name)
	assert.Equal(t, int64(0), c.Points)

	again, err := svc.Enroll(testCtx(), loyalty.Profile{Name: "Someone Else", Contact: "9000000001"})
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID)
	assert.Equal(t, "Meera", again.Name)

	_, err = svc.Enroll(testCtx(), loyalty.Profile{Name: "No Contact"})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
