package sale

import (
	"context"
	"errors"
	"fmt"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/entity"
	"pharmapos/internal/domain/audit"
	"pharmapos/pkg/logger"
)

// State is a stage of finalization.
//
//	Validating -> AllocatingStock -> RedeemingPoints -> AccruingPoints -> Persisting -> Committed
//	any stage after Validating -> RollingBack -> Aborted
type State string

const (
	StateValidating      State = "Validating"
	StateAllocatingStock State = "AllocatingStock"
	StateRedeemingPoints State = "RedeemingPoints"
	StateAccruingPoints  State = "AccruingPoints"
	StatePersisting      State = "Persisting"
	StateCommitted       State = "Committed"
	StateRollingBack     State = "RollingBack"
	StateAborted         State = "Aborted"
)

// compensation undoes one applied ledger step.
type compensation struct {
	step   string
	fields []any
	undo   func(ctx context.Context) error
}

// run is the mutable state of one Finalize call. It is never shared.
type run struct {
	svc      *Service
	sale     *Sale
	state    State
	recorder entity.Recorder
	undo     []compensation
}

func newRun(svc *Service, s *Sale) *run {
	return &run{
		svc:      svc,
		sale:     s,
		state:    StateValidating,
		recorder: entity.Recorder{ID: s.ID, Type: DocumentType},
	}
}

func (r *run) enter(ctx context.Context, next State) {
	logger.Debug(ctx, "sale state", "sale_id", r.sale.ID, "from", r.state, "to", next)
	r.state = next
}

func (r *run) push(c compensation) {
	r.undo = append(r.undo, c)
}

// rollback runs the compensations newest first. It ignores ctx cancellation
// and never stops early; it returns how many compensations failed.
func (r *run) rollback(ctx context.Context) int {
	ctx = context.WithoutCancel(ctx)
	r.enter(ctx, StateRollingBack)

	failed := 0
	for i := len(r.undo) - 1; i >= 0; i-- {
		c := r.undo[i]
		err := c.undo(ctx)
		if err == nil {
			continue
		}
		failed++

		fields := append([]any{
			"sale_id", r.sale.ID,
			"step", c.step,
			"error", err,
			"reconciliation_required", true,
		}, c.fields...)
		logger.Error(ctx, "compensation failed", fields...)

		changes := map[string]any{"step": c.step, "error": err.Error()}
		for j := 0; j+1 < len(c.fields); j += 2 {
			changes[fmt.Sprint(c.fields[j])] = c.fields[j+1]
		}
		if auditErr := r.svc.audit.LogChange(ctx, DocumentType, r.sale.ID, audit.ActionCompensationFailed, changes); auditErr != nil {
			logger.Error(ctx, "record compensation incident", "sale_id", r.sale.ID, "error", auditErr)
		}
	}
	r.undo = nil

	r.enter(ctx, StateAborted)
	return failed
}

// abort rolls back and returns cause annotated with the failed stage.
//
// A keyed sale may have failed because a concurrent submission of the same
// cart committed first and took the stock or points. In that case the
// committed sale is returned as a replay instead of the ledger error.
func (r *run) abort(ctx context.Context, cause error) (*Result, error) {
	stage := r.state
	failed := r.rollback(ctx)
	ctx = context.WithoutCancel(ctx)

	if key := r.sale.IdempotencyKey; key != "" {
		winner, err := r.svc.lookupPrior(ctx, key, r.sale.RequestHash)
		switch {
		case apperror.IsCode(err, apperror.CodeIdempotency):
			cause = err
		case err != nil:
			logger.Warn(ctx, "idempotency recheck failed", "sale_id", r.sale.ID, "error", err)
		case winner != nil:
			if failed > 0 {
				logger.Error(ctx, "sale replayed but not fully compensated",
					"sale_id", r.sale.ID,
					"winner_id", winner.ID,
					"failed_compensations", failed,
				)
			}
			logger.Info(ctx, "sale replayed after concurrent commit",
				"sale_id", winner.ID,
				"idempotency_key", key,
				"stage", stage,
			)
			return &Result{Sale: winner, Replayed: true}, nil
		}
	}

	appErr := classify(cause).WithDetail("stage", string(stage))
	if failed > 0 {
		appErr = appErr.WithDetail("compensation_failed", true).
			WithDetail("failed_compensations", failed)
	}

	logger.Warn(ctx, "sale aborted",
		"sale_id", r.sale.ID,
		"stage", stage,
		"code", appErr.Code,
		"compensation_failed", failed > 0,
	)
	return nil, appErr
}

// classify turns any error into the AppError reported to the caller.
func classify(err error) *apperror.AppError {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewCanceled(err)
	}
	return apperror.NewPersistenceFailure(err)
}
