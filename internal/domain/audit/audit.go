// Package audit defines the audit trail written by domain services.
package audit

import (
	"context"
	"time"

	"pharmapos/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	// ActionCommit is written with every committed sale.
	ActionCommit Action = "commit"

	// ActionCompensationFailed marks a ledger that could not be restored
	// after an aborted sale. Each one needs manual reconciliation.
	ActionCompensationFailed Action = "compensation_failed"
)

// Logger records audit entries. Implementations join the transaction in ctx
// when there is one.
type Logger interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error
}

// Entry is one recorded change of an entity.
type Entry struct {
	Action    Action
	Operator  string
	RequestID string
	Changes   map[string]any
	At        time.Time
}

// Reader returns the entries of one entity, newest first.
type Reader interface {
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error)
}

// Trail writes and reads the audit trail.
type Trail interface {
	Logger
	Reader
}

// NopLogger discards entries and has no history.
type NopLogger struct{}

// LogChange implements Logger.
func (NopLogger) LogChange(context.Context, string, id.ID, Action, map[string]any) error {
	return nil
}

// History implements Reader.
func (NopLogger) History(context.Context, string, id.ID, int) ([]Entry, error) {
	return nil, nil
}
