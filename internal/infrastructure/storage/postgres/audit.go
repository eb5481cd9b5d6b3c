package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "pharmapos/internal/core/context"
	"pharmapos/internal/core/id"
	"pharmapos/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditEntry is one row of sys_audit.
type AuditEntry struct {
	ID                id.ID           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          id.ID           `db:"entity_id"`
	Action            audit.Action    `db:"action"`
	Operator          string          `db:"operator"`
	RequestID         string          `db:"request_id"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditService writes the audit trail. It joins the transaction in ctx when
// there is one, so commit entries are stored with the sale.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

var _ audit.Trail = (*AuditService)(nil)

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// LogChange implements audit.Logger.
func (s *AuditService) LogChange(ctx context.Context, entityType string, entityID id.ID, action audit.Action, changes map[string]any) error {
	changesJSON, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	entry := AuditEntry{
		ID:         id.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Operator:   appctx.Operator(ctx),
		RequestID:  appctx.RequestID(ctx),
		CreatedAt:  time.Now().UTC(),
	}
	entry.Changes, entry.ChangesCompressed, entry.CompressionAlgo = s.encode(changesJSON)

	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, operator, request_id,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		entry.ID, entry.EntityType, entry.EntityID, entry.Action, entry.Operator, entry.RequestID,
		entry.Changes, entry.ChangesCompressed, entry.CompressionAlgo, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// encode compresses payloads above the threshold.
func (s *AuditService) encode(raw []byte) (json.RawMessage, []byte, CompressionAlgo) {
	if len(raw) <= s.compressThreshold {
		return raw, nil, CompressionNone
	}
	return nil, s.encoder.EncodeAll(raw, nil), CompressionZstd
}

// decode reverses encode.
func (s *AuditService) decode(e *AuditEntry) error {
	if e.CompressionAlgo != CompressionZstd || len(e.ChangesCompressed) == 0 {
		return nil
	}
	raw, err := s.decoder.DecodeAll(e.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress changes: %w", err)
	}
	e.Changes = raw
	e.ChangesCompressed = nil
	return nil
}

// History implements audit.Reader.
func (s *AuditService) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id, entity_type, entity_id, action, operator, request_id,
		       changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e AuditEntry
		err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.Operator, &e.RequestID,
			&e.Changes, &e.ChangesCompressed, &e.CompressionAlgo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out, err := s.toEntry(&e)
		if err != nil {
			return nil, err
		}
		entries = append(entries, out)
	}

	return entries, rows.Err()
}

// toEntry decodes a stored row.
func (s *AuditService) toEntry(e *AuditEntry) (audit.Entry, error) {
	if err := s.decode(e); err != nil {
		return audit.Entry{}, err
	}
	out := audit.Entry{
		Action:    e.Action,
		Operator:  e.Operator,
		RequestID: e.RequestID,
		At:        e.CreatedAt,
	}
	if len(e.Changes) > 0 {
		if err := json.Unmarshal(e.Changes, &out.Changes); err != nil {
			return audit.Entry{}, fmt.Errorf("unmarshal changes: %w", err)
		}
	}
	return out, nil
}
