package store

import (
	"context"
	"fmt"

	"github.com/roach88/reqlgate/internal/ir"
)

// RecordExecution appends an execution to the history.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
//
// Details are serialized to canonical JSON per RFC 8785.
func (s *Store) RecordExecution(ctx context.Context, e Execution) error {
	if e.ID == "" {
		return fmt.Errorf("record execution: id is required")
	}

	detailsJSON, err := marshalDetails(e.Details)
	if err != nil {
		return fmt.Errorf("record execution: %w", err)
	}

	version := e.GatewayVersion
	if version == "" {
		version = ir.GatewayVersion
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO executions
		(id, fingerprint, query, database, address, username, status, message, details,
		 documents, result_hash, duration_ms, started_at, gateway_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.Fingerprint,
		e.Query,
		e.Database,
		e.Address,
		e.User,
		e.Status,
		e.Message,
		detailsJSON,
		e.Documents,
		e.ResultHash,
		e.DurationMS,
		marshalTime(e.StartedAt),
		version,
	)
	if err != nil {
		return fmt.Errorf("record execution: %w", err)
	}

	return nil
}
