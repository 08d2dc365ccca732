package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no execution has the requested id.
var ErrNotFound = errors.New("execution not found")

const executionColumns = `seq, id, fingerprint, query, database, address, username, status,
	message, details, documents, result_hash, duration_ms, started_at, gateway_version`

// ListExecutions returns recorded executions, newest first.
// Results are ordered deterministically: ORDER BY seq DESC.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListExecutions(ctx context.Context, opts ListOptions) ([]Execution, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var where []string
	var args []any
	if opts.Fingerprint != "" {
		where = append(where, "fingerprint = ?")
		args = append(args, opts.Fingerprint)
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, opts.Status)
	}

	query := "SELECT " + executionColumns + " FROM executions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	executions := []Execution{}
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}

	return executions, nil
}

// GetExecution returns the execution with the given id, or ErrNotFound.
func (s *Store) GetExecution(ctx context.Context, id string) (Execution, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+executionColumns+" FROM executions WHERE id = ?", id)
	e, err := scanExecution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Execution{}, fmt.Errorf("get execution %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Execution{}, err
	}
	return e, nil
}

// CountByStatus returns the number of executions per status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM executions
		GROUP BY status
		ORDER BY status COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("count executions: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanExecution(row scanner) (Execution, error) {
	var e Execution
	var detailsJSON, startedAt string
	err := row.Scan(
		&e.Seq,
		&e.ID,
		&e.Fingerprint,
		&e.Query,
		&e.Database,
		&e.Address,
		&e.User,
		&e.Status,
		&e.Message,
		&detailsJSON,
		&e.Documents,
		&e.ResultHash,
		&e.DurationMS,
		&startedAt,
		&e.GatewayVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Execution{}, err
	}
	if err != nil {
		return Execution{}, fmt.Errorf("scan execution: %w", err)
	}

	if e.Details, err = unmarshalDetails(detailsJSON); err != nil {
		return Execution{}, err
	}
	if e.StartedAt, err = unmarshalTime(startedAt); err != nil {
		return Execution{}, err
	}
	return e, nil
}
