// Package result normalizes driver results into a uniform sequence of
// documents.
//
// Whatever the driver yields (a stream, a single document, a write summary
// or a scalar such as a count), callers always receive a QueryResult.
// A QueryResult from a successful call is never nil.
package result

import (
	"context"
	"errors"

	"github.com/roach88/reqlgate/internal/failure"
	"github.com/roach88/reqlgate/internal/ir"
)

// ValueKey is the key under which scalar results are wrapped:
// count() yielding 2 normalizes to [{"value": 2}].
const ValueKey = "value"

// Document is a schema-less record.
type Document map[string]any

// QueryResult is an ordered sequence of documents.
type QueryResult []Document

// Cursor is the part of a driver cursor the normalizer consumes.
// *rethinkdb.Cursor satisfies it.
type Cursor interface {
	Next(dest any) bool
	Err() error
}

// FromValue normalizes a single driver value.
//
//   - a document becomes a one-element sequence, unchanged
//   - an array becomes its elements in order, scalars wrapped
//   - nil becomes an empty sequence
//   - any other scalar becomes [{"value": v}]
func FromValue(v any) QueryResult {
	return appendValue(QueryResult{}, v)
}

func appendValue(docs QueryResult, v any) QueryResult {
	switch val := v.(type) {
	case nil:
		return docs
	case []any:
		for _, elem := range val {
			docs = append(docs, document(elem))
		}
		return docs
	default:
		return append(docs, document(val))
	}
}

func document(v any) Document {
	switch val := v.(type) {
	case Document:
		return val
	case map[string]any:
		return Document(val)
	default:
		return Document{ValueKey: v}
	}
}

// Normalize drains cur exhaustively, in stream order.
//
// An empty stream yields an empty, non-nil QueryResult. If the stream fails
// part way, no partial result is returned: the error is KindTimeout when ctx
// has expired and KindStreamInterrupted otherwise, carrying the driver
// message.
func Normalize(ctx context.Context, cur Cursor) (QueryResult, error) {
	docs := QueryResult{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, interrupted(ctx, err)
		}
		var row any
		if !cur.Next(&row) {
			break
		}
		docs = appendValue(docs, row)
	}

	if err := cur.Err(); err != nil {
		return nil, interrupted(ctx, err)
	}
	return docs, nil
}

func interrupted(ctx context.Context, err error) *failure.Error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		msg := "deadline exceeded while reading results"
		if errors.Is(ctxErr, context.Canceled) {
			msg = "cancelled while reading results"
		}
		return failure.Wrap(failure.KindTimeout, err, msg)
	}
	return failure.Wrap(failure.KindStreamInterrupted, err, "result stream interrupted: "+err.Error())
}

// Native returns the result as plain Go values for serialization.
func (q QueryResult) Native() []any {
	out := make([]any, len(q))
	for i, d := range q {
		out[i] = map[string]any(d)
	}
	return out
}

// Canonical renders the result as canonical JSON.
func Canonical(q QueryResult) ([]byte, error) {
	return ir.MarshalCanonical(q.Native())
}

// Hash returns the content hash of a result.
func Hash(q QueryResult) (string, error) {
	return ir.ResultHash(q.Native())
}
