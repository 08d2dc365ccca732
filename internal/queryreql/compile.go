// Package queryreql compiles query descriptors to rethinkdb-go terms.
package queryreql

import (
	"fmt"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"

	"github.com/roach88/reqlgate/internal/failure"
	"github.com/roach88/reqlgate/internal/ir"
	"github.com/roach88/reqlgate/internal/queryir"
)

// Compiler compiles a queryir.Descriptor to a driver term.
//
// Every argument reaches the driver as a datum built from an IR literal, so
// the compiled term contains no functions, row references or JavaScript.
type Compiler struct{}

// NewCompiler creates a new Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile validates d and converts it to a term rooted at r.DB(d.Database).
// The returned stage reports whether the result arrives as a stream.
func (c *Compiler) Compile(d queryir.Descriptor) (r.Term, queryir.Stage, error) {
	stage, err := queryir.Validate(d)
	if err != nil {
		return r.Term{}, stage, err
	}

	term := r.DB(d.Database)
	for i, op := range d.Chain {
		term, err = c.compileOperation(term, op)
		if err != nil {
			return r.Term{}, stage, failure.Wrap(failure.KindUnsupportedOperation, err, "").
				With("operation", op.Op()).
				With("index", fmt.Sprintf("%d", i))
		}
	}
	return term, stage, nil
}

func (c *Compiler) compileOperation(t r.Term, op queryir.Operation) (r.Term, error) {
	switch o := op.(type) {
	case queryir.Table:
		return t.Table(o.Name), nil
	case queryir.TableCreate:
		if o.PrimaryKey != "" {
			return t.TableCreate(o.Name, r.TableCreateOpts{PrimaryKey: o.PrimaryKey}), nil
		}
		return t.TableCreate(o.Name), nil
	case queryir.TableDrop:
		return t.TableDrop(o.Name), nil
	case queryir.TableList:
		return t.TableList(), nil
	case queryir.Get:
		return t.Get(ir.ToNative(o.Key)), nil
	case queryir.GetAll:
		keys := natives(o.Keys)
		if o.Index != "" {
			return t.GetAllByIndex(o.Index, keys...), nil
		}
		return t.GetAll(keys...), nil
	case queryir.Filter:
		return t.Filter(ir.ToNative(o.Predicate)), nil
	case queryir.Insert:
		if o.Conflict != "" {
			return t.Insert(ir.ToNative(o.Documents), r.InsertOpts{Conflict: o.Conflict}), nil
		}
		return t.Insert(ir.ToNative(o.Documents)), nil
	case queryir.Update:
		return t.Update(ir.ToNative(o.Patch)), nil
	case queryir.Replace:
		return t.Replace(ir.ToNative(o.Document)), nil
	case queryir.Delete:
		return t.Delete(), nil
	case queryir.Count:
		return t.Count(), nil
	case queryir.Limit:
		return t.Limit(o.N), nil
	case queryir.Skip:
		return t.Skip(o.N), nil
	case queryir.OrderBy:
		return c.compileOrderBy(t, o), nil
	case queryir.Pluck:
		return t.Pluck(fieldArgs(o.Fields)...), nil
	case queryir.Without:
		return t.Without(fieldArgs(o.Fields)...), nil
	default:
		return r.Term{}, fmt.Errorf("unsupported operation type: %T", op)
	}
}

// compileOrderBy emits one Asc/Desc term per key. The index is attached as
// a raw optarg map so the Desc term is passed through unencoded.
func (c *Compiler) compileOrderBy(t r.Term, o queryir.OrderBy) r.Term {
	args := make([]any, len(o.Keys))
	for i, k := range o.Keys {
		args[i] = orderTerm(k)
	}
	term := t.OrderBy(args...)
	if o.Index != nil {
		term = term.OptArgs(map[string]any{"index": orderTerm(*o.Index)})
	}
	return term
}

func orderTerm(k queryir.OrderKey) r.Term {
	if k.Descending {
		return r.Desc(k.Field)
	}
	return r.Asc(k.Field)
}

func natives(values []ir.IRValue) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = ir.ToNative(v)
	}
	return out
}

func fieldArgs(fields []string) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = f
	}
	return out
}
