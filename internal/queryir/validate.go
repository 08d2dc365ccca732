package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/reqlgate/internal/failure"
	"github.com/roach88/reqlgate/internal/ir"
)

// Stage is the kind of value a chain has produced so far.
type Stage int

const (
	// StageDatabase is a database handle: db('test').
	StageDatabase Stage = iota
	// StageTable is a table: accepts reads, writes and inserts.
	StageTable
	// StageSelection is a writable stream of documents (filter, get_all, ...).
	StageSelection
	// StageSingle is a writable single-document selection (get).
	StageSingle
	// StageSequence is a read-only stream (after pluck/without).
	StageSequence
	// StageObject is a read-only single document (pluck on get).
	StageObject
	// StageValue is a terminal value: write summaries, counts, table lists.
	StageValue
)

var stageNames = map[Stage]string{
	StageDatabase:  "database",
	StageTable:     "table",
	StageSelection: "selection",
	StageSingle:    "single document",
	StageSequence:  "sequence",
	StageObject:    "object",
	StageValue:     "value",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Streams reports whether results at this stage arrive as a stream of
// documents rather than a single value.
func (s Stage) Streams() bool {
	return s == StageTable || s == StageSelection || s == StageSequence
}

// transitions maps an operation name to the stages it accepts and the stage
// each produces.
var transitions = map[string]map[Stage]Stage{
	"table":        {StageDatabase: StageTable},
	"table_create": {StageDatabase: StageValue},
	"table_drop":   {StageDatabase: StageValue},
	"table_list":   {StageDatabase: StageValue},
	"get":          {StageTable: StageSingle},
	"get_all":      {StageTable: StageSelection},
	"filter":       {StageTable: StageSelection, StageSelection: StageSelection, StageSequence: StageSequence},
	"insert":       {StageTable: StageValue},
	"update":       {StageTable: StageValue, StageSelection: StageValue, StageSingle: StageValue},
	"replace":      {StageTable: StageValue, StageSelection: StageValue, StageSingle: StageValue},
	"delete":       {StageTable: StageValue, StageSelection: StageValue, StageSingle: StageValue},
	"count":        {StageTable: StageValue, StageSelection: StageValue, StageSequence: StageValue},
	"limit":        {StageTable: StageSelection, StageSelection: StageSelection, StageSequence: StageSequence},
	"skip":         {StageTable: StageSelection, StageSelection: StageSelection, StageSequence: StageSequence},
	"order_by":     {StageTable: StageSelection, StageSelection: StageSelection, StageSequence: StageSequence},
	"pluck":        {StageTable: StageSequence, StageSelection: StageSequence, StageSequence: StageSequence, StageSingle: StageObject, StageObject: StageObject},
	"without":      {StageTable: StageSequence, StageSelection: StageSequence, StageSequence: StageSequence, StageSingle: StageObject, StageObject: StageObject},
}

// Next returns the stage produced by applying op at stage s.
// ok is false when op cannot be applied there.
func Next(s Stage, op Operation) (Stage, bool) {
	accepts, known := transitions[op.Op()]
	if !known {
		return s, false
	}
	next, ok := accepts[s]
	return next, ok
}

// Validate checks a descriptor's chain shape and operation arguments.
//
// It returns the final stage of the chain. Errors are *failure.Error:
// an empty database is KindMalformedQuery; everything else is
// KindUnsupportedOperation with the operation index in Details.
//
// Validate is a pure function with no side effects.
func Validate(d Descriptor) (Stage, error) {
	if strings.TrimSpace(d.Database) == "" {
		return StageDatabase, failure.New(failure.KindMalformedQuery, "query must select a database with db('<name>')")
	}

	stage := StageDatabase
	for i, op := range d.Chain {
		if op == nil {
			return stage, unsupported(i, "<nil>", "nil operation")
		}
		if err := validateArgs(op); err != nil {
			return stage, unsupported(i, op.Op(), err.Error())
		}
		next, ok := Next(stage, op)
		if !ok {
			return stage, unsupported(i, op.Op(), fmt.Sprintf("%s() cannot be applied to a %s", op.Op(), stage))
		}
		stage = next
	}
	return stage, nil
}

func unsupported(index int, name, message string) *failure.Error {
	return failure.New(failure.KindUnsupportedOperation, "%s", message).
		With("operation", name).
		With("index", fmt.Sprintf("%d", index))
}

// validateArgs checks argument constraints that the parser also enforces,
// so descriptors built in code get the same guarantees.
func validateArgs(op Operation) error {
	switch o := op.(type) {
	case Table:
		return requireName("table name", o.Name)
	case TableCreate:
		return requireName("table name", o.Name)
	case TableDrop:
		return requireName("table name", o.Name)
	case TableList, Delete, Count:
		return nil
	case Get:
		if o.Key == nil {
			return fmt.Errorf("get() requires a key")
		}
		return nil
	case GetAll:
		if len(o.Keys) == 0 {
			return fmt.Errorf("get_all() requires at least one key")
		}
		return nil
	case Filter:
		if o.Predicate == nil {
			return fmt.Errorf("filter() requires an object predicate")
		}
		return nil
	case Insert:
		return validateInsert(o)
	case Update:
		if o.Patch == nil {
			return fmt.Errorf("update() requires an object")
		}
		return nil
	case Replace:
		if o.Document == nil {
			return fmt.Errorf("replace() requires an object")
		}
		return nil
	case Limit:
		if o.N < 0 {
			return fmt.Errorf("limit() requires a non-negative integer, got %d", o.N)
		}
		return nil
	case Skip:
		if o.N < 0 {
			return fmt.Errorf("skip() requires a non-negative integer, got %d", o.N)
		}
		return nil
	case OrderBy:
		if len(o.Keys) == 0 && o.Index == nil {
			return fmt.Errorf("order_by() requires at least one field or an index")
		}
		for _, k := range o.Keys {
			if err := requireName("order_by field", k.Field); err != nil {
				return err
			}
		}
		if o.Index != nil {
			return requireName("order_by index", o.Index.Field)
		}
		return nil
	case Pluck:
		return requireFields(o.Op(), o.Fields)
	case Without:
		return requireFields(o.Op(), o.Fields)
	default:
		return fmt.Errorf("unknown operation type %T", op)
	}
}

var conflictStrategies = map[string]bool{"": true, "error": true, "replace": true, "update": true}

func validateInsert(o Insert) error {
	if !conflictStrategies[o.Conflict] {
		return fmt.Errorf("insert() conflict must be one of error, replace, update; got %q", o.Conflict)
	}
	return validateInsertDocuments(o.Documents)
}

func requireName(what, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s must be a non-empty string", what)
	}
	return nil
}

func requireFields(op string, fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("%s() requires at least one field", op)
	}
	for _, f := range fields {
		if err := requireName(op+" field", f); err != nil {
			return err
		}
	}
	return nil
}

// validateInsertDocuments requires an object or a non-empty array of objects.
func validateInsertDocuments(v ir.IRValue) error {
	switch docs := v.(type) {
	case ir.IRObject:
		return nil
	case ir.IRArray:
		if len(docs) == 0 {
			return fmt.Errorf("insert() requires at least one document")
		}
		for i, d := range docs {
			if _, ok := d.(ir.IRObject); !ok {
				return fmt.Errorf("insert() document %d must be an OBJECT, got %s", i, ir.TypeName(d))
			}
		}
		return nil
	case nil:
		return fmt.Errorf("insert() requires a document")
	default:
		return fmt.Errorf("insert() requires an OBJECT or ARRAY, got %s", ir.TypeName(v))
	}
}
