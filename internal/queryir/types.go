package queryir

import (
	"github.com/roach88/reqlgate/internal/ir"
)

// Descriptor is a validated, database-rooted query.
//
// Semantics:
//
//	r.db(<Database>).<Chain[0]>.<Chain[1]>...
//
// Database is never empty for a descriptor produced by reql.Parse. Chain may
// be empty, in which case the query selects the database itself.
type Descriptor struct {
	Database string      // Target database (from the leading db(...) call)
	Chain    []Operation // Operations applied in order
}

// Operation is one step of a descriptor chain.
//
// This is a sealed interface - only types in this package implement it.
type Operation interface {
	// Op returns the canonical (snake_case) operation name.
	Op() string

	operationNode() // Marker method - seals interface to this package
}

// Table selects a table: db('test').table('authors').
type Table struct {
	Name string
}

func (Table) Op() string     { return "table" }
func (Table) operationNode() {}

// TableCreate creates a table: db('test').table_create('authors').
// PrimaryKey is optional (empty = server default "id").
type TableCreate struct {
	Name       string
	PrimaryKey string
}

func (TableCreate) Op() string     { return "table_create" }
func (TableCreate) operationNode() {}

// TableDrop drops a table: db('test').table_drop('authors').
type TableDrop struct {
	Name string
}

func (TableDrop) Op() string     { return "table_drop" }
func (TableDrop) operationNode() {}

// TableList lists the tables of the database.
type TableList struct{}

func (TableList) Op() string     { return "table_list" }
func (TableList) operationNode() {}

// Get fetches one document by primary key.
type Get struct {
	Key ir.IRValue
}

func (Get) Op() string     { return "get" }
func (Get) operationNode() {}

// GetAll fetches documents by primary key, or by secondary index when Index
// is set.
type GetAll struct {
	Keys  []ir.IRValue
	Index string
}

func (GetAll) Op() string     { return "get_all" }
func (GetAll) operationNode() {}

// Filter keeps documents matching every field of Predicate.
//
// Only object predicates are expressible; REQL lambdas and row expressions
// are outside the closed set.
type Filter struct {
	Predicate ir.IRObject
}

func (Filter) Op() string     { return "filter" }
func (Filter) operationNode() {}

// Insert writes one document (object) or several (array of objects).
// Conflict is the optional conflict strategy: "error", "replace" or "update".
type Insert struct {
	Documents ir.IRValue
	Conflict  string
}

func (Insert) Op() string     { return "insert" }
func (Insert) operationNode() {}

// Update merges Patch into every selected document.
type Update struct {
	Patch ir.IRObject
}

func (Update) Op() string     { return "update" }
func (Update) operationNode() {}

// Replace replaces every selected document with Document.
type Replace struct {
	Document ir.IRObject
}

func (Replace) Op() string     { return "replace" }
func (Replace) operationNode() {}

// Delete removes every selected document.
type Delete struct{}

func (Delete) Op() string     { return "delete" }
func (Delete) operationNode() {}

// Count counts the documents of a sequence.
type Count struct{}

func (Count) Op() string     { return "count" }
func (Count) operationNode() {}

// Limit keeps the first N documents.
type Limit struct {
	N int64
}

func (Limit) Op() string     { return "limit" }
func (Limit) operationNode() {}

// Skip drops the first N documents.
type Skip struct {
	N int64
}

func (Skip) Op() string     { return "skip" }
func (Skip) operationNode() {}

// OrderKey is one ordering term: a field and a direction.
type OrderKey struct {
	Field      string
	Descending bool
}

// OrderBy sorts by Keys, and by a secondary Index when one is given.
// At least one of Keys and Index is set.
type OrderBy struct {
	Keys  []OrderKey
	Index *OrderKey
}

func (OrderBy) Op() string     { return "order_by" }
func (OrderBy) operationNode() {}

// Pluck keeps only Fields of each document.
type Pluck struct {
	Fields []string
}

func (Pluck) Op() string     { return "pluck" }
func (Pluck) operationNode() {}

// Without removes Fields from each document.
type Without struct {
	Fields []string
}

func (Without) Op() string     { return "without" }
func (Without) operationNode() {}
