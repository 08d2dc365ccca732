// Package queryir provides the typed query descriptor that sits between the
// REQL text parser and the database driver.
//
// ARCHITECTURE:
//
//	[query text] → reql.Parse → [Descriptor] → queryreql.Compile → [driver term]
//
// A Descriptor names exactly one database and then a chain of operations
// drawn from a closed set. Nothing outside that set can be expressed, so a
// descriptor can never smuggle arbitrary code to the driver.
//
// SEALED INTERFACES:
//
// Operation is a sealed interface using the marker method pattern. Only
// types in this package implement it, which keeps type switches in the
// compiler exhaustive:
//
//	switch op := op.(type) {
//	case Table:
//	    // r.DB(...).Table(op.Name)
//	case Filter:
//	    // term.Filter(op.Predicate)
//	default:
//	    // impossible - the set is closed
//	}
//
// CHAIN SHAPE:
//
// Each operation accepts some stages and produces one (see Stage). Validate
// walks the chain from StageDatabase and rejects an operation applied to a
// stage it cannot accept, e.g. insert on a filtered selection or anything
// after count. Table names, field names and argument semantics beyond their
// literal types are left to the server.
//
// IDENTITY:
//
// Encode produces a canonical ir.IRObject for a descriptor. Fingerprint
// hashes it, so two queries that differ only in whitespace, quote style or
// snake_case versus camelCase method names share a fingerprint.
package queryir
