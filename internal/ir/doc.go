// Package ir provides the literal value types carried by query descriptors.
//
// Query arguments such as filter predicates, inserted documents and primary
// keys are parsed into IRValue trees instead of being evaluated. The tree is
// closed: IRNull, IRString, IRInt, IRFloat, IRBool, IRArray and IRObject are
// the only implementations.
//
// This package imports nothing internal. Every other package may import it.
//
// Canonical JSON (RFC 8785 key ordering, NFC-normalized strings, no HTML
// escaping) is used wherever bytes must be stable: descriptor fingerprints,
// check-mode output and golden files.
package ir
