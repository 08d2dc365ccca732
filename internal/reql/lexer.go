package reql

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes REQL chain text.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	// Literals
	{Name: "String", Pattern: `'(?:\\.|[^'\\])*'|"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?`},

	// Identifiers: method names, kwargs, bare object keys, constants
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},

	// Punctuation
	{Name: "Punct", Pattern: `[().,=:{}\[\]]`},

	{Name: "Whitespace", Pattern: `\s+`},
})
