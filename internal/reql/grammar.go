package reql

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// rawChain is the parse tree of a whole query. It is lowered to a
// queryir.Descriptor after parsing.
type rawChain struct {
	Pos   lexer.Position
	Calls []*rawCall `@@ ( "." @@ )*`
}

// rawCall is one method call: name(args...).
type rawCall struct {
	Pos  lexer.Position
	Name string    `@Ident "("`
	Args []*rawArg `( @@ ( "," @@ )* ","? )? ")"`
}

// rawArg is a positional argument or a keyword argument (index='x').
type rawArg struct {
	Pos   lexer.Position
	Key   *string   `( @Ident "=" )?`
	Value *rawValue `@@`
}

// rawValue is a literal or an r.asc()/r.desc() helper.
type rawValue struct {
	Pos    lexer.Position
	String *string    `  @String`
	Number *string    `| @Number`
	Const  *string    `| @( "True" | "False" | "None" | "true" | "false" | "null" )`
	Helper *rawHelper `| @@`
	Object *rawObject `| @@`
	Array  *rawArray  `| @@`
}

// rawHelper is a helper call such as r.desc('id') or asc('name').
type rawHelper struct {
	Pos    lexer.Position
	Prefix bool        `( @"r" "." )?`
	Name   string      `@Ident "("`
	Args   []*rawValue `( @@ ( "," @@ )* )? ")"`
}

// rawObject is an object literal. Keys may be quoted or bare identifiers.
type rawObject struct {
	Pos     lexer.Position
	Entries []*rawEntry `"{" ( @@ ( "," @@ )* ","? )? "}"`
}

type rawEntry struct {
	Pos   lexer.Position
	Key   string    `( @String | @Ident ) ":"`
	Value *rawValue `@@`
}

// rawArray is an array literal.
type rawArray struct {
	Pos      lexer.Position
	Elements []*rawValue `"[" ( @@ ( "," @@ )* ","? )? "]"`
}

// parser is the Participle parser instance.
var parser = participle.MustBuild[rawChain](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(4),
)

func parseRaw(text string) (*rawChain, error) {
	return parser.ParseString("", strings.TrimSpace(text))
}
