package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/reqlgate/internal/ir"
)

// Encode returns the canonical IR form of a descriptor:
//
//	{"db": "test", "chain": [{"op": "table", "name": "authors"}, ...]}
//
// Optional arguments are omitted when unset so that db('t').table_create('x')
// and a descriptor built in code without PrimaryKey encode identically.
func Encode(d Descriptor) ir.IRObject {
	chain := make(ir.IRArray, len(d.Chain))
	for i, op := range d.Chain {
		chain[i] = encodeOperation(op)
	}
	return ir.IRObject{
		"db":    ir.IRString(d.Database),
		"chain": chain,
	}
}

// encodeOperation encodes a nil operation as {"op": null} so that
// descriptors built in code can still be fingerprinted and logged before
// Validate rejects them.
func encodeOperation(op Operation) ir.IRObject {
	if op == nil {
		return ir.IRObject{"op": ir.IRNull{}}
	}
	obj := ir.IRObject{"op": ir.IRString(op.Op())}
	switch o := op.(type) {
	case Table:
		obj["name"] = ir.IRString(o.Name)
	case TableCreate:
		obj["name"] = ir.IRString(o.Name)
		if o.PrimaryKey != "" {
			obj["primary_key"] = ir.IRString(o.PrimaryKey)
		}
	case TableDrop:
		obj["name"] = ir.IRString(o.Name)
	case Get:
		obj["key"] = orNull(o.Key)
	case GetAll:
		keys := make(ir.IRArray, len(o.Keys))
		for i, k := range o.Keys {
			keys[i] = orNull(k)
		}
		obj["keys"] = keys
		if o.Index != "" {
			obj["index"] = ir.IRString(o.Index)
		}
	case Filter:
		obj["predicate"] = o.Predicate
	case Insert:
		obj["documents"] = orNull(o.Documents)
		if o.Conflict != "" {
			obj["conflict"] = ir.IRString(o.Conflict)
		}
	case Update:
		obj["patch"] = o.Patch
	case Replace:
		obj["document"] = o.Document
	case Limit:
		obj["n"] = ir.IRInt(o.N)
	case Skip:
		obj["n"] = ir.IRInt(o.N)
	case OrderBy:
		keys := make(ir.IRArray, len(o.Keys))
		for i, k := range o.Keys {
			keys[i] = encodeOrderKey(k)
		}
		obj["keys"] = keys
		if o.Index != nil {
			obj["index"] = encodeOrderKey(*o.Index)
		}
	case Pluck:
		obj["fields"] = stringArray(o.Fields)
	case Without:
		obj["fields"] = stringArray(o.Fields)
	}
	return obj
}

func encodeOrderKey(k OrderKey) ir.IRObject {
	dir := "asc"
	if k.Descending {
		dir = "desc"
	}
	return ir.IRObject{"field": ir.IRString(k.Field), "dir": ir.IRString(dir)}
}

func stringArray(ss []string) ir.IRArray {
	out := make(ir.IRArray, len(ss))
	for i, s := range ss {
		out[i] = ir.IRString(s)
	}
	return out
}

func orNull(v ir.IRValue) ir.IRValue {
	if v == nil {
		return ir.IRNull{}
	}
	return v
}

// Fingerprint returns the content-addressed identity of a descriptor.
func Fingerprint(d Descriptor) (string, error) {
	return ir.Fingerprint(Encode(d))
}

// String renders the descriptor back to REQL text in the Python driver's
// style. The output parses to an equal descriptor.
func (d Descriptor) String() string {
	var b strings.Builder
	b.WriteString("db(")
	b.WriteString(quote(d.Database))
	b.WriteString(")")
	for _, op := range d.Chain {
		b.WriteString(".")
		if op == nil {
			b.WriteString("<nil>()")
			continue
		}
		b.WriteString(op.Op())
		b.WriteString("(")
		b.WriteString(strings.Join(renderArgs(op), ", "))
		b.WriteString(")")
	}
	return b.String()
}

func renderArgs(op Operation) []string {
	switch o := op.(type) {
	case Table:
		return []string{quote(o.Name)}
	case TableCreate:
		args := []string{quote(o.Name)}
		if o.PrimaryKey != "" {
			args = append(args, "primary_key="+quote(o.PrimaryKey))
		}
		return args
	case TableDrop:
		return []string{quote(o.Name)}
	case Get:
		return []string{renderValue(o.Key)}
	case GetAll:
		args := make([]string, 0, len(o.Keys)+1)
		for _, k := range o.Keys {
			args = append(args, renderValue(k))
		}
		if o.Index != "" {
			args = append(args, "index="+quote(o.Index))
		}
		return args
	case Filter:
		return []string{renderValue(o.Predicate)}
	case Insert:
		args := []string{renderValue(o.Documents)}
		if o.Conflict != "" {
			args = append(args, "conflict="+quote(o.Conflict))
		}
		return args
	case Update:
		return []string{renderValue(o.Patch)}
	case Replace:
		return []string{renderValue(o.Document)}
	case Limit:
		return []string{strconv.FormatInt(o.N, 10)}
	case Skip:
		return []string{strconv.FormatInt(o.N, 10)}
	case OrderBy:
		args := make([]string, 0, len(o.Keys)+1)
		for _, k := range o.Keys {
			args = append(args, renderOrderKey(k))
		}
		if o.Index != nil {
			args = append(args, "index="+renderOrderKey(*o.Index))
		}
		return args
	case Pluck:
		return quoteAll(o.Fields)
	case Without:
		return quoteAll(o.Fields)
	default:
		return nil
	}
}

func renderOrderKey(k OrderKey) string {
	if k.Descending {
		return "r.desc(" + quote(k.Field) + ")"
	}
	return quote(k.Field)
}

func renderValue(v ir.IRValue) string {
	switch val := v.(type) {
	case nil, ir.IRNull:
		return "None"
	case ir.IRString:
		return quote(string(val))
	case ir.IRInt:
		return strconv.FormatInt(int64(val), 10)
	case ir.IRFloat:
		s := strconv.FormatFloat(float64(val), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case ir.IRBool:
		if val {
			return "True"
		}
		return "False"
	case ir.IRArray:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = renderValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ir.IRObject:
		keys := val.SortedKeys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = quote(k) + ": " + renderValue(val[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("<%T>", v)
	}
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = quote(s)
	}
	return out
}

// quote renders a single-quoted string literal with backslash escapes.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
