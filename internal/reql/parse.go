package reql

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/roach88/reqlgate/internal/failure"
	"github.com/roach88/reqlgate/internal/ir"
	"github.com/roach88/reqlgate/internal/queryir"
)

// dbPrefix must match at the very start of the trimmed query. A db( that
// appears later in the text does not count.
var dbPrefix = regexp.MustCompile(`\Adb\(`)

// Parse parses REQL chain text into a validated descriptor.
//
// Parse is pure: it performs no I/O and equal inputs yield equal
// descriptors.
func Parse(raw string) (queryir.Descriptor, error) {
	text := strings.TrimSpace(raw)
	if !dbPrefix.MatchString(text) {
		return queryir.Descriptor{}, failure.New(failure.KindMalformedQuery,
			"query must start with db('<name>')")
	}

	chain, err := parseRaw(text)
	if err != nil {
		return queryir.Descriptor{}, syntaxError(err)
	}

	desc, err := lower(chain)
	if err != nil {
		return queryir.Descriptor{}, err
	}
	if _, err := queryir.Validate(desc); err != nil {
		return queryir.Descriptor{}, err
	}
	return desc, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests.
func MustParse(raw string) queryir.Descriptor {
	d, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func syntaxError(err error) *failure.Error {
	fe := failure.Wrap(failure.KindMalformedQuery, err, "invalid query syntax: "+err.Error())
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		fe = failure.New(failure.KindMalformedQuery, "invalid query syntax: %s", perr.Message()).
			With("position", strconv.Itoa(pos.Column))
		fe.Err = err
	}
	return fe
}

func lower(chain *rawChain) (queryir.Descriptor, error) {
	first := chain.Calls[0]
	db, err := lowerDB(first)
	if err != nil {
		return queryir.Descriptor{}, err
	}

	ops := make([]queryir.Operation, 0, len(chain.Calls)-1)
	for i, call := range chain.Calls[1:] {
		op, err := lowerCall(call)
		if err != nil {
			var fe *failure.Error
			if errors.As(err, &fe) && fe.Kind == failure.KindUnsupportedOperation {
				return queryir.Descriptor{}, fe.With("index", strconv.Itoa(i))
			}
			return queryir.Descriptor{}, err
		}
		ops = append(ops, op)
	}
	return queryir.Descriptor{Database: db, Chain: ops}, nil
}

func lowerDB(call *rawCall) (string, error) {
	if call.Name != "db" {
		return "", failure.New(failure.KindMalformedQuery, "query must start with db('<name>')")
	}
	pos, kw, err := splitArgs(call)
	if err != nil {
		return "", err
	}
	if len(kw) > 0 || len(pos) != 1 || pos[0].String == nil {
		return "", failure.New(failure.KindMalformedQuery, "db() takes exactly one string argument")
	}
	name, err := unquote(*pos[0].String)
	if err != nil {
		return "", failure.Wrap(failure.KindMalformedQuery, err, "")
	}
	if strings.TrimSpace(name) == "" {
		return "", failure.New(failure.KindMalformedQuery, "db() name must not be empty")
	}
	return name, nil
}

// aliases maps JavaScript driver spellings to canonical names.
var aliases = map[string]string{
	"tableCreate": "table_create",
	"tableDrop":   "table_drop",
	"tableList":   "table_list",
	"getAll":      "get_all",
	"orderBy":     "order_by",
}

// CanonicalName returns the snake_case name for a method name, accepting
// both driver spellings.
func CanonicalName(name string) string {
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}

type builder func(pos []*rawValue, kw map[string]*rawValue) (queryir.Operation, error)

var builders map[string]builder

func init() {
	builders = map[string]builder{
		"table":        buildTable,
		"table_create": buildTableCreate,
		"table_drop":   buildTableDrop,
		"table_list":   buildNoArgs(queryir.TableList{}),
		"get":          buildGet,
		"get_all":      buildGetAll,
		"filter":       buildFilter,
		"insert":       buildInsert,
		"update":       buildUpdate,
		"replace":      buildReplace,
		"delete":       buildNoArgs(queryir.Delete{}),
		"count":        buildNoArgs(queryir.Count{}),
		"limit":        buildLimit,
		"skip":         buildSkip,
		"order_by":     buildOrderBy,
		"pluck":        buildPluck,
		"without":      buildWithout,
	}
}

// Supported returns the canonical names of every supported operation,
// sorted.
func Supported() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// allowedKwargs lists the keyword arguments each operation takes.
var allowedKwargs = map[string][]string{
	"table_create": {"primary_key"},
	"get_all":      {"index"},
	"insert":       {"conflict"},
	"order_by":     {"index"},
}

func lowerCall(call *rawCall) (queryir.Operation, error) {
	name := CanonicalName(call.Name)
	switch name {
	case "db":
		return nil, failure.New(failure.KindMalformedQuery, "query must select exactly one database")
	case "run":
		return nil, failure.New(failure.KindMalformedQuery, "run() is appended by the gateway; remove it from the query")
	}

	build, ok := builders[name]
	if !ok {
		return nil, unsupported(call.Name, "%s() is not a supported operation", call.Name)
	}

	pos, kw, err := splitArgs(call)
	if err != nil {
		return nil, err
	}
	for key := range kw {
		if !contains(allowedKwargs[name], key) {
			return nil, unsupported(name, "%s() does not accept %s=", name, key)
		}
	}
	return build(pos, kw)
}

// splitArgs separates positional and keyword arguments. Positional
// arguments may not follow keyword arguments and a keyword may appear once.
func splitArgs(call *rawCall) ([]*rawValue, map[string]*rawValue, error) {
	var pos []*rawValue
	kw := map[string]*rawValue{}
	for _, arg := range call.Args {
		if arg.Key == nil {
			if len(kw) > 0 {
				return nil, nil, failure.New(failure.KindMalformedQuery,
					"%s(): positional argument follows keyword argument", call.Name).
					With("position", strconv.Itoa(arg.Pos.Column))
			}
			pos = append(pos, arg.Value)
			continue
		}
		if _, dup := kw[*arg.Key]; dup {
			return nil, nil, failure.New(failure.KindMalformedQuery,
				"%s(): keyword argument %s repeated", call.Name, *arg.Key).
				With("position", strconv.Itoa(arg.Pos.Column))
		}
		kw[*arg.Key] = arg.Value
	}
	return pos, kw, nil
}

func unsupported(op, format string, args ...any) *failure.Error {
	return failure.New(failure.KindUnsupportedOperation, format, args...).With("operation", op)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func arity(name string, pos []*rawValue, want int) error {
	if len(pos) != want {
		plural := "s"
		if want == 1 {
			plural = ""
		}
		return unsupported(name, "%s() takes exactly %d argument%s, got %d", name, want, plural, len(pos))
	}
	return nil
}

func buildNoArgs(op queryir.Operation) builder {
	return func(pos []*rawValue, _ map[string]*rawValue) (queryir.Operation, error) {
		if err := arity(op.Op(), pos, 0); err != nil {
			return nil, err
		}
		return op, nil
	}
}

func buildTable(pos []*rawValue, _ map[string]*rawValue) (queryir.Operation, error) {
	name, err := singleString("table", pos)
	if err != nil {
		return nil, err
	}
	return queryir.Table{Name: name}, nil
}

func buildTableCreate(pos []*rawValue, kw map[string]*rawValue) (queryir.Operation, error) {
	name, err := singleString("table_create", pos)
	if err != nil {
		return nil, err
	}
	op := queryir.TableCreate{Name: name}
	if v, ok := kw["primary_key"]; ok {
		if op.PrimaryKey, err = stringValue("table_create", "primary_key", v); err != nil {
			return nil, err
		}
	}
	return op, nil
}

func buildTableDrop(pos []*rawValue, _ map[string]*rawValue) (queryir.Operation, error) {
	name, err := singleString("table_drop", pos)
	if err != nil {
		return nil, err
	}
	return queryir.TableDrop{Name: name}, nil
}

func buildGet(pos []*rawValue, _ map[string]*rawValue) (queryir.Operation, error) {
	if err := arity("get", pos, 1); err != nil {
		return nil, err
	}
	key, err := literal("get", pos[0])
	if err != nil {
		return nil, err
	}
	if _, isNull := key.(ir.IRNull); isNull {
		return nil, unsupported("get", "get() key cannot be null")
	}
	return queryir.Get{Key: key}, nil
}

func buildGetAll(pos []*rawValue, kw map[string]*rawValue) (queryir.Operation, error) {
	if len(pos) == 0 {
		return nil, unsupported("get_all", "get_all() requires at least one key")
	}
	op := queryir.GetAll{Keys: make([]ir.IRValue, len(pos))}
	for i, v := range pos {
		key, err := literal("get_all", v)
		if err != nil {
			return nil, err
		}
		op.Keys[i] = key
	}
	if v, ok := kw["index"]; ok {
		index, err := stringValue("get_all", "index", v)
		if err != nil {
			return nil, err
		}
		op.Index = index
	}
	return op, nil
}

func buildFilter(pos []*rawValue, _ map[string]*rawValue) (queryir.Operation, error) {
	obj, err := singleObject("filter", pos)
	if err != nil {
		return nil, err
	}
	return queryir.Filter{Predicate: obj}, nil
}

func buildInsert(pos []*rawValue, kw map[string]*rawValue) (queryir.Operation, error) {
	if err := arity("insert", pos, 1); err != nil {
		return nil, err
	}
	docs, err := literal("insert", pos[0])
	if err != nil {
		return nil, err
	}
	op := queryir.Insert{Documents: docs}
	if v, ok := kw["conflict"]; ok {
		if op.Conflict, err = stringValue("insert", "conflict", v); err != nil {
			return nil, err
		}
	}
	return op, nil
}

func buildUpdate(pos []*rawValue, _ map[string]*rawValue) (queryir.Operation, error) {
	obj, err := singleObject("update", pos)
	if err != nil {
		return nil, err
	}
	return queryir.Update{Patch: obj}, nil
}

func buildReplace(pos []*rawValue, _ map[string]*rawValue) (queryir.Operation, error) {
	obj, err := singleObject("replace", pos)
	if err != nil {
		return nil, err
	}
	return queryir.Replace{Document: obj}, nil
}

func buildLimit(pos []*rawValue, _ map[string]*rawValue) (queryir.Operation, error) {
	n, err := singleCount("limit", pos)
	if err != nil {
		return nil, err
	}
	return queryir.Limit{N: n}, nil
}

func buildSkip(pos []*rawValue, _ map[string]*rawValue) (queryir.Operation, error) {
	n, err := singleCount("skip", pos)
	if err != nil {
		return nil, err
	}
	return queryir.Skip{N: n}, nil
}

func buildOrderBy(pos []*rawValue, kw map[string]*rawValue) (queryir.Operation, error) {
	var op queryir.OrderBy
	for _, v := range pos {
		key, err := orderKey(v)
		if err != nil {
			return nil, err
		}
		op.Keys = append(op.Keys, key)
	}
	if v, ok := kw["index"]; ok {
		key, err := orderKey(v)
		if err != nil {
			return nil, err
		}
		op.Index = &key
	}
	if len(op.Keys) == 0 && op.Index == nil {
		return nil, unsupported("order_by", "order_by() requires at least one field or index=")
	}
	return op, nil
}

func buildPluck(pos []*rawValue, _ map[string]*rawValue) (queryir.Operation, error) {
	fields, err := stringList("pluck", pos)
	if err != nil {
		return nil, err
	}
	return queryir.Pluck{Fields: fields}, nil
}

func buildWithout(pos []*rawValue, _ map[string]*rawValue) (queryir.Operation, error) {
	fields, err := stringList("without", pos)
	if err != nil {
		return nil, err
	}
	return queryir.Without{Fields: fields}, nil
}

// orderKey lowers 'field', asc('field') or r.desc('field').
func orderKey(v *rawValue) (queryir.OrderKey, error) {
	if v.Helper == nil {
		field, err := stringValue("order_by", "field", v)
		return queryir.OrderKey{Field: field}, err
	}
	h := v.Helper
	if h.Name != "asc" && h.Name != "desc" {
		return queryir.OrderKey{}, unsupported("order_by", "%s() is not supported in order_by()", helperName(h))
	}
	if len(h.Args) != 1 || h.Args[0].String == nil {
		return queryir.OrderKey{}, unsupported("order_by", "%s() takes exactly one string argument", helperName(h))
	}
	field, err := unquote(*h.Args[0].String)
	if err != nil {
		return queryir.OrderKey{}, failure.Wrap(failure.KindMalformedQuery, err, "")
	}
	return queryir.OrderKey{Field: field, Descending: h.Name == "desc"}, nil
}

func helperName(h *rawHelper) string {
	if h.Prefix {
		return "r." + h.Name
	}
	return h.Name
}

func singleString(op string, pos []*rawValue) (string, error) {
	if err := arity(op, pos, 1); err != nil {
		return "", err
	}
	return stringValue(op, "argument", pos[0])
}

func singleObject(op string, pos []*rawValue) (ir.IRObject, error) {
	if err := arity(op, pos, 1); err != nil {
		return nil, err
	}
	v, err := literal(op, pos[0])
	if err != nil {
		return nil, err
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, unsupported(op, "%s() requires an OBJECT, got %s", op, ir.TypeName(v))
	}
	return obj, nil
}

func singleCount(op string, pos []*rawValue) (int64, error) {
	if err := arity(op, pos, 1); err != nil {
		return 0, err
	}
	v, err := literal(op, pos[0])
	if err != nil {
		return 0, err
	}
	n, ok := v.(ir.IRInt)
	if !ok || n < 0 {
		return 0, unsupported(op, "%s() requires a non-negative integer", op)
	}
	return int64(n), nil
}

func stringList(op string, pos []*rawValue) ([]string, error) {
	if len(pos) == 0 {
		return nil, unsupported(op, "%s() requires at least one field", op)
	}
	fields := make([]string, len(pos))
	for i, v := range pos {
		s, err := stringValue(op, "field", v)
		if err != nil {
			return nil, err
		}
		fields[i] = s
	}
	return fields, nil
}

func stringValue(op, what string, v *rawValue) (string, error) {
	if v.String == nil {
		return "", unsupported(op, "%s() %s must be a string", op, what)
	}
	s, err := unquote(*v.String)
	if err != nil {
		return "", failure.Wrap(failure.KindMalformedQuery, err, "")
	}
	return s, nil
}

// literal lowers a raw value to an IR literal. Helpers are only meaningful
// inside order_by and are rejected here.
func literal(op string, v *rawValue) (ir.IRValue, error) {
	switch {
	case v.String != nil:
		s, err := unquote(*v.String)
		if err != nil {
			return nil, failure.Wrap(failure.KindMalformedQuery, err, "")
		}
		return ir.IRString(s), nil
	case v.Number != nil:
		return number(*v.Number)
	case v.Const != nil:
		switch *v.Const {
		case "True", "true":
			return ir.IRBool(true), nil
		case "False", "false":
			return ir.IRBool(false), nil
		default:
			return ir.IRNull{}, nil
		}
	case v.Object != nil:
		obj := make(ir.IRObject, len(v.Object.Entries))
		for _, e := range v.Object.Entries {
			key := e.Key
			if strings.HasPrefix(key, "'") || strings.HasPrefix(key, `"`) {
				var err error
				if key, err = unquote(key); err != nil {
					return nil, failure.Wrap(failure.KindMalformedQuery, err, "")
				}
			}
			val, err := literal(op, e.Value)
			if err != nil {
				return nil, err
			}
			obj[key] = val
		}
		return obj, nil
	case v.Array != nil:
		arr := make(ir.IRArray, len(v.Array.Elements))
		for i, elem := range v.Array.Elements {
			val, err := literal(op, elem)
			if err != nil {
				return nil, err
			}
			arr[i] = val
		}
		return arr, nil
	case v.Helper != nil:
		return nil, unsupported(op, "%s() is not supported here; only literal arguments are allowed", helperName(v.Helper))
	default:
		return nil, failure.New(failure.KindMalformedQuery, "empty value")
	}
}

// number parses an integer literal as IRInt and anything with a fraction or
// exponent, or out of int64 range, as IRFloat.
func number(text string) (ir.IRValue, error) {
	if !strings.ContainsAny(text, ".eE") {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return ir.IRInt(n), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, failure.Wrap(failure.KindMalformedQuery, err, "")
	}
	return ir.IRFloat(f), nil
}

// unquote strips the quotes of a single- or double-quoted literal and
// resolves backslash escapes.
func unquote(lit string) (string, error) {
	if len(lit) < 2 {
		return "", fmt.Errorf("invalid string literal %s", lit)
	}
	quote := lit[0]
	body := lit[1 : len(lit)-1]
	var b strings.Builder
	for len(body) > 0 {
		// strconv only accepts an escaped quote matching the delimiter.
		if len(body) > 1 && body[0] == '\\' && (body[1] == '\'' || body[1] == '"') {
			b.WriteByte(body[1])
			body = body[2:]
			continue
		}
		r, multibyte, tail, err := strconv.UnquoteChar(body, quote)
		if err != nil {
			return "", fmt.Errorf("invalid escape in %s: %w", lit, err)
		}
		if r < 0x80 && !multibyte {
			b.WriteByte(byte(r))
		} else {
			b.WriteRune(r)
		}
		body = tail
	}
	return b.String(), nil
}
