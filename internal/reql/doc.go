// Package reql parses restricted REQL chain text into a queryir.Descriptor.
//
// Accepted input is a single chain rooted at db(...), written the way the
// Python or JavaScript drivers write it, without the leading "r." and
// without the trailing ".run()":
//
//	db('test').table('authors').filter({'name': 'A'}).order_by(r.desc('id'))
//
// The text is never evaluated. It is tokenized and parsed by a participle
// grammar into a raw call chain, and each call is lowered to one of the
// operations in the closed queryir set. Method names are accepted in
// snake_case and camelCase. Arguments are literals only: strings, numbers,
// booleans, null, arrays and objects, plus the asc()/desc() helpers inside
// order_by.
//
// Errors are *failure.Error. Text that is not a db-rooted chain, or that the
// grammar rejects, is KindMalformedQuery. Calls outside the closed set, bad
// arguments and misplaced operations are KindUnsupportedOperation.
package reql
