// Package visibility parses and evaluates cell visibility labels.
//
// A label is a boolean expression over authorization terms:
//
//	A&B
//	(A|B)&"quoted label"
//
// Terms are bare labels ([A-Za-z0-9_-:./]) or double-quoted strings with
// \" and \\ escapes. A single level may not mix & and |. The empty label
// is valid and visible to every reader.
//
// Parsing keeps enough structure that serializing a parsed expression
// reproduces its input byte for byte.
package visibility
