// Package format turns scanned entries into display lines.
//
// Render produces the canonical text line of an entry:
//
//	<row> <family>:<qualifier> <visibility>[ <timestamp>][\t<value>]
//
// Row, family, qualifier and value bytes are escaped with Escape: printable
// ASCII passes through, a backslash becomes \\ and every other byte becomes
// \xHH with uppercase hex digits. Unescape reverses it.
//
// A Formatter wraps the entry sequence of one scan. DefaultFormatter only
// renders. TeeFormatter copies every entry into a second table through a
// Copier before rendering it, so a line is never shown for an entry that
// was not durably mirrored.
package format
