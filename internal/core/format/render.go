package format

import (
	"strconv"
	"strings"

	"github.com/yndnr/tablesh/internal/core/domain"
	"github.com/yndnr/tablesh/pkg/visibility"
)

const hexDigits = "0123456789ABCDEF"

// Render formats e as a single display line.
func Render(e domain.Entry, showTimestamps bool) string {
	var sb strings.Builder
	k := e.Key

	appendEscaped(&sb, k.Row)
	sb.WriteByte(' ')
	appendEscaped(&sb, k.ColumnFamily)
	sb.WriteByte(':')
	appendEscaped(&sb, k.ColumnQualifier)
	sb.WriteByte(' ')
	sb.WriteString(visibilityString(k.ColumnVisibility))
	if showTimestamps {
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatInt(k.Timestamp, 10))
	}
	if len(e.Value) > 0 {
		sb.WriteByte('\t')
		appendEscaped(&sb, e.Value)
	}
	return sb.String()
}

// visibilityString returns the canonical form of a visibility label. A label
// that does not parse is shown escaped.
func visibilityString(vis []byte) string {
	expr, err := visibility.Parse(vis)
	if err != nil {
		return Escape(vis)
	}
	return expr.String()
}

// Escape returns b with non-printable bytes and backslashes escaped.
func Escape(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	appendEscaped(&sb, b)
	return sb.String()
}

func appendEscaped(sb *strings.Builder, b []byte) {
	for _, c := range b {
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c >= 0x20 && c <= 0x7E:
			sb.WriteByte(c)
		default:
			sb.WriteString(`\x`)
			sb.WriteByte(hexDigits[c>>4])
			sb.WriteByte(hexDigits[c&0x0F])
		}
	}
}

// Unescape reverses Escape. Hex digits are accepted in either case; any
// other backslash sequence is an error.
func Unescape(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		if i+1 >= len(s) {
			return nil, domain.ErrInvalidArgument.WithDetailsf("%q: trailing backslash", s)
		}
		switch s[i+1] {
		case '\\':
			out = append(out, '\\')
			i++
		case 'x':
			if i+3 >= len(s) {
				return nil, domain.ErrInvalidArgument.WithDetailsf("%q: short \\x escape at %d", s, i)
			}
			hi, ok1 := unhex(s[i+2])
			lo, ok2 := unhex(s[i+3])
			if !ok1 || !ok2 {
				return nil, domain.ErrInvalidArgument.WithDetailsf("%q: bad \\x escape at %d", s, i)
			}
			out = append(out, hi<<4|lo)
			i += 3
		default:
			return nil, domain.ErrInvalidArgument.WithDetailsf("%q: unknown escape \\%c at %d", s, s[i+1], i)
		}
	}
	return out, nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
