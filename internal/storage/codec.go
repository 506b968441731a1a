package storage

import (
	"encoding/binary"
	"math"

	"github.com/yndnr/tablesh/internal/core/domain"
)

// Keyspace prefixes. Every key starts with one of these.
var (
	catalogPrefix  = []byte("c\x00")
	propertyPrefix = []byte("p\x00")
	dataPrefix     = []byte("d\x00")
)

// Component encoding: 0x00 is escaped as 0x00 0xFF and every component is
// terminated by 0x00 0x01. This keeps byte order across variable-length
// components.
const (
	escByte  = 0x00
	escFF    = 0xFF
	termByte = 0x01
)

func catalogKey(name string) []byte {
	return append(append([]byte{}, catalogPrefix...), name...)
}

func propertyTablePrefix(id string) []byte {
	k := append(append([]byte{}, propertyPrefix...), id...)
	return append(k, 0x00)
}

func propertyKey(id, prop string) []byte {
	return append(propertyTablePrefix(id), prop...)
}

func dataTablePrefix(id string) []byte {
	k := append(append([]byte{}, dataPrefix...), id...)
	return append(k, 0x00)
}

func appendComponent(dst, b []byte) []byte {
	for _, c := range b {
		if c == escByte {
			dst = append(dst, escByte, escFF)
			continue
		}
		dst = append(dst, c)
	}
	return append(dst, escByte, termByte)
}

// appendEscaped writes b without a terminator, for seeking to the first
// component >= b.
func appendEscaped(dst, b []byte) []byte {
	for _, c := range b {
		if c == escByte {
			dst = append(dst, escByte, escFF)
			continue
		}
		dst = append(dst, c)
	}
	return dst
}

// timestampBytes maps a signed timestamp so that larger values sort first.
func timestampBytes(ts int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], ^(uint64(ts) ^ (1 << 63)))
	return b[:]
}

func decodeTimestamp(b []byte) int64 {
	return int64(^binary.BigEndian.Uint64(b) ^ (1 << 63))
}

// columnPrefix encodes row, family, qualifier and visibility. All versions
// of one column share it.
func columnPrefix(id string, row, family, qualifier, vis []byte) []byte {
	k := dataTablePrefix(id)
	k = appendComponent(k, row)
	k = appendComponent(k, family)
	k = appendComponent(k, qualifier)
	return appendComponent(k, vis)
}

func dataKey(id string, k domain.Key) []byte {
	p := columnPrefix(id, k.Row, k.ColumnFamily, k.ColumnQualifier, k.ColumnVisibility)
	return append(p, timestampBytes(k.Timestamp)...)
}

// encodeKey encodes k without the table prefix.
func encodeKey(k domain.Key) []byte {
	var b []byte
	b = appendComponent(b, k.Row)
	b = appendComponent(b, k.ColumnFamily)
	b = appendComponent(b, k.ColumnQualifier)
	b = appendComponent(b, k.ColumnVisibility)
	return append(b, timestampBytes(k.Timestamp)...)
}

// decodeKey reverses encodeKey.
func decodeKey(b []byte) (domain.Key, error) {
	var k domain.Key
	var parts [4][]byte
	rest := b
	for i := range parts {
		comp, n, ok := readComponent(rest)
		if !ok {
			return domain.Key{}, domain.ErrCorruptKey.WithDetailsf("component %d", i)
		}
		parts[i] = comp
		rest = rest[n:]
	}
	if len(rest) != 8 {
		return domain.Key{}, domain.ErrCorruptKey.WithDetails("timestamp length")
	}
	k.Row, k.ColumnFamily, k.ColumnQualifier, k.ColumnVisibility = parts[0], parts[1], parts[2], parts[3]
	k.Timestamp = decodeTimestamp(rest)
	return k, nil
}

func readComponent(b []byte) ([]byte, int, bool) {
	out := make([]byte, 0, 16)
	for i := 0; i < len(b); i++ {
		if b[i] != escByte {
			out = append(out, b[i])
			continue
		}
		if i+1 >= len(b) {
			return nil, 0, false
		}
		switch b[i+1] {
		case escFF:
			out = append(out, escByte)
			i++
		case termByte:
			return out, i + 2, true
		default:
			return nil, 0, false
		}
	}
	return nil, 0, false
}

// maxTimestamp is the timestamp a delete without one applies at.
const maxTimestamp = math.MaxInt64
