package storage

import (
	"bytes"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/yndnr/tablesh/internal/core/domain"
)

func TestEncodeKey_RoundTrip(t *testing.T) {
	keys := []domain.Key{
		{Row: []byte("r1"), ColumnFamily: []byte("cf"), ColumnQualifier: []byte("cq"), Timestamp: 5},
		{Row: []byte("a\x00b"), ColumnFamily: []byte{0x00}, ColumnQualifier: nil, ColumnVisibility: []byte("A&B"), Timestamp: -1},
		{Row: []byte{}, Timestamp: math.MaxInt64},
		{Row: []byte{0xFF, 0x00, 0x01}, Timestamp: math.MinInt64},
	}

	for _, k := range keys {
		got, err := decodeKey(encodeKey(k))
		if err != nil {
			t.Fatalf("decodeKey(%q): %v", k.Row, err)
		}
		if got.Compare(k) != 0 || got.Timestamp != k.Timestamp {
			t.Errorf("round trip of %+v = %+v", k, got)
		}
	}
}

func TestEncodeKey_Order(t *testing.T) {
	keys := []domain.Key{
		{Row: []byte("b"), ColumnFamily: []byte("cf"), Timestamp: 1},
		{Row: []byte("a"), ColumnFamily: []byte("cf"), Timestamp: 1},
		{Row: []byte("a"), ColumnFamily: []byte("cf"), Timestamp: 9},
		{Row: []byte("a\x00"), ColumnFamily: []byte("cf"), Timestamp: 1},
		{Row: []byte("ab"), ColumnFamily: []byte("cf"), Timestamp: 1},
		{Row: []byte("a"), ColumnFamily: []byte("c"), Timestamp: 1},
		{Row: []byte("a"), ColumnFamily: []byte("cf"), ColumnQualifier: []byte("x"), Timestamp: -3},
	}

	byEncoding := append([]domain.Key(nil), keys...)
	sort.Slice(byEncoding, func(i, j int) bool {
		return bytes.Compare(encodeKey(byEncoding[i]), encodeKey(byEncoding[j])) < 0
	})
	byCompare := append([]domain.Key(nil), keys...)
	sort.Slice(byCompare, func(i, j int) bool {
		return byCompare[i].Compare(byCompare[j]) < 0
	})

	for i := range byEncoding {
		if byEncoding[i].Compare(byCompare[i]) != 0 {
			t.Fatalf("position %d: encoded order %+v, key order %+v", i, byEncoding[i], byCompare[i])
		}
	}
}

func TestDecodeKey_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"unterminated", []byte("row")},
		{"bad escape", []byte("r\x00\x07")},
		{"short timestamp", append(encodeKey(domain.Key{Row: []byte("r")})[:10:10], 0x01)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeKey(tt.in)
			if !errors.Is(err, domain.ErrCorruptKey) {
				t.Errorf("decodeKey() error = %v, want ErrCorruptKey", err)
			}
		})
	}
}

func TestTimestampBytes_Descending(t *testing.T) {
	stamps := []int64{math.MinInt64, -10, 0, 1, 1 << 40, math.MaxInt64}
	for i := 1; i < len(stamps); i++ {
		lo, hi := timestampBytes(stamps[i-1]), timestampBytes(stamps[i])
		if bytes.Compare(hi, lo) >= 0 {
			t.Errorf("timestamp %d should sort before %d", stamps[i], stamps[i-1])
		}
		if got := decodeTimestamp(hi); got != stamps[i] {
			t.Errorf("decodeTimestamp() = %d, want %d", got, stamps[i])
		}
	}
}
