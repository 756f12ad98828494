package mmdbval

import (
	"encoding/binary"
	"math"
)

// Decode decodes the record rooted at entries[cursor] and returns the
// decoded value together with the cursor position immediately after the
// record's last entry. The root entry must be a map; any other tag fails
// with ErrTopLevelNotMap.
//
// The returned tree holds full copies of all payload bytes and has no
// remaining ties to the entry sequence.
func Decode(entries []Entry, cursor int) (Value, int, error) {
	if cursor < 0 || cursor >= len(entries) {
		return nil, cursor, decodeErrf(cursor, ErrUnexpectedEndOfData, "no root entry")
	}
	if entries[cursor].Tag != TagMap {
		return nil, cursor, decodeErrf(cursor, ErrTopLevelNotMap, "root tagged %v", entries[cursor].Tag)
	}
	return decodeValue(entries, cursor)
}

// DecodeRecord decodes a complete record starting at the first entry.
func DecodeRecord(entries []Entry) (*Map, error) {
	v, _, err := Decode(entries, 0)
	if err != nil {
		return nil, err
	}
	return v.(*Map), nil
}

// decodeValue is the recursive core. Each call consumes exactly the
// entries of one subtree and returns the position immediately after it;
// callers thread that position into the next child, so the sequence is
// traversed exactly once.
func decodeValue(entries []Entry, cursor int) (Value, int, error) {
	if cursor >= len(entries) {
		return nil, cursor, decodeErrf(cursor, ErrUnexpectedEndOfData, "")
	}
	e := entries[cursor]

	switch e.Tag {
	case TagString:
		return String(e.Bytes), cursor + 1, nil // string() copies the payload

	case TagDouble:
		if len(e.Bytes) != 8 {
			return nil, cursor, decodeErrf(cursor, ErrInvalidPayload, "double payload is %d bytes", len(e.Bytes))
		}
		return Double(math.Float64frombits(binary.BigEndian.Uint64(e.Bytes))), cursor + 1, nil

	case TagUint16:
		u, err := uintPayload(e.Bytes, 2, cursor)
		if err != nil {
			return nil, cursor, err
		}
		return Uint16(u), cursor + 1, nil

	case TagUint32:
		u, err := uintPayload(e.Bytes, 4, cursor)
		if err != nil {
			return nil, cursor, err
		}
		return Uint32(u), cursor + 1, nil

	case TagInt32:
		u, err := uintPayload(e.Bytes, 4, cursor)
		if err != nil {
			return nil, cursor, err
		}
		return Int32(int32(uint32(u))), cursor + 1, nil

	case TagUint64:
		u, err := uintPayload(e.Bytes, 8, cursor)
		if err != nil {
			return nil, cursor, err
		}
		return Uint64(u), cursor + 1, nil

	case TagBool:
		if len(e.Bytes) != 1 || e.Bytes[0] > 1 {
			return nil, cursor, decodeErrf(cursor, ErrInvalidPayload, "bool payload %x", e.Bytes)
		}
		return Bool(e.Bytes[0] == 1), cursor + 1, nil

	case TagArray:
		arr := make(Array, 0, e.Size)
		cur := cursor + 1
		for i := 0; i < e.Size; i++ {
			v, next, err := decodeValue(entries, cur)
			if err != nil {
				return nil, cur, err
			}
			arr = append(arr, v)
			cur = next
		}
		return arr, cur, nil

	case TagMap:
		m := NewMap(e.Size)
		cur := cursor + 1
		for i := 0; i < e.Size; i++ {
			if cur >= len(entries) {
				return nil, cur, decodeErrf(cur, ErrUnexpectedEndOfData, "map needs %d more pairs", e.Size-i)
			}
			ke := entries[cur]
			if ke.Tag != TagString {
				return nil, cur, decodeErrf(cur, ErrInvalidKeyType, "key tagged %v", ke.Tag)
			}
			key := string(ke.Bytes)
			cur++
			v, next, err := decodeValue(entries, cur)
			if err != nil {
				return nil, cur, err
			}
			m.Set(key, v) // last occurrence of a duplicate key wins
			cur = next
		}
		return m, cur, nil

	default:
		return nil, cursor, decodeErrf(cursor, ErrUnknownDataType, "%v", e.Tag)
	}
}

// uintPayload converts a big-endian integer payload of at most width bytes.
func uintPayload(b []byte, width int, cursor int) (uint64, error) {
	if len(b) > width {
		return 0, decodeErrf(cursor, ErrInvalidPayload, "%d-byte payload for %d-byte integer", len(b), width)
	}
	var u uint64
	for _, c := range b {
		u = u<<8 | uint64(c)
	}
	return u, nil
}
