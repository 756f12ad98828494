package mmdbval

import (
	"encoding/binary"
	"math"
)

// AppendValue appends the pre-order flattening of v to entries. Integer
// payloads are emitted at minimal width, the same way database producers
// emit them; the decoder zero-extends.
func AppendValue(entries []Entry, v Value) []Entry {
	switch v := v.(type) {
	case String:
		return append(entries, Entry{Tag: TagString, Bytes: []byte(v)})
	case Double:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(float64(v)))
		return append(entries, Entry{Tag: TagDouble, Bytes: b[:]})
	case Uint16:
		return append(entries, Entry{Tag: TagUint16, Bytes: appendUintMin(nil, uint64(v))})
	case Uint32:
		return append(entries, Entry{Tag: TagUint32, Bytes: appendUintMin(nil, uint64(v))})
	case Int32:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v))
		return append(entries, Entry{Tag: TagInt32, Bytes: b[:]})
	case Uint64:
		return append(entries, Entry{Tag: TagUint64, Bytes: appendUintMin(nil, uint64(v))})
	case Bool:
		b := []byte{0}
		if v {
			b[0] = 1
		}
		return append(entries, Entry{Tag: TagBool, Bytes: b})
	case Array:
		entries = append(entries, Entry{Tag: TagArray, Size: len(v)})
		for _, el := range v {
			entries = AppendValue(entries, el)
		}
		return entries
	case *Map:
		entries = append(entries, Entry{Tag: TagMap, Size: v.Len()})
		for i, k := range v.Keys {
			entries = append(entries, Entry{Tag: TagString, Bytes: []byte(k)})
			entries = AppendValue(entries, v.Values[i])
		}
		return entries
	case Null:
		panic("mmdbval: Null has no entry encoding")
	default:
		panic("mmdbval: unknown Value variant")
	}
}

// appendUintMin appends v as big-endian bytes without leading zeros.
// Zero encodes as an empty payload.
func appendUintMin(buf []byte, v uint64) []byte {
	n := 0
	for x := v; x != 0; x >>= 8 {
		n++
	}
	for i := n - 1; i >= 0; i-- {
		buf = append(buf, byte(v>>(8*uint(i))))
	}
	return buf
}
