package mmdbfile

import (
	"encoding/binary"
	"math"
)

// secWriter builds data-section byte sequences for tests.
type secWriter struct {
	buf []byte
}

func (w *secWriter) off() int {
	return len(w.buf)
}

// control emits a control byte for typ with the given size, using the
// extended type byte for types above 7 and the extended size forms as
// needed.
func (w *secWriter) control(typ, size int) {
	var sizeBits int
	var extra []byte
	switch {
	case size < 29:
		sizeBits = size
	case size < 285:
		sizeBits = 29
		extra = []byte{byte(size - 29)}
	case size < 285+65536:
		sizeBits = 30
		extra = []byte{byte((size - 285) >> 8), byte(size - 285)}
	default:
		sizeBits = 31
		n := size - 65821
		extra = []byte{byte(n >> 16), byte(n >> 8), byte(n)}
	}
	if typ < 8 {
		w.buf = append(w.buf, byte(typ<<5|sizeBits))
	} else {
		w.buf = append(w.buf, byte(sizeBits), byte(typ-7))
	}
	w.buf = append(w.buf, extra...)
}

func (w *secWriter) str(s string) {
	w.control(typeString, len(s))
	w.buf = append(w.buf, s...)
}

func (w *secWriter) uintBytes(v uint64) []byte {
	var b []byte
	for x := v; x != 0; x >>= 8 {
		b = append([]byte{byte(x)}, b...)
	}
	return b
}

func (w *secWriter) u16(v uint16) {
	b := w.uintBytes(uint64(v))
	w.control(typeUint16, len(b))
	w.buf = append(w.buf, b...)
}

func (w *secWriter) u32(v uint32) {
	b := w.uintBytes(uint64(v))
	w.control(typeUint32, len(b))
	w.buf = append(w.buf, b...)
}

func (w *secWriter) u64(v uint64) {
	b := w.uintBytes(v)
	w.control(typeUint64, len(b))
	w.buf = append(w.buf, b...)
}

func (w *secWriter) i32(v int32) {
	w.control(typeInt32, 4)
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
}

func (w *secWriter) dbl(v float64) {
	w.control(typeDouble, 8)
	w.buf = binary.BigEndian.AppendUint64(w.buf, math.Float64bits(v))
}

func (w *secWriter) boolean(v bool) {
	size := 0
	if v {
		size = 1
	}
	w.control(typeBool, size)
}

func (w *secWriter) mapHdr(pairs int) {
	w.control(typeMap, pairs)
}

func (w *secWriter) arrHdr(n int) {
	w.control(typeArray, n)
}

// ptr emits a pointer to a data-section offset, using the narrowest width.
func (w *secWriter) ptr(target int) {
	switch {
	case target < 1<<11:
		w.buf = append(w.buf, byte(1<<5|(target>>8)&0x7), byte(target))
	case target < 2048+1<<19:
		v := target - 2048
		w.buf = append(w.buf, byte(1<<5|1<<3|(v>>16)&0x7), byte(v>>8), byte(v))
	case target < 526336+1<<27:
		v := target - 526336
		w.buf = append(w.buf, byte(1<<5|2<<3|(v>>24)&0x7), byte(v>>16), byte(v>>8), byte(v))
	default:
		w.buf = append(w.buf, byte(1<<5|3<<3))
		w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(target))
	}
}

// dbWriter assembles a complete database image: search tree, separator,
// data section, metadata.
type dbWriter struct {
	recordSize int
	nodes      [][2]int
	data       secWriter
}

// record returns the node record value that points at a data-section offset.
func (w *dbWriter) record(dataOffset int) int {
	return len(w.nodes) + dataSectionSeparatorSize + dataOffset
}

func (w *dbWriter) noData() int {
	return len(w.nodes)
}

func (w *dbWriter) bytes(meta map[string]any) []byte {
	var buf []byte
	for _, n := range w.nodes {
		left, right := n[0], n[1]
		switch w.recordSize {
		case 24:
			buf = append(buf, byte(left>>16), byte(left>>8), byte(left))
			buf = append(buf, byte(right>>16), byte(right>>8), byte(right))
		case 28:
			buf = append(buf, byte(left>>16), byte(left>>8), byte(left))
			buf = append(buf, byte(left>>24<<4|right>>24&0xF))
			buf = append(buf, byte(right>>16), byte(right>>8), byte(right))
		case 32:
			buf = binary.BigEndian.AppendUint32(buf, uint32(left))
			buf = binary.BigEndian.AppendUint32(buf, uint32(right))
		}
	}
	buf = append(buf, make([]byte, dataSectionSeparatorSize)...)
	buf = append(buf, w.data.buf...)
	buf = append(buf, metadataMarker...)

	var mw secWriter
	mw.mapHdr(len(meta))
	for _, k := range []string{
		"binary_format_major_version", "binary_format_minor_version",
		"build_epoch", "database_type", "description", "ip_version",
		"languages", "node_count", "record_size",
	} {
		v, ok := meta[k]
		if !ok {
			continue
		}
		mw.str(k)
		switch v := v.(type) {
		case int:
			mw.u16(uint16(v))
		case uint32:
			mw.u32(v)
		case uint64:
			mw.u64(v)
		case string:
			mw.str(v)
		case []string:
			mw.arrHdr(len(v))
			for _, s := range v {
				mw.str(s)
			}
		case map[string]string:
			mw.mapHdr(len(v))
			for mk, mv := range v {
				mw.str(mk)
				mw.str(mv)
			}
		}
	}
	return append(buf, mw.buf...)
}

func defaultMeta(nodeCount int, recordSize, ipVersion int) map[string]any {
	return map[string]any{
		"binary_format_major_version": 2,
		"binary_format_minor_version": 0,
		"build_epoch":                 uint64(1724100000),
		"database_type":               "Test-City",
		"description":                 map[string]string{"en": "test database"},
		"ip_version":                  ipVersion,
		"languages":                   []string{"en"},
		"node_count":                  uint32(nodeCount),
		"record_size":                 recordSize,
	}
}

// buildV4DB builds a tree with node_count 8 holding one record for
// 1.0.0.0/8: {"asn": 42, "country": {"iso_code": "T1"}}.
func buildV4DB(recordSize int) []byte {
	w := dbWriter{recordSize: recordSize}

	w.data.mapHdr(2)
	w.data.str("asn")
	w.data.u32(42)
	w.data.str("country")
	w.data.mapHdr(1)
	w.data.str("iso_code")
	w.data.str("T1")

	// Chain of 8 nodes following the bits of 0b00000001; every mismatch
	// leads to the no-data node.
	w.nodes = make([][2]int, 8)
	for i := 0; i < 8; i++ {
		bit := 0
		if i == 7 {
			bit = 1
		}
		next := i + 1
		if i == 7 {
			next = w.record(0)
		}
		if bit == 0 {
			w.nodes[i] = [2]int{next, w.noData()}
		} else {
			w.nodes[i] = [2]int{w.noData(), next}
		}
	}
	return w.bytes(defaultMeta(8, recordSize, 4))
}

// buildV6DB builds an IPv6 tree whose IPv4 subtree holds the same
// 1.0.0.0/8 record: 96 zero-bit nodes, then the 8-node chain.
func buildV6DB(recordSize int) []byte {
	w := dbWriter{recordSize: recordSize}

	w.data.mapHdr(1)
	w.data.str("country")
	w.data.mapHdr(1)
	w.data.str("iso_code")
	w.data.str("T6")

	w.nodes = make([][2]int, 104)
	for i := 0; i < 96; i++ {
		w.nodes[i] = [2]int{i + 1, w.noData()}
	}
	for i := 0; i < 8; i++ {
		n := 96 + i
		bit := 0
		if i == 7 {
			bit = 1
		}
		next := n + 1
		if i == 7 {
			next = w.record(0)
		}
		if bit == 0 {
			w.nodes[n] = [2]int{next, w.noData()}
		} else {
			w.nodes[n] = [2]int{w.noData(), next}
		}
	}
	return w.bytes(defaultMeta(104, recordSize, 6))
}
