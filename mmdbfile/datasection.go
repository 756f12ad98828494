package mmdbfile

import (
	"github.com/mmdbtools/mmdbval"
)

// Data section wire type codes, from the control byte's top three bits
// (or the extension byte plus 7).
const (
	typeExtended  = 0
	typePointer   = 1
	typeString    = 2
	typeDouble    = 3
	typeBytes     = 4
	typeUint16    = 5
	typeUint32    = 6
	typeMap       = 7
	typeInt32     = 8
	typeUint64    = 9
	typeUint128   = 10
	typeArray     = 11
	typeContainer = 12
	typeMarker    = 13
	typeBool      = 14
	typeFloat32   = 15
)

// maxWalkDepth bounds recursion during the walk. Pointers in a corrupt
// file can form cycles; real GeoIP records are a handful of levels deep.
const maxWalkDepth = 512

var (
	boolFalse = []byte{0}
	boolTrue  = []byte{1}
)

// walker flattens one record of the data section into a pre-order entry
// sequence. Pointers are followed inline, so the result reads as if the
// record had been stored without pointers. Payloads are copied out of the
// underlying buffer; entries stay valid after the mapping is gone.
type walker struct {
	data []byte
}

func (w *walker) record(offset int) ([]mmdbval.Entry, error) {
	entries, _, err := w.walk(nil, offset, 0)
	return entries, err
}

// walk appends the flattening of the value at offset to entries and
// returns the offset immediately after it within the data section.
func (w *walker) walk(entries []mmdbval.Entry, offset, depth int) ([]mmdbval.Entry, int, error) {
	if depth > maxWalkDepth {
		return nil, offset, formatErrf(offset, ErrCorrupt, "nesting deeper than %d, likely a pointer cycle", maxWalkDepth)
	}
	if offset < 0 || offset >= len(w.data) {
		return nil, offset, formatErrf(offset, ErrCorrupt, "truncated control byte")
	}
	ctrl := w.data[offset]
	offset++

	typ := int(ctrl >> 5)
	if typ == typeExtended {
		if offset >= len(w.data) {
			return nil, offset, formatErrf(offset, ErrCorrupt, "truncated type extension")
		}
		typ = int(w.data[offset]) + 7
		offset++
	}

	if typ == typePointer {
		target, newOffset, err := w.pointer(ctrl, offset)
		if err != nil {
			return nil, offset, err
		}
		entries, _, err = w.walk(entries, target, depth+1)
		if err != nil {
			return nil, offset, err
		}
		return entries, newOffset, nil
	}

	size, offset, err := w.payloadSize(ctrl, offset)
	if err != nil {
		return nil, offset, err
	}

	switch typ {
	case typeString:
		payload, newOffset, err := w.payload(offset, size)
		if err != nil {
			return nil, offset, err
		}
		return append(entries, mmdbval.Entry{Tag: mmdbval.TagString, Bytes: payload}), newOffset, nil

	case typeDouble:
		if size != 8 {
			return nil, offset, formatErrf(offset, ErrCorrupt, "double sized %d", size)
		}
		payload, newOffset, err := w.payload(offset, size)
		if err != nil {
			return nil, offset, err
		}
		return append(entries, mmdbval.Entry{Tag: mmdbval.TagDouble, Bytes: payload}), newOffset, nil

	case typeUint16:
		return w.scalar(entries, mmdbval.TagUint16, offset, size, 2)
	case typeUint32:
		return w.scalar(entries, mmdbval.TagUint32, offset, size, 4)
	case typeInt32:
		return w.scalar(entries, mmdbval.TagInt32, offset, size, 4)
	case typeUint64:
		return w.scalar(entries, mmdbval.TagUint64, offset, size, 8)

	case typeBool:
		// The value lives in the size field; booleans have no payload.
		switch size {
		case 0:
			return append(entries, mmdbval.Entry{Tag: mmdbval.TagBool, Bytes: boolFalse}), offset, nil
		case 1:
			return append(entries, mmdbval.Entry{Tag: mmdbval.TagBool, Bytes: boolTrue}), offset, nil
		default:
			return nil, offset, formatErrf(offset, ErrCorrupt, "bool sized %d", size)
		}

	case typeMap:
		entries = append(entries, mmdbval.Entry{Tag: mmdbval.TagMap, Size: size})
		for i := 0; i < size; i++ {
			entries, offset, err = w.walk(entries, offset, depth+1) // key
			if err != nil {
				return nil, offset, err
			}
			entries, offset, err = w.walk(entries, offset, depth+1) // value
			if err != nil {
				return nil, offset, err
			}
		}
		return entries, offset, nil

	case typeArray:
		entries = append(entries, mmdbval.Entry{Tag: mmdbval.TagArray, Size: size})
		for i := 0; i < size; i++ {
			entries, offset, err = w.walk(entries, offset, depth+1)
			if err != nil {
				return nil, offset, err
			}
		}
		return entries, offset, nil

	case typeBytes, typeUint128, typeContainer, typeMarker, typeFloat32:
		return nil, offset, formatErrf(offset, ErrUnsupportedType, "type %d", typ)

	default:
		return nil, offset, formatErrf(offset, ErrCorrupt, "unknown type %d", typ)
	}
}

func (w *walker) scalar(entries []mmdbval.Entry, tag mmdbval.Tag, offset, size, width int) ([]mmdbval.Entry, int, error) {
	if size > width {
		return nil, offset, formatErrf(offset, ErrCorrupt, "%v sized %d", tag, size)
	}
	payload, newOffset, err := w.payload(offset, size)
	if err != nil {
		return nil, offset, err
	}
	return append(entries, mmdbval.Entry{Tag: tag, Bytes: payload}), newOffset, nil
}

// payload copies size bytes out of the data section. The copy matters:
// w.data may be a memory mapping that goes away on Reader.Close.
func (w *walker) payload(offset, size int) ([]byte, int, error) {
	if offset+size > len(w.data) {
		return nil, offset, formatErrf(offset, ErrCorrupt, "payload of %d bytes overruns data section", size)
	}
	return append([]byte(nil), w.data[offset:offset+size]...), offset + size, nil
}

// payloadSize decodes the size bits of a non-pointer control byte,
// including the three extended-length forms.
func (w *walker) payloadSize(ctrl byte, offset int) (int, int, error) {
	size := int(ctrl & 0x1F)
	var extra int
	switch {
	case size < 29:
		return size, offset, nil
	case size == 29:
		extra = 1
	case size == 30:
		extra = 2
	default:
		extra = 3
	}
	if offset+extra > len(w.data) {
		return 0, offset, formatErrf(offset, ErrCorrupt, "truncated size")
	}
	n := 0
	for _, b := range w.data[offset : offset+extra] {
		n = n<<8 | int(b)
	}
	switch extra {
	case 1:
		n += 29
	case 2:
		n += 285
	case 3:
		n += 65821
	}
	return n, offset + extra, nil
}

// pointerBase holds the fixed offsets added to pointer values, indexed by
// pointer byte width.
var pointerBase = [5]int{0, 0, 2048, 526336, 0}

// pointer decodes a pointer control sequence and returns the target offset
// within the data section plus the offset immediately after the pointer.
func (w *walker) pointer(ctrl byte, offset int) (int, int, error) {
	width := int((ctrl>>3)&0x3) + 1
	if offset+width > len(w.data) {
		return 0, offset, formatErrf(offset, ErrCorrupt, "truncated pointer")
	}
	v := 0
	if width < 4 {
		v = int(ctrl & 0x7)
	}
	for _, b := range w.data[offset : offset+width] {
		v = v<<8 | int(b)
	}
	v += pointerBase[width]
	if v >= len(w.data) {
		return 0, offset, formatErrf(offset, ErrCorrupt, "pointer to %#x outside data section", v)
	}
	return v, offset + width, nil
}
