package mmdbval

import "fmt"

// Tag identifies the type of an Entry.
type Tag uint8

const (
	TagMap Tag = iota + 1
	TagArray
	TagString
	TagDouble
	TagUint16
	TagUint32
	TagInt32
	TagUint64
	TagBool
)

func (t Tag) String() string {
	switch t {
	case TagMap:
		return "map"
	case TagArray:
		return "array"
	case TagString:
		return "string"
	case TagDouble:
		return "double"
	case TagUint16:
		return "uint16"
	case TagUint32:
		return "uint32"
	case TagInt32:
		return "int32"
	case TagUint64:
		return "uint64"
	case TagBool:
		return "bool"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// Entry is one node of a pre-order flattening of a record tree.
//
// For TagMap, Size is the number of key/value pairs that follow; for
// TagArray, the number of elements. The children are the next entries in
// the sequence, each recursively flattened. Scalars occupy exactly one
// entry and ignore Size.
//
// Bytes holds the raw scalar payload: the UTF-8 run for strings, 8
// big-endian IEEE-754 bytes for doubles, up to width big-endian bytes for
// integers (shorter runs are zero-extended), and a single 0x00/0x01 byte
// for booleans. Bytes may alias a buffer owned by the producer; it is only
// guaranteed valid until that producer releases the buffer, which is why
// decoding copies all payload data out.
type Entry struct {
	Tag   Tag
	Size  int
	Bytes []byte
}
