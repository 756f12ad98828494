package mmdbval

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack codec for value trees. Each node is a two-element array of
// [tag, payload] so the exact scalar variant survives a round trip
// (a plain msgpack map would collapse Uint16/Uint32/Uint64 into one
// integer type). Tag 0 marks Null.

const msgpackNullTag = 0

// MarshalMsgpack encodes a value tree to msgpack bytes.
func MarshalMsgpack(v Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	err := encodeMsgpackValue(enc, v)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalMsgpack decodes a value tree from msgpack bytes produced by
// MarshalMsgpack.
func UnmarshalMsgpack(data []byte) (Value, error) {
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	v, err := decodeMsgpackValue(dec)
	msgpack.PutDecoder(dec)
	return v, err
}

func encodeMsgpackValue(enc *msgpack.Encoder, v Value) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	tag := Tag(msgpackNullTag)
	switch v.(type) {
	case Null:
	case Bool:
		tag = TagBool
	case Uint16:
		tag = TagUint16
	case Uint32:
		tag = TagUint32
	case Int32:
		tag = TagInt32
	case Uint64:
		tag = TagUint64
	case Double:
		tag = TagDouble
	case String:
		tag = TagString
	case Array:
		tag = TagArray
	case *Map:
		tag = TagMap
	default:
		return fmt.Errorf("mmdbval: cannot msgpack-encode %T", v)
	}
	if err := enc.EncodeUint8(uint8(tag)); err != nil {
		return err
	}

	switch v := v.(type) {
	case Null:
		return enc.EncodeNil()
	case Bool:
		return enc.EncodeBool(bool(v))
	case Uint16:
		return enc.EncodeUint16(uint16(v))
	case Uint32:
		return enc.EncodeUint32(uint32(v))
	case Int32:
		return enc.EncodeInt32(int32(v))
	case Uint64:
		return enc.EncodeUint64(uint64(v))
	case Double:
		return enc.EncodeFloat64(float64(v))
	case String:
		return enc.EncodeString(string(v))
	case Array:
		if err := enc.EncodeArrayLen(len(v)); err != nil {
			return err
		}
		for _, el := range v {
			if err := encodeMsgpackValue(enc, el); err != nil {
				return err
			}
		}
		return nil
	case *Map:
		if err := enc.EncodeMapLen(v.Len()); err != nil {
			return err
		}
		for i, k := range v.Keys {
			if err := enc.EncodeString(k); err != nil {
				return err
			}
			if err := encodeMsgpackValue(enc, v.Values[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func decodeMsgpackValue(dec *msgpack.Decoder) (Value, error) {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	if n != 2 {
		return nil, fmt.Errorf("mmdbval: malformed msgpack node: %d elements", n)
	}
	tag, err := dec.DecodeUint8()
	if err != nil {
		return nil, err
	}

	switch Tag(tag) {
	case msgpackNullTag:
		if err := dec.DecodeNil(); err != nil {
			return nil, err
		}
		return Null{}, nil
	case TagBool:
		b, err := dec.DecodeBool()
		return Bool(b), err
	case TagUint16:
		u, err := dec.DecodeUint16()
		return Uint16(u), err
	case TagUint32:
		u, err := dec.DecodeUint32()
		return Uint32(u), err
	case TagInt32:
		i, err := dec.DecodeInt32()
		return Int32(i), err
	case TagUint64:
		u, err := dec.DecodeUint64()
		return Uint64(u), err
	case TagDouble:
		f, err := dec.DecodeFloat64()
		return Double(f), err
	case TagString:
		s, err := dec.DecodeString()
		return String(s), err
	case TagArray:
		count, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		arr := make(Array, 0, count)
		for i := 0; i < count; i++ {
			el, err := decodeMsgpackValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, el)
		}
		return arr, nil
	case TagMap:
		count, err := dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		m := NewMap(count)
		for i := 0; i < count; i++ {
			k, err := dec.DecodeString()
			if err != nil {
				return nil, err
			}
			v, err := decodeMsgpackValue(dec)
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("mmdbval: malformed msgpack node: tag %d", tag)
	}
}
