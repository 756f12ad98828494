package mmdbval

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// JSON rendering of value trees. Map keys are sorted here so the output is
// deterministic; this is purely a presentation choice, the decoded Map
// itself keeps encounter order.

func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

func (v Bool) MarshalJSON() ([]byte, error) {
	return strconv.AppendBool(nil, bool(v)), nil
}

func (v Uint16) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(v), 10), nil
}

func (v Uint32) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(v), 10), nil
}

func (v Int32) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(v), 10), nil
}

func (v Uint64) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(v), 10), nil
}

func (v Double) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(v))
}

func (v String) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

func (v Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, el := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		raw, err := json.Marshal(el)
		if err != nil {
			return nil, err
		}
		buf.Write(raw)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (m *Map) MarshalJSON() ([]byte, error) {
	idx := make([]int, len(m.Keys))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return m.Keys[idx[a]] < m.Keys[idx[b]]
	})

	var buf bytes.Buffer
	buf.WriteByte('{')
	for n, i := range idx {
		if n > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Keys[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		raw, err := json.Marshal(m.Values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
