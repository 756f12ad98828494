package mmdbval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const indentStep = "  "

// Dump renders a value tree as indented text with type annotations.
// Like JSON rendering, map keys are sorted for display only.
func Dump(v Value) string {
	var buf strings.Builder
	if tok, ok := scalarToken(v); ok {
		buf.WriteString(tok)
		buf.WriteByte('\n')
	} else {
		dumpComposite(&buf, "", v)
	}
	return buf.String()
}

func dumpComposite(w *strings.Builder, indent string, v Value) {
	switch v := v.(type) {
	case *Map:
		keys := append([]string(nil), v.Keys...)
		sort.Strings(keys)
		for _, k := range keys {
			el, _ := v.Get(k)
			if tok, ok := scalarToken(el); ok {
				fmt.Fprintf(w, "%s%s: %s\n", indent, k, tok)
			} else {
				fmt.Fprintf(w, "%s%s:\n", indent, k)
				dumpComposite(w, indent+indentStep, el)
			}
		}
	case Array:
		for _, el := range v {
			if tok, ok := scalarToken(el); ok {
				fmt.Fprintf(w, "%s- %s\n", indent, tok)
			} else {
				fmt.Fprintf(w, "%s-\n", indent)
				dumpComposite(w, indent+indentStep, el)
			}
		}
	}
}

// scalarToken renders a scalar as a one-line token; composites return false.
func scalarToken(v Value) (string, bool) {
	switch v := v.(type) {
	case Null:
		return "null", true
	case Bool:
		return fmt.Sprintf("%v <bool>", bool(v)), true
	case Uint16:
		return fmt.Sprintf("%d <uint16>", uint16(v)), true
	case Uint32:
		return fmt.Sprintf("%d <uint32>", uint32(v)), true
	case Int32:
		return fmt.Sprintf("%d <int32>", int32(v)), true
	case Uint64:
		return fmt.Sprintf("%d <uint64>", uint64(v)), true
	case Double:
		return strconv.FormatFloat(float64(v), 'g', -1, 64) + " <double>", true
	case String:
		return fmt.Sprintf("%q <string>", string(v)), true
	default:
		return "", false
	}
}
