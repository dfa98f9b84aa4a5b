package candid

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/storacha/go-candid/principal"
)

// Format renders a value in Candid text syntax.
func Format(v any) string {
	var sb strings.Builder
	format(&sb, v)
	return sb.String()
}

// FormatArgs renders an argument list, e.g. ("a", 1 : nat).
func FormatArgs(values []any) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, v := range values {
		if i > 0 {
			sb.WriteString(", ")
		}
		format(&sb, v)
	}
	sb.WriteByte(')')
	return sb.String()
}

func format(sb *strings.Builder, v any) {
	switch x := v.(type) {
	case nil, NullValue:
		sb.WriteString("null")
	case ReservedValue:
		sb.WriteString("reserved")
	case bool:
		sb.WriteString(strconv.FormatBool(x))
	case *big.Int:
		sb.WriteString(x.String())
	case uint8, uint16, uint32, uint64, int8, int16, int32, int64, int, uint:
		fmt.Fprintf(sb, "%d : %s", x, fixedName(x))
	case float32:
		sb.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
		sb.WriteString(" : float32")
	case float64:
		sb.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	case string:
		sb.WriteString(strconv.Quote(x))
	case principal.Principal:
		sb.WriteString("principal ")
		sb.WriteString(strconv.Quote(x.String()))
	case OptValue:
		if !x.Present {
			sb.WriteString("null")
			return
		}
		sb.WriteString("opt ")
		format(sb, x.Value)
	case []byte:
		sb.WriteString(`blob "`)
		for _, b := range x {
			fmt.Fprintf(sb, `\%02x`, b)
		}
		sb.WriteByte('"')
	case []any:
		sb.WriteString("vec {")
		for i, e := range x {
			if i > 0 {
				sb.WriteByte(';')
			}
			sb.WriteByte(' ')
			format(sb, e)
		}
		sb.WriteString(" }")
	case RecordValue:
		sb.WriteString("record {")
		for i, f := range x.Fields {
			if i > 0 {
				sb.WriteByte(';')
			}
			sb.WriteByte(' ')
			sb.WriteString(label(f.Name, f.ID))
			sb.WriteString(" = ")
			format(sb, f.Value)
		}
		sb.WriteString(" }")
	case VariantValue:
		sb.WriteString("variant { ")
		sb.WriteString(label(x.Name, x.ID))
		if _, null := x.Value.(NullValue); !null && x.Value != nil {
			sb.WriteString(" = ")
			format(sb, x.Value)
		}
		sb.WriteString(" }")
	case FuncValue:
		fmt.Fprintf(sb, "func %q.%s", x.Service.String(), x.Method)
	case ServiceValue:
		fmt.Fprintf(sb, "service %q", x.ID.String())
	default:
		fmt.Fprintf(sb, "%v", x)
	}
}

func label(name string, id uint32) string {
	if name != "" {
		return name
	}
	return strconv.FormatUint(uint64(id), 10)
}

func fixedName(v any) string {
	switch v.(type) {
	case uint8:
		return "nat8"
	case uint16:
		return "nat16"
	case uint32:
		return "nat32"
	case uint64, uint:
		return "nat64"
	case int8:
		return "int8"
	case int16:
		return "int16"
	case int32:
		return "int32"
	default:
		return "int64"
	}
}
