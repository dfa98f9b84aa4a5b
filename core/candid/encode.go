package candid

import (
	"encoding/binary"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"unicode/utf8"

	"github.com/storacha/go-candid/core/leb128"
	"github.com/storacha/go-candid/principal"
)

// Magic starts every Candid message.
var Magic = []byte("DIDL")

// Header builds the static prefix of a message whose arguments have the given
// types: magic, type table and argument type references. The types are
// registered in table first, so the table may already hold labels.
func Header(table *TypeTable, types []Type) ([]byte, error) {
	idxs := make([]int64, len(types))
	for i, t := range types {
		idx, err := table.IndexFor(t)
		if err != nil {
			return nil, err
		}
		idxs[i] = idx
	}
	size := len(Magic) + table.Size() + leb128.SizeUnsigned(uint64(len(types)))
	for _, idx := range idxs {
		size += leb128.SizeSigned(idx)
	}
	b := make([]byte, 0, size)
	b = append(b, Magic...)
	b = table.AppendTo(b)
	b = leb128.AppendUnsigned(b, uint64(len(types)))
	for _, idx := range idxs {
		b = leb128.AppendSigned(b, idx)
	}
	return b, nil
}

// Marshal encodes values as a complete message with a fresh type table.
func Marshal(types []Type, values []any) ([]byte, error) {
	return MarshalWith(NewTypeTable(), types, values)
}

// MarshalWith encodes values using a table that may hold labels already.
func MarshalWith(table *TypeTable, types []Type, values []any) ([]byte, error) {
	header, err := Header(table, types)
	if err != nil {
		return nil, err
	}
	return AppendValues(header, types, values)
}

// AppendValues appends the encoded values to a header produced by Header for
// the same types. The output buffer is sized exactly once from SizeOf.
func AppendValues(header []byte, types []Type, values []any) ([]byte, error) {
	if len(types) != len(values) {
		return nil, encodeError(TypeMismatch, "", "expected %d values, got %d", len(types), len(values))
	}
	size := len(header)
	for i, t := range types {
		n, err := sizeOf(t, values[i], argPath(i))
		if err != nil {
			return nil, err
		}
		size += n
	}
	out := make([]byte, 0, size)
	out = append(out, header...)
	for i, t := range types {
		var err error
		if out, err = appendValue(out, t, values[i], argPath(i)); err != nil {
			return nil, err
		}
	}
	if len(out) != size {
		return nil, sizeMismatch(size, len(out))
	}
	return out, nil
}

// SizeOf returns the number of bytes AppendValue writes for v as t.
func SizeOf(t Type, v any) (int, error) {
	return sizeOf(t, v, "")
}

// AppendValue appends the encoding of v as t to dst.
func AppendValue(dst []byte, t Type, v any) ([]byte, error) {
	return appendValue(dst, t, v, "")
}

// EncodeValue writes the encoding of v as t into dst, which must be large
// enough, and returns the number of bytes written.
func EncodeValue(dst []byte, t Type, v any) (int, error) {
	n, err := SizeOf(t, v)
	if err != nil {
		return 0, err
	}
	if len(dst) < n {
		return 0, encodeError(InvalidValue, "", "buffer of %d bytes too small for %d", len(dst), n)
	}
	out, err := AppendValue(dst[:0:n], t, v)
	if err != nil {
		return 0, err
	}
	if len(out) != n {
		return 0, sizeMismatch(n, len(out))
	}
	return n, nil
}

func sizeOf(t Type, v any, path string) (int, error) {
	switch rt := Resolve(t).(type) {
	case nil:
		return 0, encodeError(TypeMismatch, path, "undefined type %s", t)
	case *PrimType:
		return primSize(rt, v, path)
	case *OptType:
		inner, present := optValue(v)
		if !present {
			return 1, nil
		}
		n, err := sizeOf(rt.Elem, inner, path)
		return 1 + n, err
	case *VecType:
		if b, ok := v.([]byte); ok && Resolve(rt.Elem) == Nat8 {
			return leb128.SizeUnsigned(uint64(len(b))) + len(b), nil
		}
		elems, err := sliceValues(v, path)
		if err != nil {
			return 0, err
		}
		size := leb128.SizeUnsigned(uint64(len(elems)))
		for i, e := range elems {
			n, err := sizeOf(rt.Elem, e, indexPath(path, i))
			if err != nil {
				return 0, err
			}
			size += n
		}
		return size, nil
	case *RecordType:
		vals, err := recordValues(rt, v, path)
		if err != nil {
			return 0, err
		}
		size := 0
		for i, f := range rt.Fields {
			n, err := sizeOf(f.Type, vals[i], fieldPath(path, f.Label()))
			if err != nil {
				return 0, err
			}
			size += n
		}
		return size, nil
	case *VariantType:
		idx, payload, err := variantValue(rt, v, path)
		if err != nil {
			return 0, err
		}
		f := rt.Fields[idx]
		n, err := sizeOf(f.Type, payload, fieldPath(path, f.Label()))
		return leb128.SizeUnsigned(uint64(idx)) + n, err
	case *FuncType:
		fv, err := funcValue(v, path)
		if err != nil {
			return 0, err
		}
		return 1 + principalSize(fv.Service) + leb128.SizeUnsigned(uint64(len(fv.Method))) + len(fv.Method), nil
	case *ServiceType:
		id, err := serviceValue(v, path)
		if err != nil {
			return 0, err
		}
		return principalSize(id), nil
	default:
		return 0, encodeError(TypeMismatch, path, "unsupported type %T", rt)
	}
}

func appendValue(dst []byte, t Type, v any, path string) ([]byte, error) {
	switch rt := Resolve(t).(type) {
	case nil:
		return nil, encodeError(TypeMismatch, path, "undefined type %s", t)
	case *PrimType:
		return appendPrim(dst, rt, v, path)
	case *OptType:
		inner, present := optValue(v)
		if !present {
			return append(dst, 0), nil
		}
		return appendValue(append(dst, 1), rt.Elem, inner, path)
	case *VecType:
		if b, ok := v.([]byte); ok && Resolve(rt.Elem) == Nat8 {
			dst = leb128.AppendUnsigned(dst, uint64(len(b)))
			return append(dst, b...), nil
		}
		elems, err := sliceValues(v, path)
		if err != nil {
			return nil, err
		}
		dst = leb128.AppendUnsigned(dst, uint64(len(elems)))
		for i, e := range elems {
			if dst, err = appendValue(dst, rt.Elem, e, indexPath(path, i)); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case *RecordType:
		vals, err := recordValues(rt, v, path)
		if err != nil {
			return nil, err
		}
		for i, f := range rt.Fields {
			if dst, err = appendValue(dst, f.Type, vals[i], fieldPath(path, f.Label())); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case *VariantType:
		idx, payload, err := variantValue(rt, v, path)
		if err != nil {
			return nil, err
		}
		f := rt.Fields[idx]
		dst = leb128.AppendUnsigned(dst, uint64(idx))
		return appendValue(dst, f.Type, payload, fieldPath(path, f.Label()))
	case *FuncType:
		fv, err := funcValue(v, path)
		if err != nil {
			return nil, err
		}
		dst = append(dst, 1)
		dst = appendPrincipal(dst, fv.Service)
		dst = leb128.AppendUnsigned(dst, uint64(len(fv.Method)))
		return append(dst, fv.Method...), nil
	case *ServiceType:
		id, err := serviceValue(v, path)
		if err != nil {
			return nil, err
		}
		return appendPrincipal(dst, id), nil
	default:
		return nil, encodeError(TypeMismatch, path, "unsupported type %T", rt)
	}
}

func primSize(p *PrimType, v any, path string) (int, error) {
	switch p.code {
	case opNull:
		return 0, checkNull(v, path)
	case opBool:
		if _, ok := v.(bool); !ok {
			return 0, mismatch(p, v, path)
		}
		return 1, nil
	case opNat:
		x, err := bigValue(p, v, path)
		if err != nil {
			return 0, err
		}
		return leb128.SizeBigUnsigned(x), nil
	case opInt:
		x, err := bigValue(p, v, path)
		if err != nil {
			return 0, err
		}
		return leb128.SizeBigSigned(x), nil
	case opNat8, opInt8:
		_, err := fixedValue(p, v, path)
		return 1, err
	case opNat16, opInt16:
		_, err := fixedValue(p, v, path)
		return 2, err
	case opNat32, opInt32:
		_, err := fixedValue(p, v, path)
		return 4, err
	case opNat64, opInt64:
		_, err := fixedValue(p, v, path)
		return 8, err
	case opFloat32:
		_, err := floatValue(p, v, path)
		return 4, err
	case opFloat64:
		_, err := floatValue(p, v, path)
		return 8, err
	case opText:
		s, err := textValue(p, v, path)
		if err != nil {
			return 0, err
		}
		return leb128.SizeUnsigned(uint64(len(s))) + len(s), nil
	case opReserved:
		return 0, nil
	case opPrincipal:
		id, err := principalValue(p, v, path)
		if err != nil {
			return 0, err
		}
		return principalSize(id), nil
	default:
		return 0, encodeError(TypeMismatch, path, "%s has no values", p)
	}
}

func appendPrim(dst []byte, p *PrimType, v any, path string) ([]byte, error) {
	switch p.code {
	case opNull:
		return dst, checkNull(v, path)
	case opBool:
		b, ok := v.(bool)
		if !ok {
			return nil, mismatch(p, v, path)
		}
		if b {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case opNat:
		x, err := bigValue(p, v, path)
		if err != nil {
			return nil, err
		}
		return leb128.AppendBigUnsigned(dst, x), nil
	case opInt:
		x, err := bigValue(p, v, path)
		if err != nil {
			return nil, err
		}
		return leb128.AppendBigSigned(dst, x), nil
	case opNat8, opInt8, opNat16, opInt16, opNat32, opInt32, opNat64, opInt64:
		x, err := fixedValue(p, v, path)
		if err != nil {
			return nil, err
		}
		switch p.code {
		case opNat8, opInt8:
			return append(dst, byte(x)), nil
		case opNat16, opInt16:
			return binary.LittleEndian.AppendUint16(dst, uint16(x)), nil
		case opNat32, opInt32:
			return binary.LittleEndian.AppendUint32(dst, uint32(x)), nil
		default:
			return binary.LittleEndian.AppendUint64(dst, x), nil
		}
	case opFloat32:
		f, err := floatValue(p, v, path)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(f))), nil
	case opFloat64:
		f, err := floatValue(p, v, path)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(f)), nil
	case opText:
		s, err := textValue(p, v, path)
		if err != nil {
			return nil, err
		}
		dst = leb128.AppendUnsigned(dst, uint64(len(s)))
		return append(dst, s...), nil
	case opReserved:
		return dst, nil
	case opPrincipal:
		id, err := principalValue(p, v, path)
		if err != nil {
			return nil, err
		}
		return appendPrincipal(dst, id), nil
	default:
		return nil, encodeError(TypeMismatch, path, "%s has no values", p)
	}
}

func principalSize(p principal.Principal) int {
	return 1 + leb128.SizeUnsigned(uint64(p.Len())) + p.Len()
}

func appendPrincipal(dst []byte, p principal.Principal) []byte {
	dst = append(dst, 1)
	dst = leb128.AppendUnsigned(dst, uint64(p.Len()))
	return append(dst, p.Bytes()...)
}

func mismatch(t Type, v any, path string) *Error {
	return encodeError(TypeMismatch, path, "cannot encode %T as %s", v, t)
}

func checkNull(v any, path string) error {
	switch v.(type) {
	case nil, NullValue, *NullValue:
		return nil
	}
	return mismatch(Null, v, path)
}

func bigValue(p *PrimType, v any, path string) (*big.Int, error) {
	x, ok := toBig(v)
	if !ok {
		return nil, mismatch(p, v, path)
	}
	if p.code == opNat && x.Sign() < 0 {
		return nil, encodeError(InvalidValue, path, "negative value %s for nat", x)
	}
	return x, nil
}

var (
	maxUint = map[int64]uint64{opNat8: math.MaxUint8, opNat16: math.MaxUint16, opNat32: math.MaxUint32, opNat64: math.MaxUint64}
	intBits = map[int64]uint{opInt8: 8, opInt16: 16, opInt32: 32, opInt64: 64}
)

// fixedValue range-checks an integer for a fixed width type and returns its
// two's complement bit pattern.
func fixedValue(p *PrimType, v any, path string) (uint64, error) {
	x, ok := toBig(v)
	if !ok {
		return 0, mismatch(p, v, path)
	}
	if limit, ok := maxUint[p.code]; ok {
		if x.Sign() < 0 || !x.IsUint64() || x.Uint64() > limit {
			return 0, encodeError(InvalidValue, path, "%s out of range for %s", x, p)
		}
		return x.Uint64(), nil
	}
	bits := intBits[p.code]
	if !x.IsInt64() {
		return 0, encodeError(InvalidValue, path, "%s out of range for %s", x, p)
	}
	i := x.Int64()
	if bits < 64 && (i < -(1<<(bits-1)) || i >= 1<<(bits-1)) {
		return 0, encodeError(InvalidValue, path, "%s out of range for %s", x, p)
	}
	return uint64(i), nil
}

func toBig(v any) (*big.Int, bool) {
	switch x := v.(type) {
	case *big.Int:
		return x, x != nil
	case big.Int:
		return &x, true
	case int:
		return big.NewInt(int64(x)), true
	case int8:
		return big.NewInt(int64(x)), true
	case int16:
		return big.NewInt(int64(x)), true
	case int32:
		return big.NewInt(int64(x)), true
	case int64:
		return big.NewInt(x), true
	case uint:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint64:
		return new(big.Int).SetUint64(x), true
	}
	return nil, false
}

func floatValue(p *PrimType, v any, path string) (float64, error) {
	switch f := v.(type) {
	case float32:
		return float64(f), nil
	case float64:
		return f, nil
	}
	return 0, mismatch(p, v, path)
}

func textValue(p *PrimType, v any, path string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", mismatch(p, v, path)
	}
	if !utf8.ValidString(s) {
		return "", encodeError(InvalidUtf8, path, "text is not valid UTF-8")
	}
	return s, nil
}

func principalValue(t Type, v any, path string) (principal.Principal, error) {
	switch x := v.(type) {
	case principal.Principal:
		return x, nil
	case *principal.Principal:
		if x != nil {
			return *x, nil
		}
	case string:
		p, err := principal.Parse(x)
		if err != nil {
			return principal.Principal{}, encodeError(InvalidValue, path, "%s", err)
		}
		return p, nil
	}
	return principal.Principal{}, mismatch(t, v, path)
}

func optValue(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case OptValue:
		return x.Value, x.Present
	case *OptValue:
		if x == nil {
			return nil, false
		}
		return x.Value, x.Present
	}
	return v, true
}

func sliceValues(v any, path string) ([]any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return x, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, encodeError(TypeMismatch, path, "cannot encode %T as vec", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// recordValues lines a Go value up with the fields of rt. Fields of opt, null
// or reserved type may be absent.
func recordValues(rt *RecordType, v any, path string) ([]any, error) {
	lookup, err := fieldLookup(v, path)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(rt.Fields))
	for i, f := range rt.Fields {
		x, ok := lookup(f.ID)
		if !ok && !optional(f.Type) {
			return nil, encodeError(TypeMismatch, fieldPath(path, f.Label()), "missing field")
		}
		out[i] = x
	}
	return out, nil
}

func fieldLookup(v any, path string) (func(uint32) (any, bool), error) {
	switch x := v.(type) {
	case nil:
		return func(uint32) (any, bool) { return nil, false }, nil
	case RecordValue:
		return x.GetID, nil
	case *RecordValue:
		return x.GetID, nil
	case map[string]any:
		byID := make(map[uint32]any, len(x))
		for k, val := range x {
			byID[labelID(k)] = val
		}
		return func(id uint32) (any, bool) {
			val, ok := byID[id]
			return val, ok
		}, nil
	case []any:
		return func(id uint32) (any, bool) {
			if uint64(id) < uint64(len(x)) {
				return x[id], true
			}
			return nil, false
		}, nil
	}
	return nil, encodeError(TypeMismatch, path, "cannot encode %T as record", v)
}

// optional reports whether a value of t may be left out.
func optional(t Type) bool {
	switch rt := Resolve(t).(type) {
	case *OptType:
		return true
	case *PrimType:
		return rt == Null || rt == Reserved
	}
	return false
}

func variantValue(rt *VariantType, v any, path string) (int, any, error) {
	var (
		id      uint32
		payload any
	)
	switch x := v.(type) {
	case VariantValue:
		id, payload = x.id(), x.Value
	case *VariantValue:
		if x == nil {
			return 0, nil, mismatch(rt, v, path)
		}
		id, payload = x.id(), x.Value
	case string:
		id = labelID(x)
	case map[string]any:
		if len(x) != 1 {
			return 0, nil, encodeError(InvalidValue, path, "variant map must have one entry, has %d", len(x))
		}
		for k, val := range x {
			id, payload = labelID(k), val
		}
	default:
		return 0, nil, mismatch(rt, v, path)
	}
	idx, ok := rt.Index(id)
	if !ok {
		return 0, nil, encodeError(UnknownVariantTag, path, "no case with id %d", id)
	}
	return idx, payload, nil
}

func funcValue(v any, path string) (FuncValue, error) {
	switch x := v.(type) {
	case FuncValue:
		return x, nil
	case *FuncValue:
		if x != nil {
			return *x, nil
		}
	}
	return FuncValue{}, encodeError(TypeMismatch, path, "cannot encode %T as func", v)
}

func serviceValue(v any, path string) (principal.Principal, error) {
	switch x := v.(type) {
	case ServiceValue:
		return x.ID, nil
	case *ServiceValue:
		if x != nil {
			return x.ID, nil
		}
	}
	return principalValue(Principal, v, path)
}

func argPath(i int) string {
	return "arg" + strconv.Itoa(i)
}

func fieldPath(path, label string) string {
	if path == "" {
		return label
	}
	return path + "." + label
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
