package candid

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/storacha/go-candid/core/leb128"
	"github.com/storacha/go-candid/principal"
)

const (
	// maxDepth bounds value nesting, which also stops decoding of types that
	// only contain themselves.
	maxDepth = 512
	// maxZeroSized bounds vec counts that exceed the remaining input, since
	// only elements of zero-sized types can legitimately do that.
	maxZeroSized = 1 << 20
)

// Message is a decoded message: the wire types of the arguments and their
// values.
type Message struct {
	Types  []Type
	Values []any
}

// Reader is a cursor over a message. It never modifies the input.
type Reader struct {
	data []byte
	off  int
	// zeroSized counts elements that consumed no input, across the whole
	// message.
	zeroSized uint64
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset is the position of the next unread byte.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining is the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) readByte(path string) (byte, error) {
	if r.off >= len(r.data) {
		return 0, decodeError(UnexpectedEndOfInput, r.off, path, "")
	}
	b := r.data[r.off]
	r.off++
	return b, nil
}

func (r *Reader) readBytes(n uint64, path string) ([]byte, error) {
	if n > uint64(r.Remaining()) {
		return nil, decodeError(UnexpectedEndOfInput, r.off, path, "need %d bytes, have %d", n, r.Remaining())
	}
	b := r.data[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}

func (r *Reader) uleb(path string) (uint64, error) {
	v, n, err := leb128.ReadUnsigned(r.data[r.off:])
	if err != nil {
		return 0, r.lebError(err, path)
	}
	r.off += n
	return v, nil
}

func (r *Reader) sleb(path string) (int64, error) {
	v, n, err := leb128.ReadSigned(r.data[r.off:])
	if err != nil {
		return 0, r.lebError(err, path)
	}
	r.off += n
	return v, nil
}

func (r *Reader) lebError(err error, path string) *Error {
	if errors.Is(err, leb128.ErrUnexpectedEnd) {
		return decodeError(UnexpectedEndOfInput, r.off, path, "truncated LEB128")
	}
	return decodeError(InvalidValue, r.off, path, "%s", err)
}

// count reads a length prefix and checks it against what is left, assuming
// each item takes at least one byte.
func (r *Reader) count(path string) (int, error) {
	start := r.off
	n, err := r.uleb(path)
	if err != nil {
		return 0, err
	}
	if n > uint64(r.Remaining()) {
		return 0, decodeError(UnexpectedEndOfInput, start, path, "count %d exceeds remaining %d bytes", n, r.Remaining())
	}
	return int(n), nil
}

func (r *Reader) text(path string) (string, error) {
	n, err := r.uleb(path)
	if err != nil {
		return "", err
	}
	start := r.off
	b, err := r.readBytes(n, path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", decodeError(InvalidUtf8, start, path, "text is not valid UTF-8")
	}
	return string(b), nil
}

// Decode parses a complete message without expected types, returning the
// wire types and the values decoded by them. Wire labels are named table0,
// table1 and so on.
func Decode(data []byte) (*Message, error) {
	if !bytes.HasPrefix(data, Magic) {
		return nil, decodeError(InvalidMagic, 0, "", "message does not start with DIDL")
	}
	r := &Reader{data: data, off: len(Magic)}
	table, err := r.readTable()
	if err != nil {
		return nil, err
	}
	argc, err := r.count("args")
	if err != nil {
		return nil, err
	}
	msg := &Message{Types: make([]Type, argc), Values: make([]any, argc)}
	for i := range msg.Types {
		if msg.Types[i], err = r.typeRef(table, argPath(i)); err != nil {
			return nil, err
		}
	}
	for i, t := range msg.Types {
		if msg.Values[i], err = r.value(t, argPath(i), 0); err != nil {
			return nil, err
		}
	}
	if r.Remaining() != 0 {
		return nil, decodeError(InvalidValue, r.off, "", "%d trailing bytes", r.Remaining())
	}
	return msg, nil
}

// DecodeValue decodes one value of type t at the reader's position.
func DecodeValue(r *Reader, t Type) (any, error) {
	return r.value(t, "", 0)
}

func (r *Reader) readTable() ([]*NamedType, error) {
	n, err := r.count("type table")
	if err != nil {
		return nil, err
	}
	table := make([]*NamedType, n)
	for i := range table {
		table[i] = Named("table" + strconv.Itoa(i))
	}
	for i, label := range table {
		path := label.Name
		op, err := r.sleb(path)
		if err != nil {
			return nil, err
		}
		var def Type
		switch op {
		case opOpt, opVec:
			elem, err := r.typeRef(table, path)
			if err != nil {
				return nil, err
			}
			if op == opOpt {
				def = Opt(elem)
			} else {
				def = Vec(elem)
			}
		case opRecord, opVariant:
			fields, err := r.fieldTypes(table, path)
			if err != nil {
				return nil, err
			}
			if op == opRecord {
				def = &RecordType{fields}
			} else {
				def = &VariantType{fields}
			}
		case opFunc:
			if def, err = r.funcType(table, path); err != nil {
				return nil, err
			}
		case opService:
			if def, err = r.serviceType(table, path); err != nil {
				return nil, err
			}
		default:
			return nil, decodeError(InvalidValue, r.off, path, "type %d has unsupported opcode %d", i, op)
		}
		label.Define(def)
	}
	return table, nil
}

func (r *Reader) typeRef(table []*NamedType, path string) (Type, error) {
	start := r.off
	code, err := r.sleb(path)
	if err != nil {
		return nil, err
	}
	if code >= 0 {
		if code >= int64(len(table)) {
			return nil, decodeError(TypeTableIndexOutOfRange, start, path, "index %d, table has %d entries", code, len(table))
		}
		return table[code], nil
	}
	p, ok := primitives[code]
	if !ok {
		return nil, decodeError(InvalidValue, start, path, "invalid type reference %d", code)
	}
	return p, nil
}

func (r *Reader) fieldTypes(table []*NamedType, path string) ([]FieldType, error) {
	n, err := r.count(path)
	if err != nil {
		return nil, err
	}
	fields := make([]FieldType, 0, n)
	for j := 0; j < n; j++ {
		start := r.off
		id, err := r.uleb(path)
		if err != nil {
			return nil, err
		}
		if id > math.MaxUint32 {
			return nil, decodeError(InvalidValue, start, path, "field id %d out of range", id)
		}
		if j > 0 && uint32(id) <= fields[j-1].ID {
			return nil, decodeError(InvalidValue, start, path, "field ids not strictly increasing")
		}
		t, err := r.typeRef(table, path)
		if err != nil {
			return nil, err
		}
		fields = append(fields, IndexedField(uint32(id), t))
	}
	return fields, nil
}

func (r *Reader) funcType(table []*NamedType, path string) (*FuncType, error) {
	refs := func() ([]Type, error) {
		n, err := r.count(path)
		if err != nil {
			return nil, err
		}
		ts := make([]Type, n)
		for i := range ts {
			if ts[i], err = r.typeRef(table, path); err != nil {
				return nil, err
			}
		}
		return ts, nil
	}
	args, err := refs()
	if err != nil {
		return nil, err
	}
	results, err := refs()
	if err != nil {
		return nil, err
	}
	n, err := r.count(path)
	if err != nil {
		return nil, err
	}
	f := &FuncType{Args: args, Results: results}
	for i := 0; i < n; i++ {
		start := r.off
		b, err := r.readByte(path)
		if err != nil {
			return nil, err
		}
		a := FuncAnnotation(b)
		if a != Query && a != Oneway && a != CompositeQuery {
			return nil, decodeError(InvalidValue, start, path, "unknown function annotation %d", b)
		}
		f.Annotations = append(f.Annotations, a)
	}
	return f, nil
}

func (r *Reader) serviceType(table []*NamedType, path string) (*ServiceType, error) {
	n, err := r.count(path)
	if err != nil {
		return nil, err
	}
	s := &ServiceType{Methods: make([]MethodType, 0, n)}
	for i := 0; i < n; i++ {
		start := r.off
		name, err := r.text(path)
		if err != nil {
			return nil, err
		}
		if i > 0 && name <= s.Methods[i-1].Name {
			return nil, decodeError(InvalidValue, start, path, "method names not strictly increasing")
		}
		t, err := r.typeRef(table, path)
		if err != nil {
			return nil, err
		}
		s.Methods = append(s.Methods, Method(name, t))
	}
	return s, nil
}

func (r *Reader) value(t Type, path string, depth int) (any, error) {
	if depth > maxDepth {
		return nil, decodeError(InvalidValue, r.off, path, "value nested deeper than %d", maxDepth)
	}
	switch rt := Resolve(t).(type) {
	case nil:
		return nil, decodeError(TypeMismatch, r.off, path, "undefined type %s", t)
	case *PrimType:
		return r.prim(rt, path)
	case *OptType:
		start := r.off
		flag, err := r.readByte(path)
		if err != nil {
			return nil, err
		}
		switch flag {
		case 0:
			return None(), nil
		case 1:
			v, err := r.value(rt.Elem, path, depth+1)
			if err != nil {
				return nil, err
			}
			return Some(v), nil
		}
		return nil, decodeError(InvalidValue, start, path, "invalid opt flag %d", flag)
	case *VecType:
		return r.vec(rt, path, depth)
	case *RecordType:
		rec := RecordValue{Fields: make([]FieldValue, len(rt.Fields))}
		for i, f := range rt.Fields {
			v, err := r.value(f.Type, fieldPath(path, f.Label()), depth+1)
			if err != nil {
				return nil, err
			}
			rec.Fields[i] = FieldValue{ID: f.ID, Name: f.Name, Value: v}
		}
		return rec, nil
	case *VariantType:
		start := r.off
		idx, err := r.uleb(path)
		if err != nil {
			return nil, err
		}
		if idx >= uint64(len(rt.Fields)) {
			return nil, decodeError(UnknownVariantTag, start, path, "tag %d, variant has %d cases", idx, len(rt.Fields))
		}
		f := rt.Fields[idx]
		v, err := r.value(f.Type, fieldPath(path, f.Label()), depth+1)
		if err != nil {
			return nil, err
		}
		return VariantValue{ID: f.ID, Name: f.Name, Value: v}, nil
	case *FuncType:
		if err := r.reference(path); err != nil {
			return nil, err
		}
		id, err := r.principal(path)
		if err != nil {
			return nil, err
		}
		method, err := r.text(path)
		if err != nil {
			return nil, err
		}
		return FuncValue{Service: id, Method: method}, nil
	case *ServiceType:
		id, err := r.principal(path)
		if err != nil {
			return nil, err
		}
		return ServiceValue{ID: id}, nil
	default:
		return nil, decodeError(TypeMismatch, r.off, path, "unsupported type %T", rt)
	}
}

func (r *Reader) vec(vt *VecType, path string, depth int) (any, error) {
	start := r.off
	n, err := r.uleb(path)
	if err != nil {
		return nil, err
	}
	if Resolve(vt.Elem) == Nat8 {
		b, err := r.readBytes(n, path)
		if err != nil {
			return nil, err
		}
		return bytes.Clone(b), nil
	}
	if n > uint64(r.Remaining()) && n > maxZeroSized-r.zeroSized {
		return nil, decodeError(InvalidValue, start, path, "vec of %d elements exceeds input", n)
	}
	elems := make([]any, 0, min(n, uint64(r.Remaining())+1))
	for i := uint64(0); i < n; i++ {
		at := r.off
		v, err := r.value(vt.Elem, indexPath(path, int(i)), depth+1)
		if err != nil {
			return nil, err
		}
		if r.off == at {
			if r.zeroSized++; r.zeroSized > maxZeroSized {
				return nil, decodeError(InvalidValue, at, path, "more than %d zero-sized elements", maxZeroSized)
			}
		}
		elems = append(elems, v)
	}
	return elems, nil
}

// reference reads the leading flag of a func or service reference. Only
// public references (flag 1) are supported.
func (r *Reader) reference(path string) error {
	start := r.off
	flag, err := r.readByte(path)
	if err != nil {
		return err
	}
	if flag != 1 {
		return decodeError(InvalidValue, start, path, "opaque reference (flag %d)", flag)
	}
	return nil
}

func (r *Reader) principal(path string) (principal.Principal, error) {
	if err := r.reference(path); err != nil {
		return principal.Principal{}, err
	}
	n, err := r.uleb(path)
	if err != nil {
		return principal.Principal{}, err
	}
	start := r.off
	b, err := r.readBytes(n, path)
	if err != nil {
		return principal.Principal{}, err
	}
	p, err := principal.FromBytes(b)
	if err != nil {
		return principal.Principal{}, decodeError(InvalidValue, start, path, "%s", err)
	}
	return p, nil
}

func (r *Reader) prim(p *PrimType, path string) (any, error) {
	start := r.off
	switch p.code {
	case opNull:
		return NullValue{}, nil
	case opReserved:
		return ReservedValue{}, nil
	case opBool:
		b, err := r.readByte(path)
		if err != nil {
			return nil, err
		}
		switch b {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return nil, decodeError(InvalidValue, start, path, "invalid bool byte %d", b)
	case opNat, opInt:
		read := leb128.ReadBigUnsigned
		if p.code == opInt {
			read = leb128.ReadBigSigned
		}
		x, n, err := read(r.data[r.off:])
		if err != nil {
			return nil, r.lebError(err, path)
		}
		r.off += n
		return x, nil
	case opNat8, opInt8:
		b, err := r.readBytes(1, path)
		if err != nil {
			return nil, err
		}
		if p.code == opNat8 {
			return b[0], nil
		}
		return int8(b[0]), nil
	case opNat16, opInt16:
		b, err := r.readBytes(2, path)
		if err != nil {
			return nil, err
		}
		x := binary.LittleEndian.Uint16(b)
		if p.code == opNat16 {
			return x, nil
		}
		return int16(x), nil
	case opNat32, opInt32, opFloat32:
		b, err := r.readBytes(4, path)
		if err != nil {
			return nil, err
		}
		x := binary.LittleEndian.Uint32(b)
		switch p.code {
		case opNat32:
			return x, nil
		case opInt32:
			return int32(x), nil
		}
		return math.Float32frombits(x), nil
	case opNat64, opInt64, opFloat64:
		b, err := r.readBytes(8, path)
		if err != nil {
			return nil, err
		}
		x := binary.LittleEndian.Uint64(b)
		switch p.code {
		case opNat64:
			return x, nil
		case opInt64:
			return int64(x), nil
		}
		return math.Float64frombits(x), nil
	case opText:
		return r.text(path)
	case opPrincipal:
		return r.principal(path)
	default:
		return nil, decodeError(InvalidValue, start, path, "%s has no values", p)
	}
}
