package candid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/storacha/go-candid/core/leb128"
)

// TypeTable assigns table indices to compound types and serializes them.
//
// A table is append-only and scoped to one encoding session: build a fresh
// one per message (or per method header) and never share it between
// goroutines. Structurally identical types share an entry. Labelled types get
// their index before their definition is walked, which is what lets a type
// refer to itself. If IndexFor fails the table is left incomplete and must be
// discarded.
type TypeTable struct {
	entries [][]byte
	byKey   map[string]int
	byLabel map[*NamedType]int
	knots   map[*NamedType]int
	labels  []*NamedType
	named   map[string]*NamedType
}

func NewTypeTable() *TypeTable {
	return &TypeTable{
		byKey:   map[string]int{},
		byLabel: map[*NamedType]int{},
		knots:   map[*NamedType]int{},
		named:   map[string]*NamedType{},
	}
}

// Define creates a label, defines it and records it in the table's
// environment. It panics if the name is taken by another label.
func (tt *TypeTable) Define(name string, t Type) *NamedType {
	n := Named(name).Define(t)
	if err := tt.AddLabel(n); err != nil {
		panic(err)
	}
	return n
}

// AddLabel records a label in the table's environment. Adding the same label
// twice is a no-op.
func (tt *TypeTable) AddLabel(n *NamedType) error {
	if prev, ok := tt.named[n.Name]; ok {
		if prev == n {
			return nil
		}
		return fmt.Errorf("candid: label %q already defined", n.Name)
	}
	tt.named[n.Name] = n
	tt.labels = append(tt.labels, n)
	return nil
}

// Lookup finds a label by name.
func (tt *TypeTable) Lookup(name string) (*NamedType, bool) {
	n, ok := tt.named[name]
	return n, ok
}

// Labels returns the labels in the order they were added.
func (tt *TypeTable) Labels() []*NamedType {
	return tt.labels
}

// IndexFor returns the table index of t, registering it (and every compound
// type it contains) if needed. Primitive types are not registered; their
// negative opcode is returned instead.
func (tt *TypeTable) IndexFor(t Type) (int64, error) {
	switch t := t.(type) {
	case nil:
		return 0, encodeError(TypeMismatch, "", "nil type")
	case *PrimType:
		return t.code, nil
	case *NamedType:
		if idx, ok := tt.byLabel[t]; ok {
			return int64(idx), nil
		}
		body := Resolve(t)
		if body == nil {
			return 0, encodeError(TypeMismatch, t.Name, "undefined type")
		}
		if p, ok := body.(*PrimType); ok {
			return p.code, nil
		}
		key := tt.key(body)
		if idx, ok := tt.byKey[key]; ok {
			tt.byLabel[t] = idx
			return int64(idx), nil
		}
		idx := tt.reserve(key)
		tt.byLabel[t] = idx
		return tt.fill(idx, body)
	default:
		key := tt.key(t)
		if idx, ok := tt.byKey[key]; ok {
			return int64(idx), nil
		}
		return tt.fill(tt.reserve(key), t)
	}
}

// CopyLabelsInto registers t in dst, first registering every label of this
// table that t reaches, in this table's label order. It is used to build the
// per-request table of a method from the interface environment.
func (tt *TypeTable) CopyLabelsInto(t Type, dst *TypeTable) error {
	reach := map[*NamedType]bool{}
	collectLabels(t, reach)
	for _, l := range tt.labels {
		if !reach[l] {
			continue
		}
		if err := dst.AddLabel(l); err != nil {
			return err
		}
		if _, err := dst.IndexFor(l); err != nil {
			return err
		}
	}
	_, err := dst.IndexFor(t)
	return err
}

// Len is the number of entries.
func (tt *TypeTable) Len() int {
	return len(tt.entries)
}

// Size is the number of bytes AppendTo writes.
func (tt *TypeTable) Size() int {
	size := leb128.SizeUnsigned(uint64(len(tt.entries)))
	for _, e := range tt.entries {
		size += len(e)
	}
	return size
}

// AppendTo serializes the table: entry count, then every entry's opcode and
// structural payload in registration order.
func (tt *TypeTable) AppendTo(dst []byte) []byte {
	dst = leb128.AppendUnsigned(dst, uint64(len(tt.entries)))
	for _, e := range tt.entries {
		dst = append(dst, e...)
	}
	return dst
}

func (tt *TypeTable) Bytes() []byte {
	return tt.AppendTo(make([]byte, 0, tt.Size()))
}

func (tt *TypeTable) reserve(key string) int {
	idx := len(tt.entries)
	tt.entries = append(tt.entries, nil)
	tt.byKey[key] = idx
	return idx
}

func (tt *TypeTable) fill(idx int, t Type) (int64, error) {
	e, err := tt.entry(t)
	if err != nil {
		return 0, err
	}
	tt.entries[idx] = e
	return int64(idx), nil
}

func (tt *TypeTable) entry(t Type) ([]byte, error) {
	var b []byte
	switch t := t.(type) {
	case *OptType:
		idx, err := tt.IndexFor(t.Elem)
		if err != nil {
			return nil, err
		}
		b = leb128.AppendSigned(b, opOpt)
		b = leb128.AppendSigned(b, idx)
	case *VecType:
		idx, err := tt.IndexFor(t.Elem)
		if err != nil {
			return nil, err
		}
		b = leb128.AppendSigned(b, opVec)
		b = leb128.AppendSigned(b, idx)
	case *RecordType:
		return tt.fieldsEntry(opRecord, t.Fields)
	case *VariantType:
		return tt.fieldsEntry(opVariant, t.Fields)
	case *FuncType:
		b = leb128.AppendSigned(b, opFunc)
		var err error
		if b, err = tt.appendRefs(b, t.Args); err != nil {
			return nil, err
		}
		if b, err = tt.appendRefs(b, t.Results); err != nil {
			return nil, err
		}
		b = leb128.AppendUnsigned(b, uint64(len(t.Annotations)))
		for _, a := range t.Annotations {
			b = append(b, byte(a))
		}
	case *ServiceType:
		b = leb128.AppendSigned(b, opService)
		b = leb128.AppendUnsigned(b, uint64(len(t.Methods)))
		for i, m := range t.Methods {
			if i > 0 && m.Name <= t.Methods[i-1].Name {
				return nil, encodeError(TypeMismatch, m.Name, "service methods must be sorted and unique")
			}
			if _, ok := Resolve(m.Type).(*FuncType); !ok {
				return nil, encodeError(TypeMismatch, m.Name, "method type %s is not a function", m.Type)
			}
			idx, err := tt.IndexFor(m.Type)
			if err != nil {
				return nil, err
			}
			b = leb128.AppendUnsigned(b, uint64(len(m.Name)))
			b = append(b, m.Name...)
			b = leb128.AppendSigned(b, idx)
		}
	default:
		return nil, encodeError(TypeMismatch, "", "unsupported type %T", t)
	}
	return b, nil
}

func (tt *TypeTable) fieldsEntry(op int64, fields []FieldType) ([]byte, error) {
	b := leb128.AppendSigned(nil, op)
	b = leb128.AppendUnsigned(b, uint64(len(fields)))
	for i, f := range fields {
		if i > 0 && f.ID <= fields[i-1].ID {
			return nil, encodeError(TypeMismatch, f.Label(), "fields must be sorted by id and unique")
		}
		idx, err := tt.IndexFor(f.Type)
		if err != nil {
			return nil, err
		}
		b = leb128.AppendUnsigned(b, uint64(f.ID))
		b = leb128.AppendSigned(b, idx)
	}
	return b, nil
}

func (tt *TypeTable) appendRefs(b []byte, types []Type) ([]byte, error) {
	b = leb128.AppendUnsigned(b, uint64(len(types)))
	for _, t := range types {
		idx, err := tt.IndexFor(t)
		if err != nil {
			return nil, err
		}
		b = leb128.AppendSigned(b, idx)
	}
	return b, nil
}

// key renders the structure of t with labels replaced by stable knot numbers,
// so equal keys mean equal wire entries.
func (tt *TypeTable) key(t Type) string {
	var sb strings.Builder
	tt.writeKey(&sb, t)
	return sb.String()
}

func (tt *TypeTable) writeKey(sb *strings.Builder, t Type) {
	switch t := t.(type) {
	case *PrimType:
		sb.WriteString(t.name)
	case *NamedType:
		knot := canonicalLabel(t)
		body := Resolve(knot)
		if p, ok := body.(*PrimType); ok {
			sb.WriteString(p.name)
			return
		}
		id, ok := tt.knots[knot]
		if !ok {
			id = len(tt.knots)
			tt.knots[knot] = id
		}
		sb.WriteString("μ")
		sb.WriteString(strconv.Itoa(id))
	case *OptType:
		sb.WriteString("opt(")
		tt.writeKey(sb, t.Elem)
		sb.WriteByte(')')
	case *VecType:
		sb.WriteString("vec(")
		tt.writeKey(sb, t.Elem)
		sb.WriteByte(')')
	case *RecordType:
		sb.WriteString("record")
		tt.writeFieldsKey(sb, t.Fields)
	case *VariantType:
		sb.WriteString("variant")
		tt.writeFieldsKey(sb, t.Fields)
	case *FuncType:
		sb.WriteString("func(")
		tt.writeTypesKey(sb, t.Args)
		sb.WriteString(")(")
		tt.writeTypesKey(sb, t.Results)
		sb.WriteByte(')')
		for _, a := range t.Annotations {
			sb.WriteString(strconv.Itoa(int(a)))
			sb.WriteByte(' ')
		}
	case *ServiceType:
		sb.WriteString("service{")
		for _, m := range t.Methods {
			sb.WriteString(strconv.Quote(m.Name))
			sb.WriteByte(':')
			tt.writeKey(sb, m.Type)
			sb.WriteByte(';')
		}
		sb.WriteByte('}')
	default:
		fmt.Fprintf(sb, "%T", t)
	}
}

func (tt *TypeTable) writeFieldsKey(sb *strings.Builder, fields []FieldType) {
	sb.WriteByte('{')
	for _, f := range fields {
		sb.WriteString(strconv.FormatUint(uint64(f.ID), 10))
		sb.WriteByte(':')
		tt.writeKey(sb, f.Type)
		sb.WriteByte(';')
	}
	sb.WriteByte('}')
}

func (tt *TypeTable) writeTypesKey(sb *strings.Builder, types []Type) {
	for _, t := range types {
		tt.writeKey(sb, t)
		sb.WriteByte(',')
	}
}

// canonicalLabel follows label-to-label aliases and returns the last label
// before a structural definition, so aliases of one type share a knot.
func canonicalLabel(n *NamedType) *NamedType {
	for hops := 0; hops < 64; hops++ {
		next, ok := n.def.(*NamedType)
		if !ok {
			return n
		}
		n = next
	}
	return n
}

func collectLabels(t Type, seen map[*NamedType]bool) {
	switch t := t.(type) {
	case *NamedType:
		if seen[t] {
			return
		}
		seen[t] = true
		if t.def != nil {
			collectLabels(t.def, seen)
		}
	case *OptType:
		collectLabels(t.Elem, seen)
	case *VecType:
		collectLabels(t.Elem, seen)
	case *RecordType:
		for _, f := range t.Fields {
			collectLabels(f.Type, seen)
		}
	case *VariantType:
		for _, f := range t.Fields {
			collectLabels(f.Type, seen)
		}
	case *FuncType:
		for _, a := range t.Args {
			collectLabels(a, seen)
		}
		for _, r := range t.Results {
			collectLabels(r, seen)
		}
	case *ServiceType:
		for _, m := range t.Methods {
			collectLabels(m.Type, seen)
		}
	}
}
