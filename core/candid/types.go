// Package candid implements the Candid binary format: a closed algebra of
// type descriptors, the type table that describes them on the wire, and a
// runtime-dispatched value codec over that algebra.
package candid

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Type is a Candid type descriptor. The set of implementations is closed:
// *PrimType, *OptType, *VecType, *RecordType, *VariantType, *FuncType,
// *ServiceType and *NamedType.
type Type interface {
	fmt.Stringer
	isType()
}

// Type opcodes as they appear (SLEB128 encoded) in the type table.
const (
	opNull      int64 = -1
	opBool      int64 = -2
	opNat       int64 = -3
	opInt       int64 = -4
	opNat8      int64 = -5
	opNat16     int64 = -6
	opNat32     int64 = -7
	opNat64     int64 = -8
	opInt8      int64 = -9
	opInt16     int64 = -10
	opInt32     int64 = -11
	opInt64     int64 = -12
	opFloat32   int64 = -13
	opFloat64   int64 = -14
	opText      int64 = -15
	opReserved  int64 = -16
	opEmpty     int64 = -17
	opOpt       int64 = -18
	opVec       int64 = -19
	opRecord    int64 = -20
	opVariant   int64 = -21
	opFunc      int64 = -22
	opService   int64 = -23
	opPrincipal int64 = -24
)

// PrimType is a type with no table entry; it is referenced by its opcode.
type PrimType struct {
	code int64
	name string
}

func (*PrimType) isType() {}

func (p *PrimType) String() string {
	return p.name
}

// Opcode is the negative type code written wherever this type is referenced.
func (p *PrimType) Opcode() int64 {
	return p.code
}

var (
	Null      = &PrimType{opNull, "null"}
	Bool      = &PrimType{opBool, "bool"}
	Nat       = &PrimType{opNat, "nat"}
	Int       = &PrimType{opInt, "int"}
	Nat8      = &PrimType{opNat8, "nat8"}
	Nat16     = &PrimType{opNat16, "nat16"}
	Nat32     = &PrimType{opNat32, "nat32"}
	Nat64     = &PrimType{opNat64, "nat64"}
	Int8      = &PrimType{opInt8, "int8"}
	Int16     = &PrimType{opInt16, "int16"}
	Int32     = &PrimType{opInt32, "int32"}
	Int64     = &PrimType{opInt64, "int64"}
	Float32   = &PrimType{opFloat32, "float32"}
	Float64   = &PrimType{opFloat64, "float64"}
	Text      = &PrimType{opText, "text"}
	Reserved  = &PrimType{opReserved, "reserved"}
	Empty     = &PrimType{opEmpty, "empty"}
	Principal = &PrimType{opPrincipal, "principal"}
)

var primitives = map[int64]*PrimType{}

func init() {
	for _, p := range []*PrimType{Null, Bool, Nat, Int, Nat8, Nat16, Nat32, Nat64, Int8, Int16, Int32, Int64, Float32, Float64, Text, Reserved, Empty, Principal} {
		primitives[p.code] = p
	}
}

// OptType is an optional value.
type OptType struct {
	Elem Type
}

func (*OptType) isType() {}

func (o *OptType) String() string {
	return "opt " + o.Elem.String()
}

func Opt(elem Type) *OptType {
	return &OptType{elem}
}

// VecType is a sequence of values of one type. vec nat8 is also known as
// blob.
type VecType struct {
	Elem Type
}

func (*VecType) isType() {}

func (v *VecType) String() string {
	return "vec " + v.Elem.String()
}

func Vec(elem Type) *VecType {
	return &VecType{elem}
}

// Blob is vec nat8.
func Blob() *VecType {
	return Vec(Nat8)
}

// FieldType is a record field or variant case. The ID is what goes on the
// wire; Name is kept for display and value lookup only.
type FieldType struct {
	ID   uint32
	Name string
	Type Type
}

// Field creates a field whose id is the hash of its name.
func Field(name string, t Type) FieldType {
	return FieldType{ID: FieldHash(name), Name: name, Type: t}
}

// IndexedField creates a positional field with an explicit id.
func IndexedField(id uint32, t Type) FieldType {
	return FieldType{ID: id, Type: t}
}

// Label returns the name of the field, or its id when it has none.
func (f FieldType) Label() string {
	if f.Name != "" {
		return f.Name
	}
	return strconv.FormatUint(uint64(f.ID), 10)
}

// RecordType is a product of fields, kept in ascending id order.
type RecordType struct {
	Fields []FieldType
}

func (*RecordType) isType() {}

func (r *RecordType) String() string {
	return "record " + fieldsString(r.Fields)
}

// Record creates a record type. Fields are sorted by id. It panics when two
// fields share an id, which for named fields means a hash collision.
func Record(fields ...FieldType) *RecordType {
	return &RecordType{sortFields(fields)}
}

// Tuple creates a record whose fields are numbered from zero.
func Tuple(types ...Type) *RecordType {
	fields := make([]FieldType, len(types))
	for i, t := range types {
		fields[i] = IndexedField(uint32(i), t)
	}
	return &RecordType{fields}
}

// Field looks a field up by id.
func (r *RecordType) Field(id uint32) (FieldType, bool) {
	i, ok := fieldIndex(r.Fields, id)
	if !ok {
		return FieldType{}, false
	}
	return r.Fields[i], true
}

// VariantType is a tagged union. Cases are kept in ascending id order and a
// value's wire tag is the position of its case in that order.
type VariantType struct {
	Fields []FieldType
}

func (*VariantType) isType() {}

func (v *VariantType) String() string {
	return "variant " + fieldsString(v.Fields)
}

// Variant creates a variant type. Like Record it panics on duplicate ids.
func Variant(fields ...FieldType) *VariantType {
	return &VariantType{sortFields(fields)}
}

// Index returns the wire tag of the case with the given id.
func (v *VariantType) Index(id uint32) (int, bool) {
	return fieldIndex(v.Fields, id)
}

// FuncAnnotation modifies how a function is invoked.
type FuncAnnotation byte

const (
	Query          FuncAnnotation = 1
	Oneway         FuncAnnotation = 2
	CompositeQuery FuncAnnotation = 3
)

func (a FuncAnnotation) String() string {
	switch a {
	case Query:
		return "query"
	case Oneway:
		return "oneway"
	case CompositeQuery:
		return "composite_query"
	default:
		return fmt.Sprintf("annotation(%d)", byte(a))
	}
}

// FuncType is a function signature.
type FuncType struct {
	Args        []Type
	Results     []Type
	Annotations []FuncAnnotation
}

func (*FuncType) isType() {}

func (f *FuncType) String() string {
	var sb strings.Builder
	sb.WriteString("func ")
	sb.WriteString(typesString(f.Args))
	sb.WriteString(" -> ")
	sb.WriteString(typesString(f.Results))
	for _, a := range f.Annotations {
		sb.WriteByte(' ')
		sb.WriteString(a.String())
	}
	return sb.String()
}

func Func(args []Type, results []Type, annotations ...FuncAnnotation) *FuncType {
	return &FuncType{Args: args, Results: results, Annotations: annotations}
}

func (f *FuncType) has(a FuncAnnotation) bool {
	return slices.Contains(f.Annotations, a)
}

// IsQuery reports whether calls go through the read endpoint.
func (f *FuncType) IsQuery() bool {
	return f.has(Query) || f.has(CompositeQuery)
}

// IsOneway reports whether the function returns no reply.
func (f *FuncType) IsOneway() bool {
	return f.has(Oneway)
}

// MethodType is a named service method. Type resolves to a *FuncType.
type MethodType struct {
	Name string
	Type Type
}

func Method(name string, t Type) MethodType {
	return MethodType{name, t}
}

// ServiceType maps method names to function types, sorted by name.
type ServiceType struct {
	Methods []MethodType
}

func (*ServiceType) isType() {}

func (s *ServiceType) String() string {
	var sb strings.Builder
	sb.WriteString("service {")
	for i, m := range s.Methods {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteByte(' ')
		sb.WriteString(m.Name)
		sb.WriteString(" : ")
		sb.WriteString(m.Type.String())
	}
	sb.WriteString(" }")
	return sb.String()
}

// Service creates a service type. It panics on duplicate method names.
func Service(methods ...MethodType) *ServiceType {
	ms := slices.Clone(methods)
	slices.SortFunc(ms, func(a, b MethodType) int { return strings.Compare(a.Name, b.Name) })
	for i := 1; i < len(ms); i++ {
		if ms[i].Name == ms[i-1].Name {
			panic(fmt.Sprintf("candid: duplicate method %q", ms[i].Name))
		}
	}
	return &ServiceType{ms}
}

// Method returns the function type of a method.
func (s *ServiceType) Method(name string) (*FuncType, bool) {
	i, ok := slices.BinarySearchFunc(s.Methods, name, func(m MethodType, n string) int {
		return strings.Compare(m.Name, n)
	})
	if !ok {
		return nil, false
	}
	f, ok := Resolve(s.Methods[i].Type).(*FuncType)
	return f, ok
}

// NamedType is a type label. It is the only way to build recursive types:
// create the label, build its definition referring to it, then Define it.
type NamedType struct {
	Name string
	def  Type
}

func (*NamedType) isType() {}

func (n *NamedType) String() string {
	return n.Name
}

// Named creates an undefined label.
func Named(name string) *NamedType {
	return &NamedType{Name: name}
}

// Define sets the definition of the label and returns it.
func (n *NamedType) Define(t Type) *NamedType {
	n.def = t
	return n
}

// Definition returns what the label was defined as, or nil.
func (n *NamedType) Definition() Type {
	return n.def
}

// Resolve follows labels until it reaches a structural type. It returns nil
// for undefined labels or labels that only refer to each other.
func Resolve(t Type) Type {
	for hops := 0; ; hops++ {
		n, ok := t.(*NamedType)
		if !ok {
			return t
		}
		if n.def == nil || hops > 64 {
			return nil
		}
		t = n.def
	}
}

func sortFields(fields []FieldType) []FieldType {
	fs := slices.Clone(fields)
	slices.SortStableFunc(fs, func(a, b FieldType) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	for i := 1; i < len(fs); i++ {
		if fs[i].ID == fs[i-1].ID {
			panic(fmt.Sprintf("candid: fields %s and %s share id %d", fs[i-1].Label(), fs[i].Label(), fs[i].ID))
		}
	}
	return fs
}

func fieldIndex(fields []FieldType, id uint32) (int, bool) {
	return slices.BinarySearchFunc(fields, id, func(f FieldType, id uint32) int {
		switch {
		case f.ID < id:
			return -1
		case f.ID > id:
			return 1
		}
		return 0
	})
}

func fieldsString(fields []FieldType) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteByte(' ')
		sb.WriteString(f.Label())
		sb.WriteString(" : ")
		sb.WriteString(f.Type.String())
	}
	sb.WriteString(" }")
	return sb.String()
}

func typesString(types []Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
