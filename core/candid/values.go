package candid

import (
	"math/big"
	"strconv"

	"github.com/storacha/go-candid/principal"
)

// NullValue is the only value of null.
type NullValue struct{}

// ReservedValue is what a reserved field decodes to. It carries nothing.
type ReservedValue struct{}

// OptValue is a value of an opt type.
type OptValue struct {
	Value   any
	Present bool
}

func Some(v any) OptValue {
	return OptValue{Value: v, Present: true}
}

func None() OptValue {
	return OptValue{}
}

// FieldValue is one field of a record value. Only the ID identifies the field
// on the wire; when Name is set the ID is derived from it.
type FieldValue struct {
	ID    uint32
	Name  string
	Value any
}

// F creates a named field value.
func F(name string, v any) FieldValue {
	return FieldValue{ID: labelID(name), Name: name, Value: v}
}

func (f FieldValue) id() uint32 {
	if f.Name != "" {
		return labelID(f.Name)
	}
	return f.ID
}

// RecordValue is a value of a record type.
type RecordValue struct {
	Fields []FieldValue
}

// NewRecord creates a record value with fields sorted by id.
func NewRecord(fields ...FieldValue) RecordValue {
	r := RecordValue{Fields: make([]FieldValue, len(fields))}
	for i, f := range fields {
		f.ID = f.id()
		r.Fields[i] = f
	}
	for i := 1; i < len(r.Fields); i++ {
		for j := i; j > 0 && r.Fields[j].ID < r.Fields[j-1].ID; j-- {
			r.Fields[j], r.Fields[j-1] = r.Fields[j-1], r.Fields[j]
		}
	}
	return r
}

// Get returns the value of a field by name (or by positional id, e.g. "0").
func (r RecordValue) Get(name string) (any, bool) {
	return r.GetID(labelID(name))
}

func (r RecordValue) GetID(id uint32) (any, bool) {
	for _, f := range r.Fields {
		if f.id() == id {
			return f.Value, true
		}
	}
	return nil, false
}

// VariantValue is a value of a variant type: the selected case and its
// payload.
type VariantValue struct {
	ID    uint32
	Name  string
	Value any
}

// V creates a variant value selecting the named case.
func V(name string, v any) VariantValue {
	return VariantValue{ID: labelID(name), Name: name, Value: v}
}

func (v VariantValue) id() uint32 {
	if v.Name != "" {
		return labelID(v.Name)
	}
	return v.ID
}

// FuncValue is a public method reference.
type FuncValue struct {
	Service principal.Principal
	Method  string
}

// ServiceValue is a service reference.
type ServiceValue struct {
	ID principal.Principal
}

// labelID maps a field label to its id: decimal labels are positional ids,
// anything else is hashed.
func labelID(label string) uint32 {
	if id, err := strconv.ParseUint(label, 10, 32); err == nil {
		return uint32(id)
	}
	return FieldHash(label)
}

// NatOf returns x as a nat value.
func NatOf(x uint64) *big.Int {
	return new(big.Int).SetUint64(x)
}

// IntOf returns x as an int value.
func IntOf(x int64) *big.Int {
	return big.NewInt(x)
}
