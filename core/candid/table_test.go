package candid

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeTable(t *testing.T) {
	t.Run("primitives are not registered", func(t *testing.T) {
		tt := NewTypeTable()
		idx, err := tt.IndexFor(Text)
		require.NoError(t, err)
		require.Equal(t, int64(-15), idx)
		require.Equal(t, 0, tt.Len())
		require.Equal(t, []byte{0}, tt.Bytes())
	})

	t.Run("structural dedup", func(t *testing.T) {
		tt := NewTypeTable()
		a, err := tt.IndexFor(Opt(Text))
		require.NoError(t, err)
		b, err := tt.IndexFor(Opt(Text))
		require.NoError(t, err)
		require.Equal(t, a, b)

		c, err := tt.IndexFor(Vec(Opt(Text)))
		require.NoError(t, err)
		require.NotEqual(t, a, c)
		require.Equal(t, 2, tt.Len())
		require.Equal(t, "026e716d00", hex.EncodeToString(tt.Bytes()))
	})

	t.Run("aliases share an entry", func(t *testing.T) {
		tt := NewTypeTable()
		inner := tt.Define("inner", Record(Field("a", Nat)))
		alias := tt.Define("alias", inner)

		i, err := tt.IndexFor(inner)
		require.NoError(t, err)
		j, err := tt.IndexFor(alias)
		require.NoError(t, err)
		k, err := tt.IndexFor(Record(Field("a", Nat)))
		require.NoError(t, err)
		require.Equal(t, i, j)
		require.Equal(t, i, k)
		require.Equal(t, 1, tt.Len())
	})

	t.Run("alias of primitive", func(t *testing.T) {
		tt := NewTypeTable()
		id := tt.Define("id", Text)
		idx, err := tt.IndexFor(Vec(id))
		require.NoError(t, err)
		require.Equal(t, int64(0), idx)
		require.Equal(t, "016d71", hex.EncodeToString(tt.Bytes()))
	})

	t.Run("index reserved before children", func(t *testing.T) {
		tt := NewTypeTable()
		tree := Named("tree")
		tree.Define(Variant(Field("leaf", Nat), Field("node", Vec(tree))))
		idx, err := tt.IndexFor(tree)
		require.NoError(t, err)
		require.Equal(t, int64(0), idx)
		require.Equal(t, 2, tt.Len())
		require.Equal(t, tt.Size(), len(tt.Bytes()))
	})

	t.Run("undefined label", func(t *testing.T) {
		_, err := NewTypeTable().IndexFor(Named("nothing"))
		require.ErrorIs(t, err, TypeMismatch)
	})

	t.Run("unsorted fields", func(t *testing.T) {
		_, err := NewTypeTable().IndexFor(&RecordType{Fields: []FieldType{IndexedField(2, Nat), IndexedField(1, Nat)}})
		require.ErrorIs(t, err, TypeMismatch)
	})

	t.Run("duplicate label", func(t *testing.T) {
		tt := NewTypeTable()
		tt.Define("x", Nat)
		require.Error(t, tt.AddLabel(Named("x").Define(Text)))
		require.Panics(t, func() { tt.Define("x", Text) })
	})

	t.Run("func and service entries", func(t *testing.T) {
		tt := NewTypeTable()
		idx, err := tt.IndexFor(Service(Method("get", Func([]Type{Text}, []Type{Nat}, Query))))
		require.NoError(t, err)
		require.Equal(t, int64(0), idx)
		// service { "get": 1 }, func (text) -> (nat) query
		require.Equal(t, "02690103676574016a0171017d0101", hex.EncodeToString(tt.Bytes()))
	})
}

func TestCopyLabelsInto(t *testing.T) {
	env := NewTypeTable()
	list := Named("list")
	list.Define(Opt(Record(Field("head", Nat), Field("tail", list))))
	require.NoError(t, env.AddLabel(list))
	unused := env.Define("unused", Record(Field("b", Bool)))

	dst := NewTypeTable()
	require.NoError(t, env.CopyLabelsInto(Vec(list), dst))

	_, ok := dst.Lookup("list")
	require.True(t, ok)
	_, ok = dst.Lookup(unused.Name)
	require.False(t, ok)

	// list and its record first, then the vec
	require.Equal(t, 3, dst.Len())
	idx, err := dst.IndexFor(list)
	require.NoError(t, err)
	require.Equal(t, int64(0), idx)
	idx, err = dst.IndexFor(Vec(list))
	require.NoError(t, err)
	require.Equal(t, int64(2), idx)
}

func TestHeader(t *testing.T) {
	h, err := Header(NewTypeTable(), []Type{Text, Nat})
	require.NoError(t, err)
	require.Equal(t, "4449444c0002717d", hex.EncodeToString(h))

	b, err := AppendValues(h, []Type{Text, Nat}, []any{"a", 1})
	require.NoError(t, err)
	require.Equal(t, "4449444c0002717d016101", hex.EncodeToString(b))
}

func TestFieldHash(t *testing.T) {
	require.Equal(t, uint32(1224700491), FieldHash("name"))
	require.Equal(t, uint32(4846783), FieldHash("age"))
	require.Equal(t, uint32(0), FieldHash(""))
}
