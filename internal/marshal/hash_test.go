package marshal

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashOrderAndOverwrite(t *testing.T) {
	h := NewHash(0)
	sym := &Symbol{Name: "a"}
	h.Set(sym, Int(1))
	h.Set(Int(2), Int(2))
	h.Set(&String{Raw: []byte("s")}, Int(3))
	h.Set(sym, Int(4))
	h.Set(&String{Raw: []byte("s")}, Int(5))

	assert.Equal(t, 3, h.Len())
	var values []Value
	h.Range(func(_, v Value) bool {
		values = append(values, v)
		return true
	})
	assert.Equal(t, []Value{Int(4), Int(2), Int(5)}, values)

	_, ok := h.Get(&Symbol{Name: "a"})
	assert.False(t, ok, "symbols compare by instance")
}

func TestHashKeyKinds(t *testing.T) {
	h := NewHash(0)
	h.Set(Nil{}, Int(1))
	h.Set(Bool(true), Int(2))
	h.Set(Float(1.5), Int(3))
	h.Set(NewBigInt(new(big.Int).Lsh(big.NewInt(1), 70)), Int(4))

	v, ok := h.Get(nil)
	assert.True(t, ok)
	assert.Equal(t, Int(1), v)
	v, _ = h.Get(Float(1.5))
	assert.Equal(t, Int(3), v)
	v, _ = h.Get(NewBigInt(new(big.Int).Lsh(big.NewInt(1), 70)))
	assert.Equal(t, Int(4), v)

	var zero Hash
	zero.Set(Int(1), Int(1))
	assert.Equal(t, 1, zero.Len())
}

func TestAttributes(t *testing.T) {
	attrs := NewAttributes(0)
	attrs.Set("@a", Int(1))
	attrs.Set("@b", Int(2))
	attrs.Set("@c", Int(3))
	attrs.Set("@a", Int(10))
	assert.Equal(t, []string{"@a", "@b", "@c"}, attrs.Names())

	attrs.Delete("@b")
	attrs.Delete("@missing")
	assert.Equal(t, []string{"@a", "@c"}, attrs.Names())
	v, ok := attrs.Get("@c")
	assert.True(t, ok)
	assert.Equal(t, Int(3), v)

	var nilAttrs *Attributes
	assert.Equal(t, 0, nilAttrs.Len())
	_, ok = nilAttrs.Get("@a")
	assert.False(t, ok)
}

func TestValueHelpers(t *testing.T) {
	n, ok := AsInt(Int(3))
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)
	_, ok = AsInt(NewBigInt(new(big.Int).Lsh(big.NewInt(1), 80)))
	assert.False(t, ok)
	_, ok = AsInt(Float(1))
	assert.False(t, ok)

	text, ok := AsText(&Symbol{Name: "sym"})
	assert.True(t, ok)
	assert.Equal(t, "sym", text)
	_, ok = AsText(Int(1))
	assert.False(t, ok)

	b, ok := AsBool(Bool(true))
	assert.True(t, ok)
	assert.True(t, b)

	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(Nil{}))
	assert.False(t, IsNil(Int(0)))

	assert.Equal(t, "array", KindArray.String())
	assert.Equal(t, "kind(200)", Kind(200).String())

	p := &Pending{Index: 0}
	assert.Same(t, p, p.Resolve())
}

func TestTagCatalog(t *testing.T) {
	assert.True(t, TagArray.ReservesSlot())
	assert.True(t, TagString.ReservesSlot())
	assert.False(t, TagIVar.ReservesSlot())
	assert.False(t, TagSymbol.ReservesSlot())
	assert.False(t, TagFixnum.ReservesSlot())
	assert.True(t, TagExtended.Known())
	assert.False(t, Tag(0xff).Known())
	assert.Equal(t, "usrmarshal", TagUsrMarshal.String())
	assert.Equal(t, "0xff", Tag(0xff).String())
}
