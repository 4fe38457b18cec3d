package export

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"github.com/lk2023060901/rxdata-go/internal/marshal"
	"github.com/lk2023060901/rxdata-go/internal/rgss"
)

func text(s string) *marshal.String {
	return marshal.NewString([]byte(s), marshal.EncodingUTF8)
}

func TestTreeScalars(t *testing.T) {
	assert.Nil(t, Tree(nil))
	assert.Nil(t, Tree(marshal.Nil{}))
	assert.Equal(t, true, Tree(marshal.Bool(true)))
	assert.Equal(t, int64(-3), Tree(marshal.Int(-3)))
	assert.Equal(t, 1.5, Tree(marshal.Float(1.5)))
	assert.Equal(t, "NaN", Tree(marshal.Float(math.NaN())))
	assert.Equal(t, "-Infinity", Tree(marshal.Float(math.Inf(-1))))
	assert.Equal(t, "name", Tree(&marshal.Symbol{Name: "name"}))
	assert.Equal(t, int64(1<<40), Tree(marshal.NewBigInt(big.NewInt(1<<40))))

	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	assert.Equal(t, "123456789012345678901234567890", Tree(marshal.NewBigInt(huge)))
}

func TestBytesText(t *testing.T) {
	assert.Equal(t, "plain", BytesText([]byte("plain")))

	sjis, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte("テスト"))
	require.NoError(t, err)
	assert.Equal(t, "テスト", BytesText(sjis))

	assert.Equal(t, "80ff", BytesText([]byte{0x80, 0xff}))

	bin := &marshal.String{Raw: sjis, Encoding: marshal.EncodingBinary}
	assert.Equal(t, "テスト", Tree(bin))
}

func TestTreeObject(t *testing.T) {
	attrs := marshal.NewAttributes(2)
	attrs.Set("@name", text("Town"))
	attrs.Set("@ids", &marshal.Array{Items: []marshal.Value{marshal.Int(1), marshal.Nil{}}})
	obj := &marshal.Object{Class: "RPG::MapInfo", Attrs: attrs}

	assert.Equal(t, map[string]any{
		"@name": "Town",
		"@ids":  []any{int64(1), nil},
	}, Tree(obj))
}

func TestTreeHash(t *testing.T) {
	h := marshal.NewHash(2)
	h.Set(marshal.Int(1), text("one"))
	h.Set(&marshal.Symbol{Name: "two"}, marshal.Int(2))
	assert.Equal(t, map[string]any{"1": "one", "two": int64(2)}, Tree(h))

	h.Default = marshal.Int(0)
	h.Set(marshal.Float(0.5), marshal.Bool(false))
	assert.Equal(t, map[string]any{
		KeyPairs: []any{
			[]any{int64(1), "one"},
			[]any{"two", int64(2)},
			[]any{0.5, false},
		},
		KeyDefault: int64(0),
	}, Tree(h))
}

func TestTreeHashKeyClash(t *testing.T) {
	h := marshal.NewHash(3)
	h.Set(marshal.Int(1), text("int"))
	h.Set(text("1"), text("str"))
	h.Set(&marshal.Symbol{Name: "1"}, text("sym"))
	assert.Equal(t, map[string]any{
		KeyPairs: []any{
			[]any{int64(1), "int"},
			[]any{"1", "str"},
			[]any{"1", "sym"},
		},
	}, Tree(h))

	h = marshal.NewHash(1)
	h.Set(text(KeyDefault), marshal.Int(1))
	h.Default = marshal.Int(2)
	assert.Equal(t, map[string]any{
		KeyPairs:   []any{[]any{KeyDefault, int64(1)}},
		KeyDefault: int64(2),
	}, Tree(h))
}

func TestTreeCycle(t *testing.T) {
	arr := &marshal.Array{}
	inner := &marshal.Array{Items: []marshal.Value{arr}}
	arr.Items = []marshal.Value{arr, inner}

	assert.Equal(t, []any{
		map[string]any{KeyRef: 1},
		[]any{map[string]any{KeyRef: 2}},
	}, Tree(arr))

	// 非环的共享引用完整输出。
	shared := text("s")
	pair := &marshal.Array{Items: []marshal.Value{shared, shared}}
	assert.Equal(t, []any{"s", "s"}, Tree(pair))
}

func TestTreeWrappers(t *testing.T) {
	assert.Equal(t, map[string]any{KeyClass: "Foo"}, Tree(&marshal.ClassRef{Name: "Foo"}))
	assert.Equal(t, map[string]any{KeyModule: "Bar"}, Tree(&marshal.ModuleRef{Name: "Bar"}))
	assert.Equal(t, "x", Tree(&marshal.Extended{Modules: []string{"M"}, Value: text("x")}))
	assert.Equal(t, "y", Tree(&marshal.UserClass{Class: "MyString", Value: text("y")}))
	assert.Equal(t, int64(4), Tree(&marshal.UserMarshal{Class: "Dumped", Payload: marshal.Int(4)}))
	assert.Equal(t, map[string]any{KeyPending: 3}, Tree(&marshal.Pending{Index: 3}))
}

func TestTreeRGSS(t *testing.T) {
	tbl := &rgss.Table{Dim: 1, X: 3, Y: 1, Z: 1, Data: []uint16{4, 5, 6}}
	assert.Equal(t, map[string]any{
		"dim": int64(1), "x": int64(3), "y": int64(1), "z": int64(1),
		"raw": []uint16{4, 5, 6},
	}, Tree(tbl))

	c := &rgss.Color{Red: 1, Green: 2, Blue: 3, Alpha: 4}
	assert.Equal(t, map[string]any{"red": 1.0, "green": 2.0, "blue": 3.0, "alpha": 4.0}, Tree(c))
}
