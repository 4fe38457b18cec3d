package export

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"

	"github.com/lk2023060901/rxdata-go/internal/marshal"
	"github.com/lk2023060901/rxdata-go/internal/rgss"
)

// 导出树中的标记键。
const (
	// KeyRef 标记指向祖先容器的环引用，值为向上的层数（1 为直接父容器）。
	KeyRef     = "$ref"
	KeyPending = "$pending"
	KeyPairs   = "$pairs"
	KeyDefault = "$default"
	KeyClass   = "$class"
	KeyModule  = "$module"
	KeyRegexp  = "$regexp"
	KeyOptions = "$options"
	KeyExt     = "$extension"
)

// Tree 将解码结果转换为只含基础类型的导出树：
// 字符串转为文本，Table 转为 {dim,x,y,z,raw}，对象转为实例变量表。
// 环引用替换为 {"$ref": n}，保证结果有限。
func Tree(v marshal.Value) any {
	b := &treeBuilder{}
	return b.build(v)
}

type treeBuilder struct {
	// 当前路径上的容器，用于发现环。
	stack []marshal.Value
}

func (b *treeBuilder) enter(v marshal.Value) (map[string]any, bool) {
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i] == v {
			return map[string]any{KeyRef: len(b.stack) - i}, false
		}
	}
	b.stack = append(b.stack, v)
	return nil, true
}

func (b *treeBuilder) leave() {
	b.stack = b.stack[:len(b.stack)-1]
}

func (b *treeBuilder) build(v marshal.Value) any {
	switch x := marshal.Resolve(v).(type) {
	case nil, marshal.Nil:
		return nil
	case marshal.Bool:
		return bool(x)
	case marshal.Int:
		return int64(x)
	case marshal.Float:
		return floatTree(float64(x))
	case *marshal.BigInt:
		if n, ok := x.Int64(); ok {
			return n
		}
		return x.String()
	case *marshal.String:
		if x.Encoding == marshal.EncodingBinary {
			return BytesText(x.Raw)
		}
		return x.Text()
	case *marshal.Symbol:
		return x.Name
	case *marshal.Regexp:
		return map[string]any{KeyRegexp: x.Pattern(), KeyOptions: int64(x.Options)}
	case *marshal.ClassRef:
		return map[string]any{KeyClass: x.Name}
	case *marshal.ModuleRef:
		return map[string]any{KeyModule: x.Name}
	case *marshal.Pending:
		return map[string]any{KeyPending: x.Index}
	case *marshal.Array:
		ref, ok := b.enter(x)
		if !ok {
			return ref
		}
		defer b.leave()
		out := make([]any, len(x.Items))
		for i, item := range x.Items {
			out[i] = b.build(item)
		}
		return out
	case *marshal.Hash:
		ref, ok := b.enter(x)
		if !ok {
			return ref
		}
		defer b.leave()
		return b.hash(x)
	case *marshal.Object:
		ref, ok := b.enter(x)
		if !ok {
			return ref
		}
		defer b.leave()
		return b.attributes(x.Attrs)
	case *marshal.Struct:
		ref, ok := b.enter(x)
		if !ok {
			return ref
		}
		defer b.leave()
		return b.attributes(x.Members)
	case *marshal.UserMarshal:
		ref, ok := b.enter(x)
		if !ok {
			return ref
		}
		defer b.leave()
		return b.build(x.Payload)
	case *marshal.Extended:
		return b.build(x.Value)
	case *marshal.UserClass:
		return b.build(x.Value)
	case *rgss.Table:
		return map[string]any{
			"dim": int64(x.Dim),
			"x":   int64(x.X),
			"y":   int64(x.Y),
			"z":   int64(x.Z),
			"raw": x.Data,
		}
	case *rgss.Color:
		return map[string]any{"red": x.Red, "green": x.Green, "blue": x.Blue, "alpha": x.Alpha}
	case *rgss.Tone:
		return map[string]any{"red": x.Red, "green": x.Green, "blue": x.Blue, "gray": x.Gray}
	default:
		return map[string]any{KeyExt: fmt.Sprintf("%T", x)}
	}
}

// hash 在所有键都能表示为互不相同的文本时输出对象，否则输出 {"$pairs": [[k, v], ...]}。
// 整数 1、字符串 "1" 与符号 :1 的文本相同，同时出现时只能使用 $pairs。
func (b *treeBuilder) hash(h *marshal.Hash) any {
	var def any
	if !marshal.IsNil(h.Default) {
		def = b.build(h.Default)
	}

	obj := make(map[string]any, h.Len())
	textKeys := true
	h.Range(func(key, value marshal.Value) bool {
		k, ok := keyText(key)
		if _, dup := obj[k]; !ok || dup {
			textKeys = false
			return false
		}
		obj[k] = b.build(value)
		return true
	})
	if _, clash := obj[KeyDefault]; clash && def != nil {
		textKeys = false
	}
	if textKeys {
		if def != nil {
			obj[KeyDefault] = def
		}
		return obj
	}

	pairs := make([]any, 0, h.Len())
	h.Range(func(key, value marshal.Value) bool {
		pairs = append(pairs, []any{b.build(key), b.build(value)})
		return true
	})
	out := map[string]any{KeyPairs: pairs}
	if def != nil {
		out[KeyDefault] = def
	}
	return out
}

func (b *treeBuilder) attributes(attrs *marshal.Attributes) map[string]any {
	out := make(map[string]any, attrs.Len())
	attrs.Range(func(name string, v marshal.Value) bool {
		out[name] = b.build(v)
		return true
	})
	return out
}

func keyText(key marshal.Value) (string, bool) {
	switch k := marshal.Resolve(key).(type) {
	case *marshal.String:
		return k.Text(), true
	case *marshal.Symbol:
		return k.Name, true
	case marshal.Int:
		return strconv.FormatInt(int64(k), 10), true
	default:
		return "", false
	}
}

// floatTree 把 JSON 无法表示的浮点数写成字符串。
func floatTree(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return f
}

// BytesText 将不带编码的字节转为文本：
// 合法 UTF-8 直接使用，否则按 Shift_JIS 解码，仍失败时输出十六进制。
func BytesText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	out, err := japanese.ShiftJIS.NewDecoder().Bytes(raw)
	if err == nil && utf8.Valid(out) && !containsReplacement(out) {
		return string(out)
	}
	return hex.EncodeToString(raw)
}

func containsReplacement(b []byte) bool {
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError {
			return true
		}
		b = b[size:]
	}
	return false
}
