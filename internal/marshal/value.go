package marshal

import (
	"fmt"
	"math/big"
	"regexp"
)

// Kind 标识解码结果的具体类别。
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindBigInt
	KindFloat
	KindString
	KindSymbol
	KindArray
	KindHash
	KindRegexp
	KindObject
	KindExtension
	KindClass
	KindModule
	KindUserMarshal
	KindStruct
	KindExtended
	KindUserClass
	KindPending
)

var kindNames = [...]string{
	KindNil:         "nil",
	KindBool:        "bool",
	KindInt:         "int",
	KindBigInt:      "bigint",
	KindFloat:       "float",
	KindString:      "string",
	KindSymbol:      "symbol",
	KindArray:       "array",
	KindHash:        "hash",
	KindRegexp:      "regexp",
	KindObject:      "object",
	KindExtension:   "extension",
	KindClass:       "class",
	KindModule:      "module",
	KindUserMarshal: "usrmarshal",
	KindStruct:      "struct",
	KindExtended:    "extended",
	KindUserClass:   "uclass",
	KindPending:     "pending",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value 是解码得到的任意值。
// 扩展类型只需实现 Kind 并返回 KindExtension 即可作为解码结果。
// 作为哈希键使用的 Value 实现必须是可比较的类型（通常为指针）。
type Value interface {
	Kind() Kind
}

// IVarHolder 由能够携带附加实例变量的值实现。
type IVarHolder interface {
	IVars() *Attributes
	SetIVars(attrs *Attributes)
}

// IVarMeta 保存 IVAR 包装中与编码无关的实例变量，扩展类型嵌入它即可接收这些属性。
type IVarMeta struct {
	ivars *Attributes
}

func (m *IVarMeta) IVars() *Attributes {
	return m.ivars
}

func (m *IVarMeta) SetIVars(attrs *Attributes) {
	if attrs == nil || attrs.Len() == 0 {
		return
	}
	if m.ivars == nil {
		m.ivars = NewAttributes(attrs.Len())
	}
	attrs.Range(func(name string, v Value) bool {
		m.ivars.Set(name, v)
		return true
	})
}

type Nil struct{}

func (Nil) Kind() Kind { return KindNil }

type Bool bool

func (Bool) Kind() Kind { return KindBool }

// Int 为变长编码的机器字长整数。
type Int int64

func (Int) Kind() Kind { return KindInt }

type Float float64

func (Float) Kind() Kind { return KindFloat }

// BigInt 为任意精度整数。
type BigInt struct {
	IVarMeta
	v *big.Int
}

// NewBigInt 以 v 的副本构造 BigInt。
func NewBigInt(v *big.Int) *BigInt {
	return &BigInt{v: new(big.Int).Set(v)}
}

func (*BigInt) Kind() Kind { return KindBigInt }

// Big 返回底层整数的副本。
func (b *BigInt) Big() *big.Int {
	return new(big.Int).Set(b.v)
}

// Int64 在数值可以用 int64 表示时返回该值。
func (b *BigInt) Int64() (int64, bool) {
	if !b.v.IsInt64() {
		return 0, false
	}
	return b.v.Int64(), true
}

func (b *BigInt) String() string {
	return b.v.String()
}

// String 保存原始字节以及按编码恢复出的文本。
// Encoding 为空表示流中没有给出编码，此时 Text 按 UTF-8 或默认旧式编码解释。
type String struct {
	IVarMeta
	Raw      []byte
	Encoding string

	text    string
	decoded bool
}

// NewString 按 encoding 立即解出 raw 的文本，无法表示的字节写成转义形式。
func NewString(raw []byte, encoding string) *String {
	s := &String{Raw: raw, Encoding: encoding}
	s.setText(s.decodeRaw())
	return s
}

func (*String) Kind() Kind { return KindString }

func (s *String) setText(text string) {
	s.text = text
	s.decoded = true
}

// decodeRaw 与解码器的规则一致：有编码名时按编码解释，否则按 UTF-8 或默认旧式编码。
func (s *String) decodeRaw() string {
	if s.Encoding == "" {
		return defaultText(s.Raw, defaultLegacy)
	}
	codec, err := lookupEncoding(s.Encoding)
	if err != nil {
		return escapeBytes(s.Raw)
	}
	text, err := codec.decode(s.Raw)
	if err != nil {
		return escapeBytes(s.Raw)
	}
	return text
}

// Text 返回按编码恢复出的文本。直接构造而未经解码的值按 Raw 与 Encoding 现场解出。
func (s *String) Text() string {
	if s.decoded {
		return s.text
	}
	return s.decodeRaw()
}

func (s *String) String() string {
	return s.Text()
}

// Symbol 为会话内驻留的符号，相同名称总是对应同一个实例。
type Symbol struct {
	Name     string
	Encoding string
}

func (*Symbol) Kind() Kind { return KindSymbol }

func (s *Symbol) String() string {
	return s.Name
}

type Array struct {
	IVarMeta
	Items []Value
}

func (*Array) Kind() Kind { return KindArray }

func (a *Array) Len() int {
	return len(a.Items)
}

// At 返回下标 i 处的元素，越界时返回 Nil。
func (a *Array) At(i int) Value {
	if i < 0 || i >= len(a.Items) {
		return Nil{}
	}
	return a.Items[i]
}

// Regexp 选项位。
const (
	RegexpIgnoreCase byte = 1 << 0
	RegexpExtended   byte = 1 << 1
	RegexpMultiline  byte = 1 << 2
)

// Regexp 保存正则源码与选项。
// Compiled 为按 RE2 语法编译的结果，源码无法被 RE2 接受时为 nil。
type Regexp struct {
	IVarMeta
	Raw      []byte
	Encoding string
	Options  byte
	Compiled *regexp.Regexp
	pattern  string
}

func (*Regexp) Kind() Kind { return KindRegexp }

func (r *Regexp) Pattern() string {
	return r.pattern
}

func (r *Regexp) IgnoreCase() bool {
	return r.Options&RegexpIgnoreCase != 0
}

func (r *Regexp) Extended() bool {
	return r.Options&RegexpExtended != 0
}

func (r *Regexp) Multiline() bool {
	return r.Options&RegexpMultiline != 0
}

// compile 将 Ruby 选项映射为 RE2 标志后编译。
// Ruby 的 multiline 表示 "." 匹配换行，对应 RE2 的 s 标志。
func (r *Regexp) compile() error {
	flags := ""
	if r.IgnoreCase() {
		flags += "i"
	}
	if r.Multiline() {
		flags += "s"
	}
	expr := r.pattern
	if flags != "" {
		expr = "(?" + flags + ")" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		r.Compiled = nil
		return err
	}
	r.Compiled = re
	return nil
}

// Object 为没有注册扩展的类实例，保存类名和有序的实例变量表。
type Object struct {
	Class string
	Attrs *Attributes
}

func (*Object) Kind() Kind { return KindObject }

// Attr 返回实例变量 name 的值，不存在时返回 Nil。
func (o *Object) Attr(name string) Value {
	if v, ok := o.Attrs.Get(name); ok {
		return v
	}
	return Nil{}
}

// ClassRef 是对类的引用，而不是实例。
// 类名已注册时 Entry 指向注册项。
type ClassRef struct {
	IVarMeta
	Name  string
	Entry *Entry
}

func (*ClassRef) Kind() Kind { return KindClass }

type ModuleRef struct {
	IVarMeta
	Name string
	Old  bool
}

func (*ModuleRef) Kind() Kind { return KindModule }

// UserMarshal 为未注册类的 marshal_dump 结果（以及 DATA 标记）。
type UserMarshal struct {
	IVarMeta
	Class   string
	Payload Value
	Data    bool
}

func (*UserMarshal) Kind() Kind { return KindUserMarshal }

type Struct struct {
	IVarMeta
	Class   string
	Members *Attributes
}

func (*Struct) Kind() Kind { return KindStruct }

// Extended 表示被若干模块 extend 过的对象。
type Extended struct {
	Modules []string
	Value   Value
}

func (*Extended) Kind() Kind { return KindExtended }

// UserClass 表示 String/Array/Hash/Regexp 的子类实例。
type UserClass struct {
	Class string
	Value Value
}

func (*UserClass) Kind() Kind { return KindUserClass }

// Pending 指向一个已预留但在引用发生时尚未填充的槽位。
// 解码结束后可以通过 Resolve 取得最终的值。
type Pending struct {
	Index int
	table *objectTable
}

func (*Pending) Kind() Kind { return KindPending }

// Resolve 返回槽位的最终值，槽位仍为空时返回 p 本身。
func (p *Pending) Resolve() Value {
	if p.table == nil {
		return p
	}
	if v := p.table.slots[p.Index]; v != nil {
		return v
	}
	return p
}

// Resolve 在 v 为 *Pending 时返回其最终值，否则原样返回。
func Resolve(v Value) Value {
	if p, ok := v.(*Pending); ok {
		return p.Resolve()
	}
	return v
}

// IsNil 判断 v 是否为 nil 值。
func IsNil(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := Resolve(v).(Nil)
	return ok
}

// AsInt 将 Int 或可用 int64 表示的 BigInt 转换为 int64。
func AsInt(v Value) (int64, bool) {
	switch x := Resolve(v).(type) {
	case Int:
		return int64(x), true
	case *BigInt:
		return x.Int64()
	default:
		return 0, false
	}
}

// AsText 返回 String、Symbol 或字符串子类实例的文本。
func AsText(v Value) (string, bool) {
	switch x := Resolve(v).(type) {
	case *String:
		return x.Text(), true
	case *Symbol:
		return x.Name, true
	case *UserClass:
		return AsText(x.Value)
	default:
		return "", false
	}
}

// AsBool 将 Bool 转换为 bool。
func AsBool(v Value) (bool, bool) {
	b, ok := Resolve(v).(Bool)
	return bool(b), ok
}

var (
	_ IVarHolder = (*String)(nil)
	_ IVarHolder = (*Array)(nil)
	_ IVarHolder = (*Hash)(nil)
	_ IVarHolder = (*Regexp)(nil)
	_ IVarHolder = (*UserMarshal)(nil)
	_ IVarHolder = (*Struct)(nil)
)
