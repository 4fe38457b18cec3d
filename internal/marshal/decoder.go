package marshal

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/blang/semver/v4"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/rxdata-go/pkg/log"
	"github.com/lk2023060901/rxdata-go/pkg/metrics"
	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
	"github.com/lk2023060901/rxdata-go/pkg/util/typeutil"
)

const (
	DefaultMaxDepth       = 1024
	DefaultVersionRange   = ">=4.0.0 <4.9.0"
	DefaultLegacyEncoding = "Shift_JIS"
)

// Options 为解码器的配置项。
type Options struct {
	// MaxDepth 为允许的最大嵌套深度。
	MaxDepth int
	// VersionRange 为允许的版本前缀范围，按 semver 范围语法书写。
	VersionRange string
	// LegacyEncoding 为没有编码属性且不是合法 UTF-8 的字节串使用的编码。
	LegacyEncoding string
}

// Option 用于修改 Options。
type Option func(*Options)

func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		o.MaxDepth = depth
	}
}

func WithVersionRange(expr string) Option {
	return func(o *Options) {
		o.VersionRange = expr
	}
}

func WithLegacyEncoding(name string) Option {
	return func(o *Options) {
		o.LegacyEncoding = name
	}
}

func defaultOptions() Options {
	return Options{
		MaxDepth:       DefaultMaxDepth,
		VersionRange:   DefaultVersionRange,
		LegacyEncoding: DefaultLegacyEncoding,
	}
}

// Document 为一次解码的结果。
type Document struct {
	Major, Minor byte
	Root         Value
	Warnings     []Warning
	// ObjectCount 为对象反向引用表的槽位数。
	ObjectCount int
	// SymbolCount 为不同符号名称的数量。
	SymbolCount int
	// UnknownClasses 为未注册而以 UserMarshal、Struct 或 UserClass 形式保留的类名，按字典序排列。
	UnknownClasses []string
}

// Decoder 将字节缓冲区解码为值图。
// Decoder 可被多个 goroutine 并发使用，每次 Decode 使用独立的会话状态。
type Decoder struct {
	registry *Registry
	opts     Options
	versions semver.Range
	legacy   textCodec
}

// NewDecoder 创建解码器。registry 为 nil 时使用 DefaultRegistry。
func NewDecoder(registry *Registry, opts ...Option) (*Decoder, error) {
	if registry == nil {
		registry = DefaultRegistry()
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.MaxDepth <= 0 {
		return nil, merr.WrapErrParameterInvalid(">0", strconv.Itoa(o.MaxDepth), "max depth")
	}
	versions, err := semver.ParseRange(o.VersionRange)
	if err != nil {
		return nil, merr.WrapErrParameterInvalidMsg("invalid version range %q: %v", o.VersionRange, err)
	}
	legacy := textCodec{}
	if o.LegacyEncoding != "" {
		legacy, err = lookupEncoding(o.LegacyEncoding)
		if err != nil {
			return nil, err
		}
	}

	return &Decoder{
		registry: registry,
		opts:     o,
		versions: versions,
		legacy:   legacy,
	}, nil
}

func (d *Decoder) Registry() *Registry {
	return d.registry
}

// Decode 解码一个完整的流：两字节版本前缀加一个顶层值。
// 任何错误都会中止整个解码，不返回部分结果。
func (d *Decoder) Decode(ctx context.Context, data []byte) (*Document, error) {
	start := time.Now()
	doc, err := d.decode(data)

	result := metrics.SuccessLabel
	if err != nil {
		result = metrics.FailLabel
	}
	metrics.DecodeTotal.WithLabelValues(result).Inc()
	metrics.DecodeDuration.WithLabelValues(result).Observe(float64(time.Since(start).Milliseconds()))
	metrics.DecodeBytes.Observe(float64(len(data)))

	if err != nil {
		log.Ctx(ctx).Debug("decode failed", zap.Int("size", len(data)), zap.Error(err))
		return nil, err
	}

	logger := log.Ctx(ctx)
	for _, w := range doc.Warnings {
		metrics.DecodeWarnings.WithLabelValues(w.Kind).Inc()
		if !logger.RatedWarn(1, "decode warning", zap.String("kind", w.Kind), zap.Int("offset", w.Offset), zap.String("detail", w.Message)) {
			metrics.LoggingRatedDropped.WithLabelValues(w.Kind).Inc()
		}
	}
	return doc, nil
}

func (d *Decoder) decode(data []byte) (*Document, error) {
	if len(data) < 2 {
		return nil, &DecodeError{Offset: 0, Err: merr.WrapErrUnexpectedEndOfStream(2, len(data))}
	}
	major, minor := data[0], data[1]
	version := semver.Version{Major: uint64(major), Minor: uint64(minor)}
	if !d.versions(version) {
		return nil, &DecodeError{Offset: 0, Err: merr.WrapErrUnsupportedFormatVersion(major, minor, d.opts.VersionRange)}
	}

	s := &session{
		dec:     d,
		r:       reader{data: data, pos: 2},
		symbols: newSymbolTable(),
		unknown: typeutil.NewSet[string](),
	}
	root, err := s.decodeValue()
	if err != nil {
		return nil, err
	}
	if rest := s.r.remaining(); rest > 0 {
		s.warn(WarnTrailing, fmt.Sprintf("%d bytes after root value ignored", rest))
	}

	return &Document{
		Major:          major,
		Minor:          minor,
		Root:           root,
		Warnings:       s.warnings,
		ObjectCount:    s.objects.len(),
		SymbolCount:    s.symbols.distinct(),
		UnknownClasses: typeutil.Sorted(s.unknown),
	}, nil
}

var (
	defaultDecoderOnce sync.Once
	defaultDecoder     *Decoder
)

// Unmarshal 使用 DefaultRegistry 与默认配置解码 data，只返回根值。
func Unmarshal(data []byte) (Value, error) {
	defaultDecoderOnce.Do(func() {
		dec, err := NewDecoder(DefaultRegistry())
		if err != nil {
			panic(err)
		}
		defaultDecoder = dec
	})
	doc, err := defaultDecoder.Decode(context.Background(), data)
	if err != nil {
		return nil, err
	}
	return doc.Root, nil
}

// session 为单次解码的全部可变状态，解码结束后丢弃。
type session struct {
	dec      *Decoder
	r        reader
	objects  objectTable
	symbols  symbolTable
	depth    int
	warnings []Warning
	unknown  typeutil.Set[string]
}

func (s *session) warn(kind, msg string) {
	s.warnings = append(s.warnings, Warning{Offset: s.r.pos, Kind: kind, Message: msg})
}

// decodeValue 读取一个标记并解码其后的值。
func (s *session) decodeValue() (Value, error) {
	b, err := s.r.readByte()
	if err != nil {
		return nil, &DecodeError{Offset: s.r.pos, Err: err}
	}
	return s.decodeTagged(Tag(b))
}

// decodeTagged 在标记已被读取后继续解码。
// 首个失败会被包装为带偏移和标记的 DecodeError，外层原样向上传递。
func (s *session) decodeTagged(tag Tag) (Value, error) {
	s.depth++
	defer func() { s.depth-- }()

	var (
		v   Value
		err error
	)
	if s.depth > s.dec.opts.MaxDepth {
		err = merr.WrapErrNestingTooDeep(s.depth, s.dec.opts.MaxDepth)
	} else {
		v, err = s.dispatch(tag)
	}
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, &DecodeError{Offset: s.r.pos, Tag: tag, Err: err}
	}
	return v, nil
}

func (s *session) dispatch(tag Tag) (Value, error) {
	switch tag {
	case TagNil:
		return Nil{}, nil
	case TagTrue:
		return Bool(true), nil
	case TagFalse:
		return Bool(false), nil
	case TagFixnum:
		n, err := s.r.readLong()
		if err != nil {
			return nil, err
		}
		return Int(n), nil
	case TagSymbol:
		return s.readSymbol()
	case TagSymlink:
		return s.readSymlink()
	case TagLink:
		return s.readLink()
	case TagArray:
		return s.readArray()
	case TagHash, TagHashDef:
		return s.readHash(tag == TagHashDef)
	case TagFloat:
		return s.readFloat()
	case TagBignum:
		return s.readBignum()
	case TagString:
		return s.readStringValue()
	case TagRegexp:
		return s.readRegexp()
	case TagIVar:
		return s.readIVar()
	case TagUsrMarshal, TagData:
		return s.readUsrMarshal(tag == TagData)
	case TagUserDef:
		return s.readUserDef()
	case TagObject:
		return s.readObject()
	case TagStruct:
		return s.readStruct()
	case TagClass:
		return s.readClass()
	case TagModule, TagModuleOld:
		return s.readModule(tag == TagModuleOld)
	case TagExtended:
		return s.readExtended()
	case TagUserClass:
		return s.readUserClass()
	default:
		return nil, merr.WrapErrUnrecognizedTag(byte(tag))
	}
}

func (s *session) readSymbol() (*Symbol, error) {
	name, err := s.r.readString()
	if err != nil {
		return nil, err
	}
	return s.symbols.intern(name), nil
}

func (s *session) readSymlink() (*Symbol, error) {
	index, err := s.r.readLong()
	if err != nil {
		return nil, err
	}
	sym, ok := s.symbols.at(int(index))
	if !ok {
		return nil, merr.WrapErrInvalidSymbolLink(int(index), s.symbols.len())
	}
	return sym, nil
}

// readLink 解析对象引用。索引必须小于已预留的槽位数，
// 因此可以指向正在解码的容器自身，形成环。
func (s *session) readLink() (Value, error) {
	index, err := s.r.readLong()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= int64(s.objects.len()) {
		return nil, merr.WrapErrInvalidBackreference(int(index), s.objects.len())
	}
	return s.objects.at(int(index)), nil
}

// capacity 以剩余字节数约束预分配，避免恶意计数导致大量分配。
func (s *session) capacity(n int) int {
	return min(n, s.r.remaining())
}

func (s *session) readArray() (*Array, error) {
	slot := s.objects.reserve()
	n, err := s.r.readLength()
	if err != nil {
		return nil, err
	}
	arr := &Array{Items: make([]Value, 0, s.capacity(n))}
	s.objects.fill(slot, arr)
	for i := 0; i < n; i++ {
		item, err := s.decodeValue()
		if err != nil {
			return nil, err
		}
		arr.Items = append(arr.Items, item)
	}
	return arr, nil
}

func (s *session) readHash(withDefault bool) (*Hash, error) {
	slot := s.objects.reserve()
	n, err := s.r.readLength()
	if err != nil {
		return nil, err
	}
	h := NewHash(s.capacity(n))
	s.objects.fill(slot, h)
	for i := 0; i < n; i++ {
		key, err := s.decodeValue()
		if err != nil {
			return nil, err
		}
		value, err := s.decodeValue()
		if err != nil {
			return nil, err
		}
		h.Set(key, value)
	}
	if withDefault {
		if h.Default, err = s.decodeValue(); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// readFloat 解析十进制文本，只取第一个 NUL 之前的部分。
func (s *session) readFloat() (Float, error) {
	slot := s.objects.reserve()
	raw, err := s.r.readString()
	if err != nil {
		return 0, err
	}
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, merr.WrapErrMalformedValue("float", strconv.Quote(string(raw)))
	}
	s.objects.fill(slot, Float(f))
	return Float(f), nil
}

// readBignum 读取符号字节与 16 位小端数位，值为 Σ digit[i]·65536^i。
func (s *session) readBignum() (*BigInt, error) {
	slot := s.objects.reserve()
	sign, err := s.r.readByte()
	if err != nil {
		return nil, err
	}
	if sign != '+' && sign != '-' {
		return nil, merr.WrapErrMalformedValue("bignum", fmt.Sprintf("sign byte 0x%02x", sign))
	}
	n, err := s.r.readLength()
	if err != nil {
		return nil, err
	}
	digits, err := s.r.readBytes(2 * n)
	if err != nil {
		return nil, err
	}
	be := make([]byte, len(digits))
	for i, b := range digits {
		be[len(digits)-1-i] = b
	}
	v := new(big.Int).SetBytes(be)
	if sign == '-' {
		v.Neg(v)
	}
	bi := &BigInt{v: v}
	s.objects.fill(slot, bi)
	return bi, nil
}

func (s *session) readStringValue() (*String, error) {
	slot := s.objects.reserve()
	raw, err := s.r.readString()
	if err != nil {
		return nil, err
	}
	str := &String{Raw: raw}
	str.setText(defaultText(raw, s.dec.legacy))
	s.objects.fill(slot, str)
	return str, nil
}

func (s *session) readRegexp() (*Regexp, error) {
	slot := s.objects.reserve()
	raw, err := s.r.readString()
	if err != nil {
		return nil, err
	}
	options, err := s.r.readByte()
	if err != nil {
		return nil, err
	}
	re := &Regexp{Raw: raw, Options: options, pattern: defaultText(raw, s.dec.legacy)}
	s.objects.fill(slot, re)
	s.compileRegexp(re)
	return re, nil
}

func (s *session) compileRegexp(re *Regexp) {
	if err := re.compile(); err != nil {
		s.warn(WarnRegexp, fmt.Sprintf("pattern %q not compiled: %v", re.pattern, err))
	}
}

// readAttributes 读取计数前缀的 (符号, 值) 列表。
func (s *session) readAttributes() (*Attributes, error) {
	n, err := s.r.readLength()
	if err != nil {
		return nil, err
	}
	attrs := NewAttributes(s.capacity(n))
	for i := 0; i < n; i++ {
		name, err := s.readName("attribute name")
		if err != nil {
			return nil, err
		}
		v, err := s.decodeValue()
		if err != nil {
			return nil, err
		}
		attrs.Set(name, v)
	}
	return attrs, nil
}

// readName 解码一个必须为符号的值，用于类名与实例变量名。
func (s *session) readName(what string) (string, error) {
	v, err := s.decodeValue()
	if err != nil {
		return "", err
	}
	sym, ok := v.(*Symbol)
	if !ok {
		return "", merr.WrapErrMalformedValue(what, "expected symbol, got "+v.Kind().String())
	}
	return sym.Name, nil
}

// readIVar 解码被包装的值及其实例变量。
// 字符串、正则与符号根据 E/encoding 属性恢复文本，对象合并实例变量，其余值作为元数据附加。
// 立即值（nil、布尔、整数、浮点）无处附加，只记录告警。
func (s *session) readIVar() (Value, error) {
	b, err := s.r.readByte()
	if err != nil {
		return nil, err
	}
	v, err := s.decodeTagged(Tag(b))
	if err != nil {
		return nil, err
	}
	attrs, err := s.readAttributes()
	if err != nil {
		return nil, err
	}
	s.applyIVars(v, attrs)
	return v, nil
}

func (s *session) applyIVars(v Value, attrs *Attributes) {
	switch x := v.(type) {
	case *String:
		if codec, ok := s.takeEncoding(attrs); ok {
			x.Encoding = codec.name
			x.setText(s.decodeText(x.Raw, codec))
		}
		x.SetIVars(attrs)
	case *Regexp:
		if codec, ok := s.takeEncoding(attrs); ok {
			x.Encoding = codec.name
			x.pattern = s.decodeText(x.Raw, codec)
			s.compileRegexp(x)
		}
		x.SetIVars(attrs)
	case *Symbol:
		if codec, ok := s.takeEncoding(attrs); ok {
			x.Encoding = codec.name
		}
		if attrs.Len() > 0 {
			s.warn(WarnIVar, "instance variables on symbol "+x.Name+" dropped")
		}
	case *Object:
		attrs.Range(func(name string, value Value) bool {
			x.Attrs.Set(name, value)
			return true
		})
	case *UserClass:
		s.applyIVars(x.Value, attrs)
	case *Extended:
		s.applyIVars(x.Value, attrs)
	case IVarHolder:
		x.SetIVars(attrs)
	default:
		if attrs.Len() > 0 {
			s.warn(WarnIVar, fmt.Sprintf("instance variables on %s dropped", v.Kind()))
		}
	}
}

// takeEncoding 从属性中取出编码声明：E=true 为 UTF-8，E=false 为 US-ASCII，
// encoding="name" 为具名编码。取出的属性会从 attrs 中删除。
func (s *session) takeEncoding(attrs *Attributes) (textCodec, bool) {
	if v, ok := attrs.Get("E"); ok {
		attrs.Delete("E")
		if b, ok := v.(Bool); ok {
			if b {
				return textCodec{name: EncodingUTF8}, true
			}
			return textCodec{name: EncodingASCII}, true
		}
		s.warn(WarnEncoding, "E attribute is not a boolean")
		return textCodec{}, false
	}
	if v, ok := attrs.Get("encoding"); ok {
		attrs.Delete("encoding")
		name, ok := AsText(v)
		if !ok {
			s.warn(WarnEncoding, "encoding attribute is not a string")
			return textCodec{}, false
		}
		codec, err := lookupEncoding(name)
		if err != nil {
			s.warn(WarnEncoding, fmt.Sprintf("unknown encoding %q, bytes escaped", name))
			return textCodec{name: name}, true
		}
		return codec, true
	}
	return textCodec{}, false
}

// decodeText 在编码无法表示字节时回退为逐字节转义并记录告警。
func (s *session) decodeText(raw []byte, codec textCodec) string {
	text, err := codec.decode(raw)
	if err != nil {
		s.warn(WarnEncoding, fmt.Sprintf("%d bytes not valid %s, decoded via escape", len(raw), codec.name))
		return escapeBytes(raw)
	}
	return text
}

// readUsrMarshal 解码 USRMARSHAL/DATA：类名后跟一个任意载荷。
// 已注册的类交给 AttributeDecoder，未注册的类保留为通用 UserMarshal。
func (s *session) readUsrMarshal(data bool) (Value, error) {
	slot := s.objects.reserve()
	class, err := s.readName("class name")
	if err != nil {
		return nil, err
	}

	entry, registered := s.dec.registry.Lookup(class)
	if !registered {
		um := &UserMarshal{Class: class, Data: data}
		s.objects.fill(slot, um)
		s.unknown.Insert(class)
		if um.Payload, err = s.decodeValue(); err != nil {
			return nil, err
		}
		return um, nil
	}

	dec, ok := entry.Attributes()
	if !ok {
		return nil, merr.WrapErrCapabilityMismatch(class, CapabilityAttributes, entry.Capability)
	}
	// 载荷先于扩展值解码，期间对该槽位的引用得到 *Pending。
	payload, err := s.decodeValue()
	if err != nil {
		return nil, err
	}
	v, err := extensionResult(class)(dec.DecodeAttributes(class, payload))
	if err != nil {
		return nil, err
	}
	s.objects.fill(slot, v)
	return v, nil
}

// readUserDef 解码 USERDEF：类名后跟不透明字节，必须由已注册的 OpaqueDecoder 解析。
func (s *session) readUserDef() (Value, error) {
	slot := s.objects.reserve()
	class, err := s.readName("class name")
	if err != nil {
		return nil, err
	}
	data, err := s.r.readString()
	if err != nil {
		return nil, err
	}

	entry, registered := s.dec.registry.Lookup(class)
	if !registered {
		return nil, merr.WrapErrUnregisteredOpaqueClass(class)
	}
	dec, ok := entry.Opaque()
	if !ok {
		return nil, merr.WrapErrCapabilityMismatch(class, CapabilityOpaque, entry.Capability)
	}
	v, err := extensionResult(class)(dec.DecodeOpaque(class, data))
	if err != nil {
		return nil, err
	}
	s.objects.fill(slot, v)
	return v, nil
}

// extensionResult 拒绝扩展返回的空值，槽位中不允许出现 nil。
func extensionResult(class string) func(Value, error) (Value, error) {
	return func(v Value, err error) (Value, error) {
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, merr.WrapErrMalformedValue(class, "extension returned no value")
		}
		return v, nil
	}
}

// constructor 返回类名对应的 ObjectConstructor；未注册时返回 nil。
func (s *session) constructor(class string) (ObjectConstructor, error) {
	entry, registered := s.dec.registry.Lookup(class)
	if !registered {
		return nil, nil
	}
	ctor, ok := entry.Object()
	if !ok {
		return nil, merr.WrapErrCapabilityMismatch(class, CapabilityObject, entry.Capability)
	}
	return ctor, nil
}

func (s *session) readObject() (Value, error) {
	slot := s.objects.reserve()
	class, err := s.readName("class name")
	if err != nil {
		return nil, err
	}
	ctor, err := s.constructor(class)
	if err != nil {
		return nil, err
	}

	if ctor == nil {
		obj := &Object{Class: class}
		s.objects.fill(slot, obj)
		if obj.Attrs, err = s.readAttributes(); err != nil {
			return nil, err
		}
		return obj, nil
	}

	attrs, err := s.readAttributes()
	if err != nil {
		return nil, err
	}
	v, err := extensionResult(class)(ctor.ConstructObject(class, attrs))
	if err != nil {
		return nil, err
	}
	s.objects.fill(slot, v)
	return v, nil
}

func (s *session) readStruct() (Value, error) {
	slot := s.objects.reserve()
	class, err := s.readName("struct name")
	if err != nil {
		return nil, err
	}
	ctor, err := s.constructor(class)
	if err != nil {
		return nil, err
	}

	if ctor == nil {
		st := &Struct{Class: class}
		s.objects.fill(slot, st)
		s.unknown.Insert(class)
		if st.Members, err = s.readAttributes(); err != nil {
			return nil, err
		}
		return st, nil
	}

	members, err := s.readAttributes()
	if err != nil {
		return nil, err
	}
	v, err := extensionResult(class)(ctor.ConstructObject(class, members))
	if err != nil {
		return nil, err
	}
	s.objects.fill(slot, v)
	return v, nil
}

// readClass 返回类型引用；类名已注册时携带注册项。
func (s *session) readClass() (*ClassRef, error) {
	slot := s.objects.reserve()
	name, err := s.r.readString()
	if err != nil {
		return nil, err
	}
	ref := &ClassRef{Name: string(name)}
	if entry, ok := s.dec.registry.Lookup(ref.Name); ok {
		ref.Entry = entry
	}
	s.objects.fill(slot, ref)
	return ref, nil
}

func (s *session) readModule(old bool) (*ModuleRef, error) {
	slot := s.objects.reserve()
	name, err := s.r.readString()
	if err != nil {
		return nil, err
	}
	ref := &ModuleRef{Name: string(name), Old: old}
	s.objects.fill(slot, ref)
	return ref, nil
}

// readExtended 读取模块名与被 extend 的对象，槽位由对象自身占用。
func (s *session) readExtended() (*Extended, error) {
	module, err := s.readName("module name")
	if err != nil {
		return nil, err
	}
	v, err := s.decodeValue()
	if err != nil {
		return nil, err
	}
	if inner, ok := v.(*Extended); ok {
		return &Extended{Modules: append([]string{module}, inner.Modules...), Value: inner.Value}, nil
	}
	return &Extended{Modules: []string{module}, Value: v}, nil
}

func (s *session) readUserClass() (*UserClass, error) {
	class, err := s.readName("class name")
	if err != nil {
		return nil, err
	}
	v, err := s.decodeValue()
	if err != nil {
		return nil, err
	}
	switch v.(type) {
	case *String, *Array, *Hash, *Regexp:
	default:
		return nil, merr.WrapErrMalformedValue("uclass", "cannot subclass "+v.Kind().String())
	}
	s.unknown.Insert(class)
	return &UserClass{Class: class, Value: v}, nil
}
