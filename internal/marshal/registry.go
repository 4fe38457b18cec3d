package marshal

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
)

// Capability 声明注册扩展所实现的解码能力。
type Capability int

const (
	CapabilityOpaque Capability = iota + 1
	CapabilityAttributes
	CapabilityObject
)

func (c Capability) String() string {
	switch c {
	case CapabilityOpaque:
		return "opaque"
	case CapabilityAttributes:
		return "attributes"
	case CapabilityObject:
		return "object"
	default:
		return "unknown"
	}
}

// OpaqueDecoder 解析 USERDEF 携带的不透明字节。
type OpaqueDecoder interface {
	DecodeOpaque(class string, data []byte) (Value, error)
}

// AttributeDecoder 由 USRMARSHAL/DATA 已解码的载荷构造值。
type AttributeDecoder interface {
	DecodeAttributes(class string, payload Value) (Value, error)
}

// ObjectConstructor 由 OBJECT/STRUCT 的实例变量表构造值。
type ObjectConstructor interface {
	ConstructObject(class string, attrs *Attributes) (Value, error)
}

// Entry 为一个注册项，同时作为 CLASS 标记返回的类型描述。
type Entry struct {
	Name       string
	Capability Capability
	Extension  any
}

func (e *Entry) Opaque() (OpaqueDecoder, bool) {
	d, ok := e.Extension.(OpaqueDecoder)
	return d, ok && e.Capability == CapabilityOpaque
}

func (e *Entry) Attributes() (AttributeDecoder, bool) {
	d, ok := e.Extension.(AttributeDecoder)
	return d, ok && e.Capability == CapabilityAttributes
}

func (e *Entry) Object() (ObjectConstructor, bool) {
	d, ok := e.Extension.(ObjectConstructor)
	return d, ok && e.Capability == CapabilityObject
}

// Registry 为类名到解码扩展的映射。
// 注册应在解码开始前完成，解码期间只读。
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry 返回进程级共享的注册表，内置扩展在包初始化时注册到其中。
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register 以声明的能力注册扩展。
// extension 没有实现所声明能力对应的接口时返回 CapabilityMismatch。
func (r *Registry) Register(name string, capability Capability, extension any) error {
	if name == "" {
		return merr.WrapErrParameterMissing("class name")
	}
	if extension == nil {
		return merr.WrapErrParameterMissing("extension", name)
	}

	var ok bool
	switch capability {
	case CapabilityOpaque:
		_, ok = extension.(OpaqueDecoder)
	case CapabilityAttributes:
		_, ok = extension.(AttributeDecoder)
	case CapabilityObject:
		_, ok = extension.(ObjectConstructor)
	default:
		return merr.WrapErrParameterInvalidMsg("unknown capability %d for class %s", int(capability), name)
	}
	if !ok {
		return merr.WrapErrCapabilityMismatch(name, capability, declaredCapability(extension))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exist := r.entries[name]; exist {
		return merr.WrapErrParameterInvalidMsg("class %s already registered", name)
	}
	r.entries[name] = &Entry{Name: name, Capability: capability, Extension: extension}
	return nil
}

// MustRegister 与 Register 相同，失败时 panic。
func (r *Registry) MustRegister(name string, capability Capability, extension any) {
	if err := r.Register(name, capability, extension); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Names 返回按字典序排列的已注册类名。
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := lo.Keys(r.entries)
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// declaredCapability 推断扩展实际实现的能力，用于错误信息。
func declaredCapability(extension any) Capability {
	switch extension.(type) {
	case OpaqueDecoder:
		return CapabilityOpaque
	case AttributeDecoder:
		return CapabilityAttributes
	case ObjectConstructor:
		return CapabilityObject
	default:
		return 0
	}
}
