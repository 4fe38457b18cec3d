package marshal

// Hash 为保持插入顺序的哈希表。
// 重复键会原地覆盖先前的值，不改变其迭代位置。
type Hash struct {
	IVarMeta
	keys    []Value
	values  []Value
	index   map[any]int
	Default Value
}

func NewHash(capacity int) *Hash {
	return &Hash{
		keys:   make([]Value, 0, capacity),
		values: make([]Value, 0, capacity),
		index:  make(map[any]int, capacity),
	}
}

func (*Hash) Kind() Kind { return KindHash }

type (
	nilKey    struct{}
	boolKey   bool
	intKey    int64
	floatKey  float64
	stringKey string
	bigKey    string
)

// hashKey 返回用于判等的键。
// 数值与字符串按值比较；符号已驻留，其余值按实例比较。
func hashKey(v Value) any {
	switch x := v.(type) {
	case nil, Nil:
		return nilKey{}
	case Bool:
		return boolKey(x)
	case Int:
		return intKey(x)
	case Float:
		return floatKey(x)
	case *String:
		return stringKey(x.Raw)
	case *BigInt:
		return bigKey(x.String())
	default:
		return v
	}
}

// Set 写入键值对。
func (h *Hash) Set(key, value Value) {
	if h.index == nil {
		h.index = make(map[any]int)
	}
	k := hashKey(key)
	if i, ok := h.index[k]; ok {
		h.values[i] = value
		return
	}
	h.index[k] = len(h.keys)
	h.keys = append(h.keys, key)
	h.values = append(h.values, value)
}

func (h *Hash) Get(key Value) (Value, bool) {
	i, ok := h.index[hashKey(key)]
	if !ok {
		return nil, false
	}
	return h.values[i], true
}

func (h *Hash) Len() int {
	return len(h.keys)
}

func (h *Hash) Keys() []Value {
	return append([]Value(nil), h.keys...)
}

// Range 按插入顺序遍历，回调返回 false 时提前结束。
func (h *Hash) Range(f func(key, value Value) bool) {
	for i := range h.keys {
		if !f(h.keys[i], h.values[i]) {
			return
		}
	}
}

// Attribute 为一个实例变量名与值。
type Attribute struct {
	Name  string
	Value Value
}

// Attributes 为保持顺序的实例变量表，名称形如 "@width"。
type Attributes struct {
	list  []Attribute
	index map[string]int
}

func NewAttributes(capacity int) *Attributes {
	return &Attributes{
		list:  make([]Attribute, 0, capacity),
		index: make(map[string]int, capacity),
	}
}

func (a *Attributes) Set(name string, v Value) {
	if a.index == nil {
		a.index = make(map[string]int)
	}
	if i, ok := a.index[name]; ok {
		a.list[i].Value = v
		return
	}
	a.index[name] = len(a.list)
	a.list = append(a.list, Attribute{Name: name, Value: v})
}

func (a *Attributes) Get(name string) (Value, bool) {
	if a == nil {
		return nil, false
	}
	i, ok := a.index[name]
	if !ok {
		return nil, false
	}
	return a.list[i].Value, true
}

// Delete 移除 name，并保持其余实例变量的相对顺序。
func (a *Attributes) Delete(name string) {
	i, ok := a.index[name]
	if !ok {
		return
	}
	a.list = append(a.list[:i], a.list[i+1:]...)
	delete(a.index, name)
	for j := i; j < len(a.list); j++ {
		a.index[a.list[j].Name] = j
	}
}

func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.list)
}

func (a *Attributes) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, len(a.list))
	for i := range a.list {
		names[i] = a.list[i].Name
	}
	return names
}

func (a *Attributes) Range(f func(name string, v Value) bool) {
	if a == nil {
		return
	}
	for _, attr := range a.list {
		if !f(attr.Name, attr.Value) {
			return
		}
	}
}
