package marshal

// objectTable 为对象反向引用表。
// 复合值在解码子值之前先预留槽位，完成后再填充，从而支持自引用与环。
type objectTable struct {
	slots []Value
}

func (t *objectTable) reserve() int {
	t.slots = append(t.slots, nil)
	return len(t.slots) - 1
}

func (t *objectTable) fill(slot int, v Value) {
	t.slots[slot] = v
}

func (t *objectTable) len() int {
	return len(t.slots)
}

// at 返回槽位中的值；尚未填充的槽位返回 *Pending。
func (t *objectTable) at(slot int) Value {
	if v := t.slots[slot]; v != nil {
		return v
	}
	return &Pending{Index: slot, table: t}
}

// symbolTable 为符号反向引用表。
// 每次读到 SYMBOL 都会追加一项，同名符号共享同一个 *Symbol。
type symbolTable struct {
	list   []*Symbol
	byName map[string]*Symbol
}

func newSymbolTable() symbolTable {
	return symbolTable{byName: make(map[string]*Symbol)}
}

func (t *symbolTable) intern(name []byte) *Symbol {
	sym, ok := t.byName[string(name)]
	if !ok {
		sym = &Symbol{Name: string(name)}
		t.byName[sym.Name] = sym
	}
	t.list = append(t.list, sym)
	return sym
}

func (t *symbolTable) at(index int) (*Symbol, bool) {
	if index < 0 || index >= len(t.list) {
		return nil, false
	}
	return t.list[index], true
}

func (t *symbolTable) len() int {
	return len(t.list)
}

// distinct 返回不同符号名称的数量。
func (t *symbolTable) distinct() int {
	return len(t.byName)
}
