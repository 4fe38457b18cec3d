package rgss

import (
	"github.com/lk2023060901/rxdata-go/internal/marshal"
	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
)

// record 从通用对象中读取字段，失败时返回带记录名与字段名的 RecordMismatch。
type record struct {
	name string
	obj  *marshal.Object
}

func newRecord(name string, v marshal.Value, class string) (*record, error) {
	obj, ok := marshal.Resolve(v).(*marshal.Object)
	if !ok {
		kind := "nil"
		if v != nil {
			kind = v.Kind().String()
		}
		return nil, merr.WrapErrRecordMismatch(name, "", "expected object, got "+kind)
	}
	if class != "" && obj.Class != class {
		return nil, merr.WrapErrRecordMismatch(name, "", "unexpected class "+obj.Class)
	}
	return &record{name: name, obj: obj}, nil
}

func (r *record) field(name string) (marshal.Value, bool) {
	v, ok := r.obj.Attrs.Get(name)
	if !ok {
		return nil, false
	}
	return marshal.Resolve(v), true
}

func (r *record) integer(name string) (int, error) {
	v, ok := r.field(name)
	if !ok {
		return 0, merr.WrapErrRecordMismatch(r.name, name, "missing")
	}
	n, ok := marshal.AsInt(v)
	if !ok {
		return 0, merr.WrapErrRecordMismatch(r.name, name, "expected integer, got "+v.Kind().String())
	}
	return int(n), nil
}

// optionalInteger 在字段缺失或为 nil 时返回 0。
func (r *record) optionalInteger(name string) (int, error) {
	v, ok := r.field(name)
	if !ok || marshal.IsNil(v) {
		return 0, nil
	}
	return r.integer(name)
}

// text 读取字符串字段，nil 视为空串。
func (r *record) text(name string) (string, error) {
	v, ok := r.field(name)
	if !ok {
		return "", merr.WrapErrRecordMismatch(r.name, name, "missing")
	}
	if marshal.IsNil(v) {
		return "", nil
	}
	s, ok := marshal.AsText(v)
	if !ok {
		return "", merr.WrapErrRecordMismatch(r.name, name, "expected string, got "+v.Kind().String())
	}
	return s, nil
}

func (r *record) optionalBool(name string) (bool, error) {
	v, ok := r.field(name)
	if !ok || marshal.IsNil(v) {
		return false, nil
	}
	b, ok := marshal.AsBool(v)
	if !ok {
		return false, merr.WrapErrRecordMismatch(r.name, name, "expected bool, got "+v.Kind().String())
	}
	return b, nil
}

func (r *record) table(name string) (*Table, error) {
	v, ok := r.field(name)
	if !ok {
		return nil, merr.WrapErrRecordMismatch(r.name, name, "missing")
	}
	t, ok := v.(*Table)
	if !ok {
		return nil, merr.WrapErrRecordMismatch(r.name, name, "expected Table, got "+v.Kind().String())
	}
	return t, nil
}
