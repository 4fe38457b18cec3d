package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameFile      = "file"
	FieldNameClass     = "class"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldFile 返回一个包含数据文件路径的 zap 字段。
func FieldFile(path string) zap.Field {
	return zap.String(FieldNameFile, path)
}

// FieldClass 返回一个包含 Ruby 类名的 zap 字段。
func FieldClass(class string) zap.Field {
	return zap.String(FieldNameClass, class)
}
