package log

import "go.uber.org/atomic"

// WithLogger 由持有独立 Logger 的组件实现。
type WithLogger interface {
	Logger() *MLogger
}

// LoggerBinder 由允许外部替换 Logger 的组件实现。
type LoggerBinder interface {
	SetLogger(logger *MLogger)
}

var (
	_ WithLogger   = (*Binder)(nil)
	_ LoggerBinder = (*Binder)(nil)
)

// Binder 嵌入到组件中，为其提供可并发替换的 Logger。
type Binder struct {
	logger atomic.Pointer[MLogger]
}

func (b *Binder) SetLogger(logger *MLogger) {
	b.logger.Store(logger)
}

// SetModule 绑定一个带 module 字段的全局 Logger。
func (b *Binder) SetModule(module string) {
	b.logger.Store(With(FieldModule(module)))
}

// Logger 返回绑定的 Logger，未绑定时退回全局 Logger。
func (b *Binder) Logger() *MLogger {
	if l := b.logger.Load(); l != nil {
		return l
	}
	return With()
}
