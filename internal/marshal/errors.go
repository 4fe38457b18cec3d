package marshal

import (
	"fmt"
)

// DecodeError 为一次解码失败，携带失败位置与所在标记。
// 底层原因为 merr 中的错误，可以通过 errors.Is 判断。
type DecodeError struct {
	Offset int
	Tag    Tag
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s at offset %d: %v", e.Tag, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Warning 为可恢复的解码异常，例如编码回退。
type Warning struct {
	Offset  int
	Kind    string
	Message string
}

const (
	WarnEncoding = "encoding"
	WarnRegexp   = "regexp"
	WarnIVar     = "ivar"
	WarnTrailing = "trailing"
)

func (w Warning) String() string {
	return fmt.Sprintf("%s at offset %d: %s", w.Kind, w.Offset, w.Message)
}
