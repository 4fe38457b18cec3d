package loader

import (
	"fmt"
)

// Stage 表示单个文件加载链路中的处理阶段。
//
// 主要用于标记错误发生的位置，便于监控与排查。
type Stage string

const (
	StageRead   Stage = "read"   // 读取文件字节
	StageDecode Stage = "decode" // 字节 -> 对象图
	StageMap    Stage = "map"    // 对象图 -> RGSS 记录
	StageExport Stage = "export" // 对象图 -> 导出文件
)

// LoadError 为单个文件的加载失败，Err 为 merr 中的错误。
type LoadError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func newLoadError(path string, stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &LoadError{Path: path, Stage: stage, Err: err}
}
