// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"sync"

	"go.uber.org/zap/zapcore"
)

// lazyCore 推迟 core.With(fields) 的执行，直到第一次真正写日志。
// 大量只创建不输出的上下文 Logger 因此不必复制字段编码器。
// 参考 https://github.com/uber-go/zap/issues/1426。
type lazyCore struct {
	base     zapcore.Core
	resolved func() zapcore.Core
}

var _ zapcore.Core = (*lazyCore)(nil)

// NewLazyWith 返回一个在首次使用时才附加 fields 的 Core。
func NewLazyWith(core zapcore.Core, fields []zapcore.Field) zapcore.Core {
	return &lazyCore{
		base: core,
		resolved: sync.OnceValue(func() zapcore.Core {
			return core.With(fields)
		}),
	}
}

// Enabled 只依赖级别，不需要附加字段。
func (c *lazyCore) Enabled(level zapcore.Level) bool {
	return c.base.Enabled(level)
}

func (c *lazyCore) With(fields []zapcore.Field) zapcore.Core {
	return c.resolved().With(fields)
}

func (c *lazyCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return c.resolved().Check(e, ce)
}

func (c *lazyCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	return c.resolved().Write(entry, fields)
}

func (c *lazyCore) Sync() error {
	return c.resolved().Sync()
}
