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

package conc

import (
	"fmt"

	ants "github.com/panjf2000/ants/v2"

	"github.com/lk2023060901/rxdata-go/pkg/util/hardware"
)

// Pool 是基于 ants 的泛型协程池，Submit 返回携带结果的 Future。
type Pool[T any] struct {
	inner *ants.Pool
	opt   *poolOption
}

// NewPool 创建容量为 cap 的协程池。
// cap <= 0 时按 CPU 核数设置容量。
func NewPool[T any](cap int, opts ...PoolOption) *Pool[T] {
	if cap <= 0 {
		cap = hardware.GetCPUNum()
	}

	opt := defaultPoolOption()
	for _, o := range opts {
		o(opt)
	}

	pool, err := ants.NewPool(cap, opt.antsOptions()...)
	if err != nil {
		panic(err)
	}

	return &Pool[T]{
		inner: pool,
		opt:   opt,
	}
}

// NewDefaultPool 创建容量等于 CPU 核数的协程池。
func NewDefaultPool[T any](opts ...PoolOption) *Pool[T] {
	return NewPool[T](hardware.GetCPUNum(), opts...)
}

// Submit 提交一个任务，返回对应的 Future。
// 池已关闭或在非阻塞模式下已满时，Future 直接携带提交错误。
func (pool *Pool[T]) Submit(method func() (T, error)) *Future[T] {
	future := newFuture[T]()
	err := pool.inner.Submit(func() {
		defer close(future.ch)
		defer func() {
			if x := recover(); x != nil {
				future.err = fmt.Errorf("panicked with error: %v", x)
				if !pool.opt.concealPanic {
					panic(x)
				}
			}
		}()

		if pool.opt.preHandler != nil {
			pool.opt.preHandler()
		}

		future.value, future.err = method()
	})
	if err != nil {
		future.err = err
		close(future.ch)
	}

	return future
}

// Cap 返回协程池容量。
func (pool *Pool[T]) Cap() int {
	return pool.inner.Cap()
}

// Running 返回正在运行的 worker 数量。
func (pool *Pool[T]) Running() int {
	return pool.inner.Running()
}

// Free 返回空闲 worker 数量。
func (pool *Pool[T]) Free() int {
	return pool.inner.Free()
}

// Resize 调整协程池容量，size <= 0 时忽略。
func (pool *Pool[T]) Resize(size int) {
	if size <= 0 {
		return
	}
	pool.inner.Tune(size)
}

// Release 关闭协程池，已提交的任务会继续执行完成。
func (pool *Pool[T]) Release() {
	pool.inner.Release()
}
