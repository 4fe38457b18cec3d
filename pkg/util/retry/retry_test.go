// Copyright (C) 2019-2020 Zilliz. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License
// is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
// or implied. See the License for the specific language governing permissions and limitations under the License.

package retry

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestDoSucceedsAfterRetry(t *testing.T) {
	n := 0
	err := Do(context.Background(), func() error {
		n++
		if n < 3 {
			return errors.New("transient")
		}
		return nil
	}, Attempts(5), Sleep(time.Millisecond))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDoReachMaxAttempts(t *testing.T) {
	n := 0
	err := Do(context.Background(), func() error {
		n++
		return errors.New("always")
	}, Attempts(3), Sleep(time.Millisecond))
	assert.Error(t, err)
	assert.Equal(t, 3, n)
}

func TestDoUnrecoverable(t *testing.T) {
	n := 0
	err := Do(context.Background(), func() error {
		n++
		return Unrecoverable(errors.New("fatal"))
	}, Attempts(5), Sleep(time.Millisecond))
	assert.Error(t, err)
	assert.False(t, IsRecoverable(err))
	assert.Equal(t, 1, n)
}

func TestDoRetryErr(t *testing.T) {
	stop := errors.New("stop")
	n := 0
	err := Do(context.Background(), func() error {
		n++
		return stop
	}, Attempts(5), Sleep(time.Millisecond), RetryErr(func(err error) bool {
		return !errors.Is(err, stop)
	}))
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

func TestDoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := 0
	err := Do(ctx, func() error {
		n++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)
}
