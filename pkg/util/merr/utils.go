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

package merr

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case rxError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsRetryableErr(err error) bool {
	if err, ok := errors.Cause(err).(rxError); ok {
		return err.retriable
	}

	return false
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

func GetErrorType(err error) ErrorType {
	if merr, ok := errors.Cause(err).(rxError); ok {
		return merr.errType
	}

	return SystemError
}

// IO 相关错误封装。
func WrapErrIoFileNotFound(path string, msg ...string) error {
	err := wrapFields(ErrIoFileNotFound, value("path", path))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrIoFailed(path string, err error) error {
	if err == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrIoFailed, err.Error(), value("path", path))
}

// 参数相关错误封装。
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidMsg(fmt string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmt, args...)
}

func WrapErrParameterMissing[T any](param T, msg ...string) error {
	err := wrapFields(ErrParameterMissing,
		value("missing_param", param),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Marshal 流相关错误封装。
func WrapErrUnrecognizedTag(tag byte, msg ...string) error {
	err := wrapFields(ErrUnrecognizedTag, value("tag", fmt.Sprintf("0x%02x", tag)))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrUnexpectedEndOfStream(need, remain int) error {
	return wrapFields(ErrUnexpectedEndOfStream,
		value("need", need),
		value("remain", remain),
	)
}

func WrapErrInvalidBackreference(index, reserved int) error {
	return wrapFields(ErrInvalidBackreference,
		bound("index", index, 0, reserved),
	)
}

func WrapErrInvalidSymbolLink(index, known int) error {
	return wrapFields(ErrInvalidSymbolLink,
		bound("index", index, 0, known),
	)
}

func WrapErrCapabilityMismatch(class string, required, declared fmt.Stringer) error {
	return wrapFields(ErrCapabilityMismatch,
		value("class", class),
		value("required", required),
		value("declared", declared),
	)
}

func WrapErrUnregisteredOpaqueClass(class string) error {
	return wrapFields(ErrUnregisteredOpaqueClass, value("class", class))
}

func WrapErrTruncatedPayload(class string, expected, actual int) error {
	return wrapFields(ErrTruncatedPayload,
		value("class", class),
		value("expected", expected),
		value("actual", actual),
	)
}

func WrapErrUnsupportedFormatVersion(major, minor byte, supported string) error {
	return wrapFields(ErrUnsupportedFormatVersion,
		value("version", fmt.Sprintf("%d.%d", major, minor)),
		value("supported", supported),
	)
}

func WrapErrNestingTooDeep(depth, limit int) error {
	return wrapFields(ErrNestingTooDeep,
		value("depth", depth),
		value("limit", limit),
	)
}

func WrapErrMalformedValue(kind string, msg ...string) error {
	err := wrapFields(ErrMalformedValue, value("kind", kind))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// 记录映射相关错误封装。
func WrapErrRecordMismatch(record, field string, msg ...string) error {
	err := wrapFields(ErrRecordMismatch,
		value("record", record),
		value("field", field),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrExportFailed(format string, err error) error {
	if err == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrExportFailed, err.Error(), value("format", format))
}

func wrapFields(err rxError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err rxError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

type boundField struct {
	name  string
	value any
	lower any
	upper any
}

func bound(name string, value, lower, upper any) boundField {
	return boundField{
		name:  name,
		value: value,
		lower: lower,
		upper: upper,
	}
}

func (f boundField) String() string {
	return fmt.Sprintf("%v out of range %v <= %s < %v", f.value, f.lower, f.name, f.upper)
}
