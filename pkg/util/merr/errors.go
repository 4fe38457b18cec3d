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
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// IO related
	ErrIoFileNotFound = newRxError("file not found", 1000, false)
	ErrIoFailed       = newRxError("IO failed", 1001, false)

	// Parameter related
	ErrParameterInvalid = newRxError("invalid parameter", 1100, false)
	ErrParameterMissing = newRxError("missing parameter", 1101, false)

	// Marshal stream related, all of them are input errors and never retried:
	// a malformed stream does not heal itself.
	ErrUnrecognizedTag          = newRxError("unrecognized tag", 4000, false, WithErrorType(InputError))
	ErrUnexpectedEndOfStream    = newRxError("unexpected end of stream", 4001, false, WithErrorType(InputError))
	ErrInvalidBackreference     = newRxError("invalid object backreference", 4002, false, WithErrorType(InputError))
	ErrInvalidSymbolLink        = newRxError("invalid symbol link", 4003, false, WithErrorType(InputError))
	ErrCapabilityMismatch       = newRxError("class capability mismatch", 4004, false)
	ErrUnregisteredOpaqueClass  = newRxError("unregistered opaque class", 4005, false, WithErrorType(InputError))
	ErrTruncatedPayload         = newRxError("truncated payload", 4006, false, WithErrorType(InputError))
	ErrUnsupportedFormatVersion = newRxError("unsupported format version", 4007, false, WithErrorType(InputError))
	ErrNestingTooDeep           = newRxError("nesting too deep", 4008, false, WithErrorType(InputError))
	ErrMalformedValue           = newRxError("malformed value", 4009, false, WithErrorType(InputError))

	// Record mapping related
	ErrRecordMismatch = newRxError("record does not match expected layout", 4100, false, WithErrorType(InputError))

	// Export related
	ErrExportFailed = newRxError("export failed", 4200, false)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to rxError
	errUnexpected = newRxError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*rxError)

func WithDetail(detail string) errorOption {
	return func(err *rxError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *rxError) {
		err.errType = etype
	}
}

type rxError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newRxError(msg string, code int32, retriable bool, options ...errorOption) rxError {
	err := rxError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e rxError) code() int32 {
	return e.errCode
}

func (e rxError) Error() string {
	return e.msg
}

func (e rxError) Detail() string {
	return e.detail
}

func (e rxError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(rxError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
