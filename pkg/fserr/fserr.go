// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fserr

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"

	"gitlab.com/tozd/go/errors"
)

// 🏷️ Kind is the semantic class of a failure, used by callers to pick a recovery affordance
type Kind int

const (
	KindPermanent        Kind = iota // disk full, hardware error, anything unclassified
	KindNotFound                     // path deleted or never existed
	KindPermissionDenied             // access control
	KindTransient                    // safe to retry automatically
	KindInvalidOperation             // drop-into-self, rename collision, bad input
	KindCancelled                    // user initiated, not a true failure
)

// String returns a string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindTransient:
		return "transient"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindCancelled:
		return "cancelled"
	default:
		return "permanent"
	}
}

// WireKind is the kind as it appears in the error payload.
// Only four values exist on the wire; invalid operations and cancellations are PERMANENT.
func (k Kind) WireKind() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindPermissionDenied:
		return "PERMISSION"
	case KindTransient:
		return "TRANSIENT"
	default:
		return "PERMANENT"
	}
}

// 🔢 Error codes carried in the payload
const (
	CodeIO               = "IO_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodePathInvalid      = "PATH_INVALID"
	CodeAlreadyExists    = "ALREADY_EXISTS"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeStorageFull      = "STORAGE_FULL"
	CodeTimeout          = "TIMEOUT"
	CodeFileLocked       = "FILE_LOCKED"
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeInvalidPageToken = "INVALID_PAGE_TOKEN"
	CodeSuperseded       = "SUPERSEDED"
	CodeCancelled        = "CANCELLED"
	CodeUnknown          = "UNKNOWN_ERROR"
)

// 🧱 Error is the typed failure surfaced to callers of the file engine
type Error struct {
	Kind    Kind
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Payload returns the wire form of the error
func (e *Error) Payload() Payload {
	return Payload{
		Message: e.Error(),
		Code:    e.Code,
		Kind:    e.Kind.WireKind(),
	}
}

// MarshalJSON encodes the error as its payload
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Payload())
}

// 📦 Payload is the error shape consumed by the presentation layer
type Payload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Kind    string `json:"kind"`
}

// New creates a typed error
func New(kind Kind, code, path, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}

// NotFound reports a missing path
func NotFound(path string) *Error {
	return New(KindNotFound, CodeNotFound, path, "no such file or directory")
}

// Invalid reports a request that cannot be carried out as asked
func Invalid(code, path, format string, args ...any) *Error {
	return New(KindInvalidOperation, code, path, format, args...)
}

// Cancelled reports a user cancellation
func Cancelled(path string) *Error {
	return New(KindCancelled, CodeCancelled, path, "operation cancelled by user")
}

// Wrap classifies err and attaches path when the classified error has none
func Wrap(err error, path string) *Error {
	if err == nil {
		return nil
	}
	e := Classify(err)
	if e.Path == "" && path != "" {
		cp := *e
		cp.Path = path
		return &cp
	}
	return e
}

// 🔍 Classify maps any error onto the taxonomy
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	e := &Error{Kind: KindPermanent, Code: CodeIO, Err: err}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		e.Path = pathErr.Path
		e.Message = pathErr.Err.Error()
	}

	switch {
	case errors.Is(err, context.Canceled):
		e.Kind, e.Code = KindCancelled, CodeCancelled
	case errors.Is(err, context.DeadlineExceeded):
		e.Kind, e.Code = KindTransient, CodeTimeout
	case errors.Is(err, fs.ErrNotExist):
		e.Kind, e.Code = KindNotFound, CodeNotFound
	case errors.Is(err, fs.ErrPermission):
		e.Kind, e.Code = KindPermissionDenied, CodePermissionDenied
	case errors.Is(err, fs.ErrExist):
		e.Kind, e.Code = KindInvalidOperation, CodeAlreadyExists
	default:
		classifyErrno(err, e)
	}

	return e
}

// KindOf returns the kind of err, KindPermanent for unknown errors
func KindOf(err error) Kind {
	if err == nil {
		return KindPermanent
	}
	return Classify(err).Kind
}

// IsTransient reports whether err is safe to retry
func IsTransient(err error) bool {
	return err != nil && KindOf(err) == KindTransient
}

// IsCancelled reports whether err is a user cancellation
func IsCancelled(err error) bool {
	return err != nil && KindOf(err) == KindCancelled
}

// ToPayload converts any error to its wire form
func ToPayload(err error) Payload {
	if err == nil {
		return Payload{}
	}
	return Classify(err).Payload()
}

// FromPayload rebuilds a typed error from its wire form.
// The kind is recovered from the code where the wire kind is lossy.
func FromPayload(p Payload) *Error {
	e := &Error{Code: p.Code, Message: p.Message}
	switch p.Code {
	case CodeInvalidOperation, CodePathInvalid, CodeAlreadyExists, CodeInvalidPageToken:
		e.Kind = KindInvalidOperation
	case CodeCancelled, CodeSuperseded:
		e.Kind = KindCancelled
	default:
		switch p.Kind {
		case "NOT_FOUND":
			e.Kind = KindNotFound
		case "PERMISSION":
			e.Kind = KindPermissionDenied
		case "TRANSIENT":
			e.Kind = KindTransient
		default:
			e.Kind = KindPermanent
		}
	}
	return e
}
