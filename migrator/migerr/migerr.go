// Copyright 2019 Balena Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may not
// use this file except in compliance with the License. A copy of the
// License is located at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package migerr defines the error kinds used across the migrator. Validation
// failures must carry a kind the caller can branch on, and terminal errors
// whose message was already shown to the user propagate as Displayed so the
// outer layers exit without repeating it.
package migerr

import (
	"errors"
	"fmt"
)

// Kind classifies a migrator error.
type Kind int

const (
	// KindNotFound - a file, command or document key is absent.
	KindNotFound Kind = iota
	// KindInvalidParameter - a malformed CLI/config value, wrong value shape
	// or failed classification match.
	KindInvalidParameter
	// KindUpstream - a wrapped I/O, subprocess, network or parse failure
	// from outside the migrator's control.
	KindUpstream
	// KindInvalidState - an internal invariant was violated.
	KindInvalidState
	// KindExecutionFailure - a subprocess ran but exited abnormally.
	KindExecutionFailure
	// KindNotImplemented - the platform lacks a required capability.
	KindNotImplemented
	// KindDisplayed - a terminal error whose message has already been shown
	// to the user.
	KindDisplayed
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindInvalidParameter:
		return "InvalidParameter"
	case KindUpstream:
		return "UpstreamFailure"
	case KindInvalidState:
		return "InvalidState"
	case KindExecutionFailure:
		return "ExecutionFailure"
	case KindNotImplemented:
		return "NotImplemented"
	case KindDisplayed:
		return "AlreadyDisplayed"
	default:
		return "Unknown"
	}
}

// Error is a migrator error with a kind, a remark and an optional cause.
type Error struct {
	Kind   Kind
	Remark string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Remark, e.Cause)
	}
	if e.Remark == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Remark)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error of the given kind.
func New(kind Kind, format string, params ...interface{}) error {
	return &Error{Kind: kind, Remark: fmt.Sprintf(format, params...)}
}

// Wrap annotates an upstream cause with a kind and a remark.
func Wrap(cause error, kind Kind, format string, params ...interface{}) error {
	return &Error{Kind: kind, Remark: fmt.Sprintf(format, params...), Cause: cause}
}

// Displayed creates a terminal error whose message has already been printed.
func Displayed() error {
	return &Error{Kind: KindDisplayed}
}

// KindOf returns the kind of err, or ok=false if err carries no kind.
func KindOf(err error) (Kind, bool) {
	var migErr *Error
	if errors.As(err, &migErr) {
		return migErr.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsDisplayed reports whether err was already shown to the user.
func IsDisplayed(err error) bool {
	return IsKind(err, KindDisplayed)
}
