/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package sizing

import (
	"errors"
	"fmt"
)

// Kind classifies why a sizing call failed.
type Kind string

const (
	KindNotSchedulable Kind = "NotSchedulable"
	KindInvalidInput   Kind = "InvalidInput"
	KindInternal       Kind = "Internal"
)

// Error wraps a sizing failure with its Kind so callers (the CLI, the
// HTTP façade) can branch on taxonomy without string-matching messages.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is(err, ErrInvalidInput) and friends by matching Kind
// via the sentinel errors below.
func (e *Error) Is(target error) bool {
	var sentinel *Error
	if errors.As(target, &sentinel) {
		return e.Kind == sentinel.Kind
	}
	return false
}

// ErrNotSchedulable, ErrInvalidInput and ErrInternal are sentinels usable
// with errors.Is/errors.As and with fmt.Errorf's %w for wrapping detail.
var (
	ErrNotSchedulable = &Error{Kind: KindNotSchedulable, Message: "not schedulable"}
	ErrInvalidInput   = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrInternal       = &Error{Kind: KindInternal, Message: "internal invariant violation"}
)

func wrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}
