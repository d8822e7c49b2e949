package flux

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by dispatcher operations. Operations wrap them
// in richer types carrying tokens and causes; match them with errors.Is.
var (
	// ErrUnknownToken indicates an operation named a token that does not
	// map to a registered callback.
	ErrUnknownToken = errors.New("flux: unknown token")

	// ErrNotDispatching indicates WaitFor was called outside a dispatch.
	ErrNotDispatching = errors.New("flux: dispatcher is not dispatching")

	// ErrAlreadyDispatching indicates Dispatch was called while a
	// dispatch was already in progress.
	ErrAlreadyDispatching = errors.New("flux: dispatch already in progress")

	// ErrCircularDependency indicates WaitFor named a callback that is,
	// directly or transitively, waiting on the caller.
	ErrCircularDependency = errors.New("flux: circular dependency detected")

	// ErrCallbackFailed indicates a callback returned an error or
	// panicked, stopping its dispatch.
	ErrCallbackFailed = errors.New("flux: callback failed")

	// ErrNilPayload indicates Dispatch was called with a nil payload.
	ErrNilPayload = errors.New("flux: payload must not be nil")
)

// UnknownTokenError reports the operation and token of an ErrUnknownToken
// failure.
type UnknownTokenError struct {
	// Op is the operation that rejected the token, such as "Unregister"
	// or "WaitFor".
	Op string

	// Token is the token that did not resolve to a callback.
	Token Token
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("flux: %s: token %q is not registered", e.Op, e.Token)
}

// Is reports whether target is ErrUnknownToken.
func (e *UnknownTokenError) Is(target error) bool {
	return target == ErrUnknownToken
}

// CycleError reports the two callbacks of an ErrCircularDependency
// failure: the one that issued the WaitFor and the pending one it awaited.
type CycleError struct {
	// Waiter is the callback that issued the WaitFor. It is empty when
	// the cycle was detected outside a callback invocation.
	Waiter Token

	// Token is the awaited callback that is still pending.
	Token Token
}

func (e *CycleError) Error() string {
	if e.Waiter == "" {
		return fmt.Sprintf("flux: circular dependency detected while waiting for %q", e.Token)
	}
	return fmt.Sprintf("flux: circular dependency detected: %q is waiting for %q", e.Waiter, e.Token)
}

// Is reports whether target is ErrCircularDependency.
func (e *CycleError) Is(target error) bool {
	return target == ErrCircularDependency
}

// CallbackError reports a callback that returned an error or panicked.
// The error the callback returned is preserved and can be matched through
// errors.Is and errors.As.
type CallbackError struct {
	// Token identifies the failed callback.
	Token Token

	// Err is the error the callback returned. It is nil when the
	// callback panicked instead.
	Err error

	// PanicValue is the recovered value when the callback panicked.
	PanicValue any

	// Stack is the stack trace captured when the panic was recovered.
	Stack []byte
}

func (e *CallbackError) Error() string {
	if e.Panicked() {
		return fmt.Sprintf("flux: callback %q panicked: %v", e.Token, e.PanicValue)
	}
	return fmt.Sprintf("flux: callback %q failed: %v", e.Token, e.Err)
}

// Unwrap returns the error the callback returned.
func (e *CallbackError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCallbackFailed.
func (e *CallbackError) Is(target error) bool {
	return target == ErrCallbackFailed
}

// Panicked reports whether the callback failed by panicking rather than
// by returning an error.
func (e *CallbackError) Panicked() bool {
	return e.PanicValue != nil
}
