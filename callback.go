package flux

// Payload carries the data delivered to every callback during a dispatch.
// The dispatcher never inspects or copies it; all callbacks of a dispatch
// receive the same value and should treat it as read-only.
type Payload map[string]any

// Token identifies a registered callback. Tokens are minted by Register,
// are unique for the lifetime of a dispatcher, and are never reused, even
// after the callback they identify is unregistered.
type Token string

// Callback represents an object that handles a dispatched payload.
type Callback interface {
	// Invoke handles a payload. Returning a non-nil error marks the
	// callback as failed and stops the dispatch.
	Invoke(p Payload) error
}

// CallbackFunc is an adapter to allow the use of ordinary functions as
// callbacks.
type CallbackFunc func(p Payload) error

// Invoke calls f(p).
func (f CallbackFunc) Invoke(p Payload) error {
	return f(p)
}

// PanicHandler is called when a callback panics during a dispatch, after
// the panic has been recovered. The stack is captured at the point of
// recovery. A panicking handler is recovered and ignored.
type PanicHandler func(token Token, panicValue any, stack []byte)
