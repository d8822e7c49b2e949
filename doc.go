// Package flux implements a synchronous broadcast dispatcher. Every
// dispatched payload is delivered to every registered callback, in
// registration order, on the dispatching goroutine.
//
// Unlike a topic-based event bus, the dispatcher does not route. Every
// callback sees every payload and decides for itself what to do with it.
// What the dispatcher adds is ordering: a callback can suspend itself
// with WaitFor until other callbacks have handled the current payload,
// and the dispatcher detects when those dependencies form a cycle.
//
// # Quick Start
//
// Register callbacks, then dispatch:
//
//	d := flux.New()
//
//	store := d.RegisterFunc(func(p flux.Payload) error {
//		// update state from p
//		return nil
//	})
//
//	d.RegisterFunc(func(p flux.Payload) error {
//		if err := d.WaitFor(store); err != nil {
//			return err
//		}
//		// runs after store has handled p
//		return nil
//	})
//
//	err := d.Dispatch(flux.Payload{"type": "todo/created", "text": "write docs"})
//
// Register returns a Token identifying the callback. Tokens are the only
// handle on a registration: they name callbacks in WaitFor and
// Unregister, and they identify the failing callback in errors.
//
// # Dispatch Order
//
// Dispatch takes a snapshot of the registered callbacks when it begins
// and invokes them in registration order. Each callback of the snapshot
// is invoked at most once per dispatch, whether by the dispatch loop or
// early through another callback's WaitFor.
//
// Dispatches are strictly sequential. Calling Dispatch while a dispatch
// is in progress, from a callback or from another goroutine, fails with
// ErrAlreadyDispatching. To cascade a dispatch from a callback, have the
// callback schedule it for after the current one completes.
//
// # WaitFor and Cycle Detection
//
// WaitFor(tokens...) returns once every named callback has handled the
// current payload, invoking any that have not run yet. A callback that
// is already in progress cannot be waited for: it is below the caller on
// the invocation stack, so waiting would deadlock. WaitFor reports that
// as ErrCircularDependency, covering both self-waits and longer mutual
// cycles.
//
// A WaitFor violation (an unknown token or a cycle) also fails the
// enclosing dispatch, even when the callback discards the error WaitFor
// returned. The dispatch stops and Dispatch returns the violation.
//
// # Error Handling
//
// All failures are ordinary error values built around the package's
// sentinel errors. Match the kind with errors.Is and extract detail with
// errors.As:
//
//	err := d.Dispatch(p)
//	if errors.Is(err, flux.ErrCallbackFailed) {
//		var cbErr *flux.CallbackError
//		if errors.As(err, &cbErr) {
//			log.Println("callback", cbErr.Token, "failed:", cbErr.Err)
//		}
//	}
//
// The first callback failure stops the dispatch; callbacks already
// invoked are not rolled back. A panicking callback does not crash the
// dispatcher: the panic is recovered into a CallbackError carrying the
// panic value and stack, and the dispatcher stays usable.
//
// WaitFor rejects all unknown tokens of a call together, as a
// go-multierror aggregate wrapping one UnknownTokenError per token.
//
// # Registering During a Dispatch
//
// Register, RegisterFunc, and Unregister may be called at any time,
// including from inside a callback. A callback registered during a
// dispatch is not in that dispatch's snapshot, so the dispatch loop does
// not invoke it, but its token is immediately valid and WaitFor may
// target it. A callback unregistered during a dispatch is skipped when
// its turn comes.
//
// # Thread Safety
//
// Register, RegisterFunc, Unregister, IsDispatching, Size, and Stats are
// safe for concurrent use. Dispatch serializes itself; concurrent calls
// fail with ErrAlreadyDispatching rather than queue. WaitFor must be
// called on the dispatching goroutine, from inside a callback.
//
// # Observability
//
// New accepts options for a name, a Logger for debug output, and a
// PanicHandler that observes recovered callback panics. Stats returns
// counters of dispatches, invocations, failures, and detected cycles.
package flux
