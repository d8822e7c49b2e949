package flux

import (
	"errors"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/go-fdk/flux/internal/invariant"
)

// Dispatcher broadcasts payloads to registered callbacks, one dispatch at
// a time, in registration order. Callbacks sequence themselves against
// each other with WaitFor. The zero value is not usable; construct with
// New.
type Dispatcher struct {
	name         string
	registry     *registry
	logger       Logger
	panicHandler PanicHandler

	dispatching atomic.Bool
	session     *session

	dispatches       atomic.Uint64
	completed        atomic.Uint64
	failed           atomic.Uint64
	callbacksInvoked atomic.Uint64
	callbackFailures atomic.Uint64
	cyclesDetected   atomic.Uint64
	waitForCalls     atomic.Uint64
	dispatchNanos    atomic.Int64
}

// Logger is the interface the dispatcher logs through. A nil Logger
// disables logging.
type Logger interface {
	Debug(...any)
}

const defaultTokenPrefix = "cb"

type config struct {
	name         string
	tokenPrefix  string
	logger       Logger
	panicHandler PanicHandler
}

func defaultConfig() config {
	return config{
		name:        "flux-" + uuid.NewString()[:8],
		tokenPrefix: defaultTokenPrefix,
	}
}

// Option configures a Dispatcher.
type Option func(*config)

// WithName sets the dispatcher name used in log output. The default is a
// generated name such as "flux-1b9d6bcd".
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithTokenPrefix sets the prefix of minted tokens. The default is "cb",
// producing tokens "cb-1", "cb-2" and so on.
func WithTokenPrefix(prefix string) Option {
	return func(c *config) {
		if prefix != "" {
			c.tokenPrefix = prefix
		}
	}
}

// WithLogger directs debug output to l.
func WithLogger(l Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithPanicHandler installs h to observe recovered callback panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(c *config) {
		c.panicHandler = h
	}
}

// New returns a ready-to-use Dispatcher.
func New(opts ...Option) *Dispatcher {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return &Dispatcher{
		name:         c.name,
		registry:     newRegistry(c.tokenPrefix),
		logger:       c.logger,
		panicHandler: c.panicHandler,
	}
}

// Register adds cb to the dispatch order and returns the token that
// identifies it. Register panics when cb is nil.
func (d *Dispatcher) Register(cb Callback) Token {
	invariant.Assert(cb != nil, "Register: callback must not be nil")
	token := d.registry.add(cb)
	d.debug("registered callback:", token)
	return token
}

// RegisterFunc registers f as a callback.
func (d *Dispatcher) RegisterFunc(f CallbackFunc) Token {
	invariant.Assert(f != nil, "RegisterFunc: callback func must not be nil")
	return d.Register(f)
}

// Unregister removes the callback identified by token. The token becomes
// permanently invalid; registering the callback again mints a new one.
func (d *Dispatcher) Unregister(token Token) error {
	if err := invariant.Check(d.registry.remove(token),
		&UnknownTokenError{Op: "Unregister", Token: token},
		"Unregister: %q does not map to a registered callback", token,
	); err != nil {
		return err
	}
	d.debug("unregistered callback:", token)
	return nil
}

// Dispatch delivers payload to every callback registered when the
// dispatch begins, in registration order, and returns nil when all of
// them succeeded. The first callback error, panic, or WaitFor violation
// stops the dispatch; callbacks already invoked stay invoked.
//
// Only one dispatch runs at a time. Dispatch returns
// ErrAlreadyDispatching when called while another dispatch is in
// progress, including from within a callback.
func (d *Dispatcher) Dispatch(payload Payload) (err error) {
	if err := invariant.Check(payload != nil, ErrNilPayload,
		"Dispatch: payload must not be nil",
	); err != nil {
		return err
	}
	if err := invariant.Check(d.dispatching.CompareAndSwap(false, true),
		ErrAlreadyDispatching,
		"Dispatch: cannot dispatch in the middle of a dispatch",
	); err != nil {
		return err
	}

	d.dispatches.Add(1)
	start := time.Now()
	sess := newSession(payload, d.registry.snapshot())
	d.session = sess
	d.debug("dispatch started, callbacks:", len(sess.order))

	defer func() {
		d.session = nil
		d.dispatchNanos.Add(int64(time.Since(start)))
		d.dispatching.Store(false)
		if err != nil {
			d.failed.Add(1)
			d.debug("dispatch failed:", err)
		} else {
			d.completed.Add(1)
			d.debug("dispatch completed")
		}
	}()

	return d.run(sess)
}

// run walks the registration-order snapshot, invoking every callback not
// already handled or pending. A violation recorded by WaitFor fails the
// dispatch even when the callback that hit it discarded the error.
func (d *Dispatcher) run(sess *session) error {
	for _, token := range sess.order {
		if sess.violation != nil {
			break
		}
		rec := sess.entry(token)
		if rec.pending || rec.handled {
			continue
		}
		cb, ok := d.registry.get(token)
		if !ok {
			// Unregistered after the snapshot was taken.
			continue
		}
		if err := d.invokeCallback(sess, token, cb); err != nil {
			if sess.violation != nil {
				return sess.violation
			}
			return err
		}
	}
	return sess.violation
}

// WaitFor finishes the callbacks identified by tokens before returning,
// invoking in the order given any that have not run in the current
// dispatch yet. It must be called from a callback, on the dispatching
// goroutine.
//
// WaitFor fails with ErrCircularDependency when an awaited callback is
// already pending, meaning it is waiting, directly or transitively, on
// the caller. An ErrUnknownToken or ErrCircularDependency violation also
// fails the enclosing dispatch, even when the callback discards the
// error WaitFor returned.
func (d *Dispatcher) WaitFor(tokens ...Token) error {
	d.waitForCalls.Add(1)
	sess := d.session
	if err := invariant.Check(d.dispatching.Load() && sess != nil,
		ErrNotDispatching,
		"WaitFor: must be invoked from a callback while dispatching",
	); err != nil {
		return err
	}

	var unknown *multierror.Error
	for _, token := range tokens {
		_, ok := d.registry.get(token)
		if err := invariant.Check(ok,
			&UnknownTokenError{Op: "WaitFor", Token: token},
			"WaitFor: %q does not map to a registered callback", token,
		); err != nil {
			unknown = multierror.Append(unknown, err)
		}
	}
	if err := unknown.ErrorOrNil(); err != nil {
		sess.fail(err)
		return err
	}

	for _, token := range tokens {
		rec := sess.entry(token)
		if rec.handled {
			continue
		}
		if err := invariant.Check(!rec.pending,
			&CycleError{Waiter: sess.current(), Token: token},
			"WaitFor: circular dependency detected while waiting for %q", token,
		); err != nil {
			d.cyclesDetected.Add(1)
			sess.fail(err)
			return err
		}
		cb, ok := d.registry.get(token)
		if err := invariant.Check(ok,
			&UnknownTokenError{Op: "WaitFor", Token: token},
			"WaitFor: %q was unregistered while being waited for", token,
		); err != nil {
			sess.fail(err)
			return err
		}
		if err := d.invokeCallback(sess, token, cb); err != nil {
			return err
		}
	}
	return nil
}

// invokeCallback runs one callback with panic recovery. The callback is
// pending for the duration of the call and handled once it returns nil.
func (d *Dispatcher) invokeCallback(sess *session, token Token, cb Callback) (err error) {
	rec := sess.entry(token)
	rec.pending = true
	sess.push(token)
	d.callbacksInvoked.Add(1)
	d.debug("invoking callback:", token)

	defer func() {
		sess.pop()
		if r := recover(); r != nil {
			stack := debug.Stack()
			d.callbackFailures.Add(1)
			err = &CallbackError{Token: token, PanicValue: r, Stack: stack}
			d.debug("callback panicked:", token, "panic:", r)
			d.notifyPanic(token, r, stack)
		}
	}()

	invokeErr := cb.Invoke(sess.payload)
	if invokeErr == nil {
		rec.handled = true
		return nil
	}

	// A failure minted by this dispatch is propagating up through
	// WaitFor; hand it on without wrapping it again.
	var cbErr *CallbackError
	if errors.As(invokeErr, &cbErr) || (sess.violation != nil && errors.Is(invokeErr, sess.violation)) {
		return invokeErr
	}

	d.callbackFailures.Add(1)
	d.debug("callback failed:", token, "err:", invokeErr)
	return &CallbackError{Token: token, Err: invokeErr}
}

// notifyPanic hands a recovered panic to the panic handler, shielding
// the dispatch from a handler that panics itself.
func (d *Dispatcher) notifyPanic(token Token, panicValue any, stack []byte) {
	if d.panicHandler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.debug("panic handler panicked:", r)
		}
	}()
	d.panicHandler(token, panicValue, stack)
}

// IsDispatching reports whether a dispatch is in progress.
func (d *Dispatcher) IsDispatching() bool {
	return d.dispatching.Load()
}

// Size returns the number of registered callbacks.
func (d *Dispatcher) Size() int {
	return d.registry.size()
}

// Name returns the dispatcher name.
func (d *Dispatcher) Name() string {
	return d.name
}

// Stats is a point-in-time snapshot of dispatcher counters.
type Stats struct {
	Dispatches       uint64
	Completed        uint64
	Failed           uint64
	CallbacksInvoked uint64
	CallbackFailures uint64
	CyclesDetected   uint64
	WaitForCalls     uint64
	DispatchTime     time.Duration
}

// Stats returns a snapshot of the dispatcher's counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Dispatches:       d.dispatches.Load(),
		Completed:        d.completed.Load(),
		Failed:           d.failed.Load(),
		CallbacksInvoked: d.callbacksInvoked.Load(),
		CallbackFailures: d.callbackFailures.Load(),
		CyclesDetected:   d.cyclesDetected.Load(),
		WaitForCalls:     d.waitForCalls.Load(),
		DispatchTime:     time.Duration(d.dispatchNanos.Load()),
	}
}

// ResetStats zeroes the dispatcher's counters.
func (d *Dispatcher) ResetStats() {
	d.dispatches.Store(0)
	d.completed.Store(0)
	d.failed.Store(0)
	d.callbacksInvoked.Store(0)
	d.callbackFailures.Store(0)
	d.cyclesDetected.Store(0)
	d.waitForCalls.Store(0)
	d.dispatchNanos.Store(0)
}

const logPrefix = "[flux]"

func (d *Dispatcher) debug(args ...any) {
	if d.verbose() {
		args = append([]any{logPrefix, d.name + ":"}, args...)
		d.logger.Debug(args...)
	}
}

func (d *Dispatcher) verbose() bool {
	return d.logger != nil
}
