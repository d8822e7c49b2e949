package flux

import (
	"fmt"
	"sync"
)

// registry stores registered callbacks keyed by token and remembers the
// order they were registered in. Tokens are minted from a per-registry
// sequence and never reused.
type registry struct {
	mu      sync.RWMutex
	prefix  string
	seq     uint64
	entries map[Token]Callback
	order   []Token
}

func newRegistry(prefix string) *registry {
	return &registry{prefix: prefix}
}

// add stores cb and mints the token identifying it. Re-registering a
// callback after removal yields a fresh token.
func (r *registry) add(cb Callback) Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[Token]Callback)
	}
	r.seq++
	token := Token(fmt.Sprintf("%s-%d", r.prefix, r.seq))
	r.entries[token] = cb
	r.order = append(r.order, token)
	return token
}

// remove deletes the callback identified by token and reports whether the
// token was registered.
func (r *registry) remove(token Token) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[token]; !ok {
		return false
	}
	delete(r.entries, token)
	for i, t := range r.order {
		if t == token {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *registry) get(token Token) (Callback, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cb, ok := r.entries[token]
	return cb, ok
}

// snapshot returns the registered tokens in registration order. The
// returned slice is a copy; registrations and removals after the call do
// not affect it.
func (r *registry) snapshot() []Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order := make([]Token, len(r.order))
	copy(order, r.order)
	return order
}

func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
