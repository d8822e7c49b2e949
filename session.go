package flux

// record tracks one callback through a dispatch. pending is set when the
// callback's invocation starts and handled when it returns nil. A record
// that is pending but not handled marks a callback somewhere below on the
// call stack, which is what cycle detection looks for.
type record struct {
	pending bool
	handled bool
}

// session is the bookkeeping of a single dispatch: the payload being
// delivered, the registration-order snapshot taken when the dispatch
// began, one record per callback, and the first violation observed.
//
// A session is only touched from the dispatching goroutine, so it needs
// no locking.
type session struct {
	payload   Payload
	order     []Token
	records   map[Token]*record
	violation error
	active    []Token
}

func newSession(payload Payload, order []Token) *session {
	records := make(map[Token]*record, len(order))
	for _, t := range order {
		records[t] = &record{}
	}
	return &session{payload: payload, order: order, records: records}
}

// entry returns the record for token, creating it on first use. Tokens
// registered after the dispatch began are not in the snapshot but still
// get records on demand so WaitFor can resolve them.
func (s *session) entry(token Token) *record {
	rec, ok := s.records[token]
	if !ok {
		rec = &record{}
		s.records[token] = rec
	}
	return rec
}

// fail records the first violation observed during the dispatch. A
// violation outlives the WaitFor call that hit it; the dispatch reports
// it even when the callback swallowed the returned error.
func (s *session) fail(err error) {
	if s.violation == nil {
		s.violation = err
	}
}

// push marks token as the innermost callback being invoked.
func (s *session) push(token Token) {
	s.active = append(s.active, token)
}

func (s *session) pop() {
	s.active = s.active[:len(s.active)-1]
}

// current returns the innermost callback being invoked, or "" when the
// dispatch loop itself is running.
func (s *session) current() Token {
	if len(s.active) == 0 {
		return ""
	}
	return s.active[len(s.active)-1]
}
