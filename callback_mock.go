package flux

// CallbackMock implements Callback with a configurable function, for use
// in tests.
type CallbackMock struct {
	InvokeFunc func(p Payload) error
}

func (m *CallbackMock) Invoke(p Payload) error {
	if m.InvokeFunc == nil {
		panic("This method is not defined.")
	}
	return m.InvokeFunc(p)
}
