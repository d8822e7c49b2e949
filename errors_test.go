package flux

import (
	"errors"
	"testing"
)

func TestUnknownTokenError(t *testing.T) {
	err := &UnknownTokenError{Op: "WaitFor", Token: "cb-7"}

	want := `flux: WaitFor: token "cb-7" is not registered`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrUnknownToken) {
		t.Error("errors.Is(err, ErrUnknownToken) = false")
	}
	if errors.Is(err, ErrCallbackFailed) {
		t.Error("errors.Is(err, ErrCallbackFailed) = true")
	}
}

func TestCycleError(t *testing.T) {
	tests := []struct {
		name string
		err  *CycleError
		want string
	}{
		{
			name: "with waiter",
			err:  &CycleError{Waiter: "cb-1", Token: "cb-2"},
			want: `flux: circular dependency detected: "cb-1" is waiting for "cb-2"`,
		},
		{
			name: "without waiter",
			err:  &CycleError{Token: "cb-2"},
			want: `flux: circular dependency detected while waiting for "cb-2"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, ErrCircularDependency) {
				t.Error("errors.Is(err, ErrCircularDependency) = false")
			}
		})
	}
}

func TestCallbackError(t *testing.T) {
	cause := errors.New("boom")

	t.Run("returned error", func(t *testing.T) {
		err := &CallbackError{Token: "cb-3", Err: cause}

		want := `flux: callback "cb-3" failed: boom`
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
		if err.Panicked() {
			t.Error("Panicked() = true")
		}
		if !errors.Is(err, ErrCallbackFailed) {
			t.Error("errors.Is(err, ErrCallbackFailed) = false")
		}
		if !errors.Is(err, cause) {
			t.Error("errors.Is(err, cause) = false")
		}
	})

	t.Run("panic", func(t *testing.T) {
		err := &CallbackError{Token: "cb-3", PanicValue: "kaboom", Stack: []byte("stack")}

		want := `flux: callback "cb-3" panicked: kaboom`
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
		if !err.Panicked() {
			t.Error("Panicked() = false")
		}
		if errors.Unwrap(err) != nil {
			t.Errorf("Unwrap() = %v, want nil", errors.Unwrap(err))
		}
		if !errors.Is(err, ErrCallbackFailed) {
			t.Error("errors.Is(err, ErrCallbackFailed) = false")
		}
	})
}
