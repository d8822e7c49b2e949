package flux

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_registry_add(t *testing.T) {
	r := newRegistry("cb")
	cb := CallbackFunc(func(p Payload) error { return nil })

	if got := r.add(cb); got != "cb-1" {
		t.Errorf("add() = %q, want %q", got, "cb-1")
	}
	if got := r.add(cb); got != "cb-2" {
		t.Errorf("add() = %q, want %q", got, "cb-2")
	}
	if r.size() != 2 {
		t.Errorf("size() = %v, want %v", r.size(), 2)
	}
}

func Test_registry_remove(t *testing.T) {
	r := newRegistry("cb")
	token := r.add(CallbackFunc(func(p Payload) error { return nil }))

	if !r.remove(token) {
		t.Error("remove() = false for a registered token")
	}
	if r.remove(token) {
		t.Error("remove() = true for a removed token")
	}
	if r.remove("cb-99") {
		t.Error("remove() = true for an unknown token")
	}
	if r.size() != 0 {
		t.Errorf("size() = %v, want %v", r.size(), 0)
	}
}

func Test_registry_tokensNotReused(t *testing.T) {
	r := newRegistry("cb")
	cb := CallbackFunc(func(p Payload) error { return nil })

	first := r.add(cb)
	r.remove(first)
	if second := r.add(cb); second != "cb-2" {
		t.Errorf("add() after remove = %q, want %q", second, "cb-2")
	}
}

func Test_registry_get(t *testing.T) {
	r := newRegistry("cb")
	token := r.add(CallbackFunc(func(p Payload) error { return nil }))

	if _, ok := r.get(token); !ok {
		t.Error("get() ok = false for a registered token")
	}
	if _, ok := r.get("cb-99"); ok {
		t.Error("get() ok = true for an unknown token")
	}
}

func Test_registry_snapshot(t *testing.T) {
	r := newRegistry("cb")
	cb := CallbackFunc(func(p Payload) error { return nil })

	t1 := r.add(cb)
	t2 := r.add(cb)
	t3 := r.add(cb)
	r.remove(t2)

	got := r.snapshot()
	if diff := cmp.Diff([]Token{t1, t3}, got); diff != "" {
		t.Errorf("snapshot() mismatch (-want +got):\n%s", diff)
	}

	// The snapshot is detached from later changes.
	r.add(cb)
	if diff := cmp.Diff([]Token{t1, t3}, got); diff != "" {
		t.Errorf("snapshot changed after add (-want +got):\n%s", diff)
	}
}

func Test_registry_concurrent(t *testing.T) {
	r := newRegistry("cb")
	cb := CallbackFunc(func(p Payload) error { return nil })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				token := r.add(cb)
				if j%2 == 0 {
					r.remove(token)
				}
				r.snapshot()
				r.size()
			}
		}()
	}
	wg.Wait()

	if got, want := r.size(), 8*50; got != want {
		t.Errorf("size() = %v, want %v", got, want)
	}
}
