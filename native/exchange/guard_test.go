package exchange

import (
	"errors"
	"testing"
)

func TestGuardAllowsSequentialCalls(t *testing.T) {
	guard := &ReentrancyGuard{}
	for i := 0; i < 3; i++ {
		if err := guard.Do(func() error { return nil }); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
}

func TestGuardRejectsNestedCall(t *testing.T) {
	guard := &ReentrancyGuard{}
	var inner error
	err := guard.Do(func() error {
		inner = guard.Do(func() error { return nil })
		return nil
	})
	if err != nil {
		t.Fatalf("outer call failed: %v", err)
	}
	if !errors.Is(inner, ErrReentrantCall) {
		t.Fatalf("inner call: expected ErrReentrantCall, got %v", inner)
	}
}

func TestGuardReleasesOnFailure(t *testing.T) {
	guard := &ReentrancyGuard{}
	boom := errors.New("boom")
	if err := guard.Do(func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected propagated failure, got %v", err)
	}
	if err := guard.Do(func() error { return nil }); err != nil {
		t.Fatalf("guard not released after failure: %v", err)
	}
}

func TestGuardReleasesOnPanic(t *testing.T) {
	guard := &ReentrancyGuard{}
	func() {
		defer func() { _ = recover() }()
		_ = guard.Do(func() error { panic("boom") })
	}()
	if err := guard.Do(func() error { return nil }); err != nil {
		t.Fatalf("guard not released after panic: %v", err)
	}
}
