package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"display_init_failed":  DisplayInit,
		"tasks_init_failed":    TasksInit,
		"init_failed":          InitFailed,
		"display_lock_timeout": LockTimeout,
		"transition_timeout":   TransitionTimeout,
		"fetch_failed":         FetchFailed,
		"widget_panic":         WidgetPanic,
		"unsupported":          Unsupported,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestOfUnwrapsWrappedCodes(t *testing.T) {
	if Of(nil) != OK {
		t.Fatal("nil should map to ok")
	}
	if Of(Timeout) != Timeout {
		t.Fatal("bare code not preserved")
	}
	e := Wrap(FetchFailed, "fetch", errors.New("boom"))
	if Of(e) != FetchFailed {
		t.Fatalf("got %q", Of(e))
	}
	outer := fmt.Errorf("poll: %w", e)
	if Of(outer) != FetchFailed {
		t.Fatalf("wrapped: got %q", Of(outer))
	}
	if Of(errors.New("plain")) != Error {
		t.Fatal("plain errors should map to generic code")
	}
}

func TestEErrorIncludesOpAndCause(t *testing.T) {
	e := &E{C: InitFailed, Op: "DISPLAY_INIT", Err: DisplayInit}
	if got := e.Error(); got != "DISPLAY_INIT: init_failed: display_init_failed" {
		t.Fatalf("unexpected message %q", got)
	}
	if !errors.Is(e, DisplayInit) {
		t.Fatal("cause not reachable through errors.Is")
	}
}
