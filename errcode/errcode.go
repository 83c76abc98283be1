package errcode

// Code is a stable, log-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK          Code = "ok"
	Unsupported Code = "unsupported"
	Timeout     Code = "timeout"

	// Bring-up
	DisplayInit Code = "display_init_failed"
	TasksInit   Code = "tasks_init_failed"
	NetworkDown Code = "network_down"
	TimeSync    Code = "time_sync_failed"
	InitFailed  Code = "init_failed"

	// Render pipeline
	LockTimeout       Code = "display_lock_timeout"
	TransitionTimeout Code = "transition_timeout"
	ScreenMissing     Code = "screen_missing"
	TransitionBusy    Code = "transition_busy"

	// Telemetry
	FetchFailed    Code = "fetch_failed"
	ParseFailed    Code = "parse_failed"
	InvalidReading Code = "invalid_reading"

	// Widgets
	WidgetNotReady Code = "widget_not_ready"
	WidgetPanic    Code = "widget_panic"

	InvalidConfig Code = "invalid_config"

	Error Code = "error" // generic fallback
)

// E wraps a Code when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap builds an *E for op with code c around err.
func Wrap(c Code, op string, err error) *E {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		if inner := u.Unwrap(); inner != nil {
			return Of(inner)
		}
	}
	return Error
}
