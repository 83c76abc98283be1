package types

// InitState is the bring-up stage the device is in.
type InitState uint8

const (
	InitInitial InitState = iota
	InitDisplay
	InitTasks
	InitNetwork
	InitTime
	InitWatchdog
	InitFinalSetup
	InitComplete
	InitFailed

	initStateCount
)

// InitStateCount is the number of distinct bring-up states.
const InitStateCount = int(initStateCount)

var initStateNames = [...]string{
	InitInitial:    "INITIAL",
	InitDisplay:    "DISPLAY_INIT",
	InitTasks:      "TASKS_INIT",
	InitNetwork:    "NETWORK_INIT",
	InitTime:       "TIME_INIT",
	InitWatchdog:   "WATCHDOG_INIT",
	InitFinalSetup: "FINAL_SETUP",
	InitComplete:   "COMPLETE",
	InitFailed:     "FAILED",
}

func (s InitState) String() string {
	if int(s) < len(initStateNames) {
		return initStateNames[s]
	}
	return "UNKNOWN"
}

// Terminal reports whether no further bring-up work follows s.
func (s InitState) Terminal() bool { return s == InitComplete || s == InitFailed }
