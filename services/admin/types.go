package admin

import "time"

// Status is the /api/status payload.
type Status struct {
	Init          string     `json:"init_state"`
	Screen        string     `json:"screen"`
	Transition    Transition `json:"transition"`
	Telemetry     Telemetry  `json:"telemetry"`
	Initialized   bool       `json:"initialized"`
	Connected     bool       `json:"connected"`
	TimeSynced    bool       `json:"time_synced"`
	MetricsSynced bool       `json:"metrics_synced"`
	Brightness    uint8      `json:"brightness"`
	LockMisses    uint64     `json:"lock_misses"`
	Timestamp     string     `json:"timestamp"` // RFC3339
}

type Transition struct {
	Phase      string `json:"phase"`
	Target     string `json:"target"`
	InProgress bool   `json:"in_progress"`
}

type Telemetry struct {
	Fetches     uint64 `json:"fetches"`
	Failures    uint64 `json:"failures"`
	Consecutive int32  `json:"consecutive_failures"`
	LastError   string `json:"last_error,omitempty"`
	UpdatedMs   int64  `json:"updated_ms,omitempty"`
}

// ActionResponse acknowledges a published action.
type ActionResponse struct {
	Action string `json:"action"`
}

// APIError is a standard error payload.
type APIError struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"` // RFC3339
}

// TimeNow abstracts time for tests.
var TimeNow = func() time.Time { return time.Now() }
