package types

// DeviceReadings groups the readings reported for one processing unit.
// Load and Fan are percentages, Temp is °C, Power is watts.
type DeviceReadings struct {
	Load  float64 `json:"load"`
	Temp  float64 `json:"temp"`
	Power float64 `json:"power"`
	Fan   float64 `json:"fan"`
}

// MetricsSnapshot is a point-in-time record of the remote host's sensors.
// A published snapshot is never mutated; the ingestion side replaces it whole.
type MetricsSnapshot struct {
	CPU       DeviceReadings `json:"cpu"`
	GPU       DeviceReadings `json:"gpu"`
	RAMLoad   float64        `json:"ram_load"`
	CoreLoads []float64      `json:"core_loads"`

	Available bool  `json:"available"`
	UpdatedMs int64 `json:"updated_ms"` // unix ms of the successful fetch
}

// Clone returns a deep copy.
func (s MetricsSnapshot) Clone() MetricsSnapshot {
	if s.CoreLoads != nil {
		s.CoreLoads = append([]float64(nil), s.CoreLoads...)
	}
	return s
}
