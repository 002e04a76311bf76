package types

// ---- Common service state (retained) ----

type ServiceState struct {
	Level  string `json:"level"`  // e.g. "starting", "running", "failed"
	Status string `json:"status"` // freeform short code
	TS     int64  `json:"ts_ms"`
}

// Info envelope each service exposes (retained).
type Info struct {
	SchemaVersion int         `json:"schema_version"`
	Driver        string      `json:"driver"`
	Detail        interface{} `json:"detail,omitempty"`
}

// ---- Heartbeat ----

type Heartbeat struct {
	Seq      uint32 `json:"seq"`
	UptimeMs int64  `json:"uptime_ms"`
}

// HeartbeatConfig is accepted on config/heartbeat.
type HeartbeatConfig struct {
	IntervalS int `json:"interval"`
}
