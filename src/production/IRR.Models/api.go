package irrmodels

// TelemetryRequest is the ingestion payload posted by the device. Pointer
// fields distinguish missing from zero values during validation.
type TelemetryRequest struct {
	Humidity  *int   `json:"humidity"`
	PumpOn    *bool  `json:"pump_on"`
	Timestamp *int64 `json:"timestamp"`
}

// TelemetryResponse acknowledges an ingested reading with the authoritative
// post-evaluation pump state.
type TelemetryResponse struct {
	Status string `json:"status"`
	PumpOn bool   `json:"pump_on"`
}

// StatusResponse is the aggregate system snapshot for the frontend.
// Humidity is null until the first reading arrives.
type StatusResponse struct {
	Humidity     *int `json:"humidity"`
	PumpOn       bool `json:"pump_on"`
	MinThreshold int  `json:"min_threshold"`
	MaxThreshold int  `json:"max_threshold"`
	DeviceOnline bool `json:"device_online"`
}

// HistoryEntry is one point of the bounded recent-window query.
type HistoryEntry struct {
	Humidity  int   `json:"humidity"`
	Timestamp int64 `json:"timestamp"`
}

// ThresholdUpdateRequest is a partial update; omitted fields keep their
// stored value.
type ThresholdUpdateRequest struct {
	MinHumidity *int `json:"min_humidity"`
	MaxHumidity *int `json:"max_humidity"`
}

// ThresholdResponse echoes the persisted band after an update.
type ThresholdResponse struct {
	MinHumidity int `json:"min_humidity"`
	MaxHumidity int `json:"max_humidity"`
}
