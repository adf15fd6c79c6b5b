package irrmodels

// Outbound WebSocket frames. All frames carry a "type" discriminator so the
// firmware and the frontend can switch on it.

// CommandFrame tells the device to switch the pump.
type CommandFrame struct {
	Type   string `json:"type"`
	PumpOn bool   `json:"pump_on"`
}

// ConfigFrame pushes the current hysteresis band to the device.
type ConfigFrame struct {
	Type        string `json:"type"`
	MinHumidity int    `json:"min_humidity"`
	MaxHumidity int    `json:"max_humidity"`
}

// TelemetryFrame fans the latest reading out to frontend sessions.
type TelemetryFrame struct {
	Type      string `json:"type"`
	Humidity  int    `json:"humidity"`
	PumpOn    bool   `json:"pump_on"`
	Timestamp int64  `json:"timestamp"`
}

// Frame builds the wire representation for a routed message.
func (m Message) Frame() interface{} {
	switch m.Kind {
	case KindPumpCommand:
		return CommandFrame{Type: "command", PumpOn: m.PumpOn}
	case KindConfigUpdate:
		return ConfigFrame{Type: "config", MinHumidity: m.MinHumidity, MaxHumidity: m.MaxHumidity}
	default:
		return TelemetryFrame{Type: "telemetry", Humidity: m.Humidity, PumpOn: m.PumpOn, Timestamp: m.Timestamp}
	}
}
