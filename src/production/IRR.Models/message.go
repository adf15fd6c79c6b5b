package irrmodels

import "fmt"

// MessageKind discriminates the broadcast message variants routed to
// connected sessions.
type MessageKind int

const (
	KindPumpCommand MessageKind = iota
	KindConfigUpdate
	KindTelemetry
)

func (k MessageKind) String() string {
	switch k {
	case KindPumpCommand:
		return "command"
	case KindConfigUpdate:
		return "config"
	case KindTelemetry:
		return "telemetry"
	default:
		return "unknown"
	}
}

// Message is the tagged union delivered by the broadcast router. The session
// write pump switches on Kind to build the outbound wire frame.
type Message struct {
	Kind        MessageKind
	PumpOn      bool
	MinHumidity int
	MaxHumidity int
	Humidity    int
	Timestamp   int64
}

// FrontendGroup receives telemetry updates for every observing client.
const FrontendGroup = "frontend"

// DeviceGroup returns the per-device group name a device session joins.
func DeviceGroup(deviceID string) string {
	return fmt.Sprintf("device:%s", deviceID)
}
