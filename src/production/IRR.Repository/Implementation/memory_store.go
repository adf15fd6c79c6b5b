package implementation

import (
	"context"
	"sync"
	"time"

	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

// MemoryStore implements every repository interface with in-memory maps. It
// backs the unit tests and is handy for running the server without Postgres.
type MemoryStore struct {
	mu         sync.RWMutex
	devices    []irrmodels.Device
	readings   []irrmodels.HumidityReading
	pumpStates map[string]irrmodels.PumpState
	thresholds *irrmodels.ThresholdConfig
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pumpStates: make(map[string]irrmodels.PumpState),
	}
}

// Device operations

func (s *MemoryStore) ProvisionDevice(_ context.Context, device irrmodels.Device) (*irrmodels.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.devices {
		if d.Token == device.Token {
			existing := d
			return &existing, nil
		}
	}

	s.devices = append(s.devices, device)
	return &device, nil
}

func (s *MemoryStore) GetDeviceByToken(_ context.Context, token string) (*irrmodels.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.devices {
		if d.Token == token {
			device := d
			return &device, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FirstDevice(_ context.Context) (*irrmodels.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.devices) == 0 {
		return nil, nil
	}
	device := s.devices[0]
	return &device, nil
}

// Reading operations

func (s *MemoryStore) InsertReading(_ context.Context, r irrmodels.HumidityReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings = append(s.readings, r)
	return nil
}

func (s *MemoryStore) GetReadingsSince(_ context.Context, since time.Time) ([]irrmodels.HumidityReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []irrmodels.HumidityReading
	for _, r := range s.readings {
		if !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetLatestReading(_ context.Context, deviceID string) (*irrmodels.HumidityReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.readings) - 1; i >= 0; i-- {
		if s.readings[i].DeviceID == deviceID {
			reading := s.readings[i]
			return &reading, nil
		}
	}
	return nil, nil
}

// ReadingCount reports how many readings were appended. Test helper.
func (s *MemoryStore) ReadingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}

// Pump state operations

func (s *MemoryStore) GetPumpState(_ context.Context, deviceID string) (*irrmodels.PumpState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.pumpStates[deviceID]
	if !ok {
		state = irrmodels.PumpState{DeviceID: deviceID, IsOn: false, UpdatedAt: time.Now().UTC()}
		s.pumpStates[deviceID] = state
	}
	return &state, nil
}

func (s *MemoryStore) SetPumpState(_ context.Context, deviceID string, isOn bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pumpStates[deviceID] = irrmodels.PumpState{DeviceID: deviceID, IsOn: isOn, UpdatedAt: time.Now().UTC()}
	return nil
}

// Threshold operations

func (s *MemoryStore) GetThresholds(_ context.Context) (*irrmodels.ThresholdConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.thresholds == nil {
		cfg := irrmodels.DefaultThresholdConfig()
		cfg.UpdatedAt = time.Now().UTC()
		s.thresholds = &cfg
	}
	cfg := *s.thresholds
	return &cfg, nil
}

func (s *MemoryStore) UpdateThresholds(_ context.Context, cfg irrmodels.ThresholdConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg.UpdatedAt = time.Now().UTC()
	s.thresholds = &cfg
	return nil
}
