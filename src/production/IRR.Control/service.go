package control

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	logger "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Logger"
	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
	interfaces "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Repository/Interfaces"
)

// Publisher is the broadcast surface the service needs; satisfied by
// realtime.BroadcastRouter and by recording fakes in tests.
type Publisher interface {
	Publish(group string, msg irrmodels.Message) int
}

// Presence is the liveness surface the service needs.
type Presence interface {
	Touch(deviceID string, t time.Time)
	IsOnline(deviceID string, now time.Time) bool
}

// ControlService orchestrates the ingestion pipeline and the administrative
// operations around it: authenticate, validate, record, evaluate, broadcast.
type ControlService struct {
	deviceToken   string
	historyWindow time.Duration

	devices    interfaces.DeviceRepository
	readings   interfaces.ReadingRepository
	pumps      interfaces.PumpStateRepository
	thresholds interfaces.ThresholdRepository

	presence Presence
	router   Publisher
	logger   *logger.Logger

	// per-device exclusive section covering touch-append-evaluate-publish,
	// so concurrent readings for one device apply in receipt order and
	// cannot race to conflicting pump decisions
	lockMu      sync.Mutex
	deviceLocks map[string]*sync.Mutex

	now func() time.Time
}

func NewControlService(
	deviceToken string,
	historyWindow time.Duration,
	devices interfaces.DeviceRepository,
	readings interfaces.ReadingRepository,
	pumps interfaces.PumpStateRepository,
	thresholds interfaces.ThresholdRepository,
	presence Presence,
	router Publisher,
	log *logger.Logger,
) *ControlService {
	return &ControlService{
		deviceToken:   deviceToken,
		historyWindow: historyWindow,
		devices:       devices,
		readings:      readings,
		pumps:         pumps,
		thresholds:    thresholds,
		presence:      presence,
		router:        router,
		logger:        log.WithComponent("control"),
		deviceLocks:   make(map[string]*sync.Mutex),
		now:           time.Now,
	}
}

// Ingest runs the full telemetry pipeline and returns the authoritative
// post-evaluation pump state. A validation or authentication failure leaves
// presence, readings and pump state untouched.
func (s *ControlService) Ingest(ctx context.Context, token string, req irrmodels.TelemetryRequest) (bool, error) {
	device, err := s.authenticate(ctx, token)
	if err != nil {
		readingsRejected.WithLabelValues("unauthorized").Inc()
		return false, err
	}

	if verr := validateTelemetry(req); verr != nil {
		readingsRejected.WithLabelValues("validation").Inc()
		return false, verr
	}

	// From here on the pipeline is exclusive per device: presence, the
	// reading append, the pump decision and the fan-out all land in receipt
	// order. The broadcasts inside are non-blocking enqueues, so the lock is
	// never held across a slow consumer.
	lock := s.deviceLock(device.DeviceID)
	lock.Lock()
	defer lock.Unlock()

	now := s.now().UTC()
	s.presence.Touch(device.DeviceID, now)

	reading := irrmodels.HumidityReading{
		DeviceID:  device.DeviceID,
		Humidity:  *req.Humidity,
		CreatedAt: now,
	}
	if err := s.readings.InsertReading(ctx, reading); err != nil {
		return false, fmt.Errorf("failed to store reading: %w", err)
	}

	pumpOn, err := s.evaluateAndBroadcast(ctx, device.DeviceID, *req.Humidity)
	if err != nil {
		return false, err
	}

	// Telemetry always fans out to the frontend group, carrying the
	// post-evaluation pump state.
	s.router.Publish(irrmodels.FrontendGroup, irrmodels.Message{
		Kind:      irrmodels.KindTelemetry,
		Humidity:  *req.Humidity,
		PumpOn:    pumpOn,
		Timestamp: *req.Timestamp,
	})

	readingsIngested.Inc()
	return pumpOn, nil
}

// authenticate resolves the credential to a device, provisioning the row on
// the first valid use.
func (s *ControlService) authenticate(ctx context.Context, token string) (*irrmodels.Device, error) {
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.deviceToken)) != 1 {
		return nil, irrmodels.ErrUnauthorized
	}

	device, err := s.devices.GetDeviceByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up device: %w", err)
	}
	if device != nil {
		return device, nil
	}

	provisioned, err := s.devices.ProvisionDevice(ctx, irrmodels.Device{
		DeviceID:  uuid.NewString(),
		Name:      irrmodels.DefaultDeviceName,
		Token:     token,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to provision device: %w", err)
	}

	s.logger.WithDevice(provisioned.DeviceID).Info("provisioned device on first telemetry")
	return provisioned, nil
}

// evaluateAndBroadcast runs the hysteresis decision. The caller holds the
// device lock. Exactly one persist and one command broadcast happen per
// decision that actually flips the state.
func (s *ControlService) evaluateAndBroadcast(ctx context.Context, deviceID string, humidity int) (bool, error) {
	state, err := s.pumps.GetPumpState(ctx, deviceID)
	if err != nil {
		return false, fmt.Errorf("failed to load pump state: %w", err)
	}

	cfg, err := s.thresholds.GetThresholds(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load thresholds: %w", err)
	}

	next, changed := Evaluate(humidity, *cfg, state.IsOn)
	if !changed {
		return next, nil
	}

	if err := s.pumps.SetPumpState(ctx, deviceID, next); err != nil {
		return false, fmt.Errorf("failed to persist pump state: %w", err)
	}

	s.router.Publish(irrmodels.DeviceGroup(deviceID), irrmodels.Message{
		Kind:   irrmodels.KindPumpCommand,
		PumpOn: next,
	})

	pumpTransitions.Inc()
	s.logger.WithDevice(deviceID).WithField("pump_on", next).Info("pump state changed")
	return next, nil
}

// Status returns the aggregate snapshot. Before any device exists it answers
// with defaults instead of an error.
func (s *ControlService) Status(ctx context.Context) (*irrmodels.StatusResponse, error) {
	device, err := s.devices.FirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up device: %w", err)
	}
	if device == nil {
		return &irrmodels.StatusResponse{
			Humidity:     nil,
			PumpOn:       false,
			MinThreshold: irrmodels.DefaultMinHumidity,
			MaxThreshold: irrmodels.DefaultMaxHumidity,
			DeviceOnline: false,
		}, nil
	}

	latest, err := s.readings.GetLatestReading(ctx, device.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest reading: %w", err)
	}

	state, err := s.pumps.GetPumpState(ctx, device.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pump state: %w", err)
	}

	cfg, err := s.thresholds.GetThresholds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load thresholds: %w", err)
	}

	resp := &irrmodels.StatusResponse{
		PumpOn:       state.IsOn,
		MinThreshold: cfg.MinHumidity,
		MaxThreshold: cfg.MaxHumidity,
		DeviceOnline: s.presence.IsOnline(device.DeviceID, s.now()),
	}
	if latest != nil {
		h := latest.Humidity
		resp.Humidity = &h
	}
	return resp, nil
}

// RecentHistory returns readings newer than now-window, oldest first. A
// non-positive window falls back to the configured default.
func (s *ControlService) RecentHistory(ctx context.Context, windowSeconds int) ([]irrmodels.HistoryEntry, error) {
	window := time.Duration(windowSeconds) * time.Second
	if windowSeconds <= 0 {
		window = s.historyWindow
	}

	since := s.now().UTC().Add(-window)
	readings, err := s.readings.GetReadingsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}

	entries := make([]irrmodels.HistoryEntry, 0, len(readings))
	for _, r := range readings {
		entries = append(entries, irrmodels.HistoryEntry{
			Humidity:  r.Humidity,
			Timestamp: r.CreatedAt.Unix(),
		})
	}
	return entries, nil
}

// UpdateThresholds applies a partial band update, validates the ordering and
// pushes the new config to the owning device's group.
func (s *ControlService) UpdateThresholds(ctx context.Context, req irrmodels.ThresholdUpdateRequest) (*irrmodels.ThresholdResponse, error) {
	cfg, err := s.thresholds.GetThresholds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load thresholds: %w", err)
	}

	next := *cfg
	if req.MinHumidity != nil {
		next.MinHumidity = *req.MinHumidity
	}
	if req.MaxHumidity != nil {
		next.MaxHumidity = *req.MaxHumidity
	}

	if next.MinHumidity >= next.MaxHumidity {
		return nil, irrmodels.NewValidationError().
			Add("min_humidity", "must be less than max_humidity")
	}

	if err := s.thresholds.UpdateThresholds(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to persist thresholds: %w", err)
	}

	device, err := s.devices.FirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up device: %w", err)
	}
	if device != nil {
		s.router.Publish(irrmodels.DeviceGroup(device.DeviceID), irrmodels.Message{
			Kind:        irrmodels.KindConfigUpdate,
			MinHumidity: next.MinHumidity,
			MaxHumidity: next.MaxHumidity,
		})
	}

	s.logger.WithField("min", next.MinHumidity).WithField("max", next.MaxHumidity).Info("thresholds updated")
	return &irrmodels.ThresholdResponse{
		MinHumidity: next.MinHumidity,
		MaxHumidity: next.MaxHumidity,
	}, nil
}

func validateTelemetry(req irrmodels.TelemetryRequest) *irrmodels.ValidationError {
	verr := irrmodels.NewValidationError()

	if req.Humidity == nil {
		verr.Add("humidity", "this field is required")
	} else if *req.Humidity < 1 || *req.Humidity > 100 {
		verr.Add("humidity", "must be between 1 and 100")
	}
	if req.PumpOn == nil {
		verr.Add("pump_on", "this field is required")
	}
	if req.Timestamp == nil {
		verr.Add("timestamp", "this field is required")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// SetClock overrides the time source. Test hook.
func (s *ControlService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ControlService) deviceLock(deviceID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	lock, ok := s.deviceLocks[deviceID]
	if !ok {
		lock = &sync.Mutex{}
		s.deviceLocks[deviceID] = lock
	}
	return lock
}
