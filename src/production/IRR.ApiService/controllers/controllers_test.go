package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	control "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Control"
	logger "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Logger"
	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
	realtime "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Realtime"
	implementation "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Repository/Implementation"
)

const testToken = "test-device-token"

type testHarness struct {
	engine   *gin.Engine
	store    *implementation.MemoryStore
	registry *realtime.SessionRegistry
	router   *realtime.BroadcastRouter
	service  *control.ControlService
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.GetGlobalLogger()
	store := implementation.NewMemoryStore()
	registry := realtime.NewSessionRegistry(log)
	router := realtime.NewBroadcastRouter(registry, log)
	presence := realtime.NewPresenceTracker(5 * time.Second)

	service := control.NewControlService(
		testToken,
		60*time.Second,
		store,
		store,
		store,
		store,
		presence,
		router,
		log,
	)

	engine := gin.New()
	NewTelemetryController(service, log).RegisterRoutes(engine)
	NewStatusController(service, log).RegisterRoutes(engine)
	NewThresholdController(service, log).RegisterRoutes(engine)
	NewWSController(registry, store, testToken, 32, log).RegisterRoutes(engine)

	return &testHarness{
		engine:   engine,
		store:    store,
		registry: registry,
		router:   router,
		service:  service,
	}
}

func (h *testHarness) postJSON(t *testing.T, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func (h *testHarness) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func telemetryBody(humidity int) map[string]interface{} {
	return map[string]interface{}{
		"humidity":  humidity,
		"pump_on":   false,
		"timestamp": time.Now().Unix(),
	}
}

func TestPostTelemetryRequiresToken(t *testing.T) {
	h := newHarness(t)

	w := h.postJSON(t, "/api/telemetry", "", telemetryBody(30))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status %d, want 401", w.Code)
	}

	w = h.postJSON(t, "/api/telemetry", "wrong", telemetryBody(30))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status %d, want 401", w.Code)
	}
	if h.store.ReadingCount() != 0 {
		t.Errorf("rejected request stored a reading")
	}
}

func TestPostTelemetryValidation(t *testing.T) {
	h := newHarness(t)

	w := h.postJSON(t, "/api/telemetry", testToken, telemetryBody(150))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}

	var fields map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &fields); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if _, ok := fields["humidity"]; !ok {
		t.Errorf("expected humidity field error, got %v", fields)
	}
}

func TestPostTelemetryDrivesPump(t *testing.T) {
	h := newHarness(t)

	w := h.postJSON(t, "/api/telemetry", testToken, telemetryBody(10))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp irrmodels.TelemetryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" || !resp.PumpOn {
		t.Errorf("response = %+v, want status ok with pump on", resp)
	}
}

func TestGetStatusDefaults(t *testing.T) {
	h := newHarness(t)

	w := h.get(t, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}

	var resp irrmodels.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Humidity != nil || resp.PumpOn || resp.DeviceOnline {
		t.Errorf("expected empty defaults, got %+v", resp)
	}
	if resp.MinThreshold != irrmodels.DefaultMinHumidity || resp.MaxThreshold != irrmodels.DefaultMaxHumidity {
		t.Errorf("expected default band, got %d..%d", resp.MinThreshold, resp.MaxThreshold)
	}

	// The raw JSON must carry an explicit null, not a zero.
	if !strings.Contains(w.Body.String(), `"humidity":null`) {
		t.Errorf("humidity not serialized as null: %s", w.Body.String())
	}
}

func TestGetStatusAfterIngest(t *testing.T) {
	h := newHarness(t)

	if w := h.postJSON(t, "/api/telemetry", testToken, telemetryBody(35)); w.Code != http.StatusOK {
		t.Fatalf("ingest failed: %d", w.Code)
	}

	w := h.get(t, "/api/status")
	var resp irrmodels.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Humidity == nil || *resp.Humidity != 35 {
		t.Errorf("humidity = %v, want 35", resp.Humidity)
	}
	if !resp.DeviceOnline {
		t.Errorf("device should be online right after ingest")
	}
}

func TestGetRecentHumidity(t *testing.T) {
	h := newHarness(t)

	w := h.get(t, "/api/humidity/recent?seconds=abc")
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-numeric seconds: status %d, want 400", w.Code)
	}

	w = h.get(t, "/api/humidity/recent?seconds=-5")
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative seconds: status %d, want 400", w.Code)
	}

	w = h.get(t, "/api/humidity/recent")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("empty history = %s, want []", body)
	}

	if w := h.postJSON(t, "/api/telemetry", testToken, telemetryBody(30)); w.Code != http.StatusOK {
		t.Fatalf("ingest failed: %d", w.Code)
	}

	w = h.get(t, "/api/humidity/recent?seconds=120")
	var entries []irrmodels.HistoryEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(entries) != 1 || entries[0].Humidity != 30 {
		t.Errorf("entries = %+v, want one entry with humidity 30", entries)
	}
}

func TestUpdateThreshold(t *testing.T) {
	h := newHarness(t)

	w := h.postJSON(t, "/api/threshold", "", map[string]interface{}{"min_humidity": 60, "max_humidity": 40})
	if w.Code != http.StatusBadRequest {
		t.Errorf("inverted band: status %d, want 400", w.Code)
	}

	w = h.postJSON(t, "/api/threshold", "", map[string]interface{}{"min_humidity": 25})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp irrmodels.ThresholdResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.MinHumidity != 25 || resp.MaxHumidity != irrmodels.DefaultMaxHumidity {
		t.Errorf("response = %+v, want min 25 max %d", resp, irrmodels.DefaultMaxHumidity)
	}
}

func TestDeviceSocketRejectedBeforeUpgrade(t *testing.T) {
	h := newHarness(t)

	// Bad token: rejected as a plain HTTP response, no upgrade attempted.
	w := h.get(t, "/ws/device?token=wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status %d, want 401", w.Code)
	}

	// Correct token but no provisioned device row: still rejected.
	w = h.get(t, "/ws/device?token="+testToken)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unknown device: status %d, want 401", w.Code)
	}

	if h.registry.SessionCount() != 0 {
		t.Errorf("rejected handshakes registered sessions")
	}
}

func TestFrontendSocketReceivesTelemetry(t *testing.T) {
	h := newHarness(t)

	srv := httptest.NewServer(h.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/frontend"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	resp.Body.Close()

	// The handler joins the group just after the upgrade completes; wait for
	// the membership to land before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for len(h.registry.MembersOf(irrmodels.FrontendGroup)) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("frontend session never joined its group")
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.router.Publish(irrmodels.FrontendGroup, irrmodels.Message{
		Kind:      irrmodels.KindTelemetry,
		Humidity:  42,
		PumpOn:    true,
		Timestamp: 1700000000,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame irrmodels.TelemetryFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if frame.Type != "telemetry" || frame.Humidity != 42 || !frame.PumpOn {
		t.Errorf("frame = %+v", frame)
	}
}

func TestDeviceSocketReceivesCommands(t *testing.T) {
	h := newHarness(t)

	// Provision the device row through a normal ingestion first.
	if w := h.postJSON(t, "/api/telemetry", testToken, telemetryBody(30)); w.Code != http.StatusOK {
		t.Fatalf("ingest failed: %d", w.Code)
	}

	srv := httptest.NewServer(h.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/device?token=" + testToken
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	resp.Body.Close()

	device, err := h.store.FirstDevice(context.Background())
	if err != nil || device == nil {
		t.Fatalf("device not provisioned: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(h.registry.MembersOf(irrmodels.DeviceGroup(device.DeviceID))) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("device session never joined its group")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A below-band reading flips the pump on and pushes a command frame.
	if w := h.postJSON(t, "/api/telemetry", testToken, telemetryBody(5)); w.Code != http.StatusOK {
		t.Fatalf("ingest failed: %d", w.Code)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame irrmodels.CommandFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if frame.Type != "command" || !frame.PumpOn {
		t.Errorf("frame = %+v, want pump-on command", frame)
	}
}
