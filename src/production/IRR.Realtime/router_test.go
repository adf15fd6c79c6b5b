package realtime

import (
	"testing"

	logger "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Logger"
	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

func TestPublishDeliversToGroupMembers(t *testing.T) {
	reg := NewSessionRegistry(logger.GetGlobalLogger())
	router := NewBroadcastRouter(reg, logger.GetGlobalLogger())

	a := newTestSession("a", KindFrontend)
	b := newTestSession("b", KindFrontend)
	outsider := newTestSession("c", KindFrontend)
	for _, s := range []*Session{a, b, outsider} {
		reg.Register(s)
	}
	reg.Join("a", irrmodels.FrontendGroup)
	reg.Join("b", irrmodels.FrontendGroup)

	msg := irrmodels.Message{Kind: irrmodels.KindTelemetry, Humidity: 42, PumpOn: true, Timestamp: 1700000000}
	if got := router.Publish(irrmodels.FrontendGroup, msg); got != 2 {
		t.Fatalf("Publish delivered %d, want 2", got)
	}

	for _, s := range []*Session{a, b} {
		select {
		case got := <-s.send:
			if got.Humidity != 42 || !got.PumpOn {
				t.Errorf("session %s received %+v", s.ID, got)
			}
		default:
			t.Errorf("session %s received nothing", s.ID)
		}
	}

	select {
	case got := <-outsider.send:
		t.Errorf("non-member received %+v", got)
	default:
	}
}

func TestPublishToEmptyGroup(t *testing.T) {
	reg := NewSessionRegistry(logger.GetGlobalLogger())
	router := NewBroadcastRouter(reg, logger.GetGlobalLogger())

	if got := router.Publish("device:nobody", irrmodels.Message{Kind: irrmodels.KindPumpCommand}); got != 0 {
		t.Errorf("Publish to empty group delivered %d", got)
	}
}

func TestPublishSkipsFullQueues(t *testing.T) {
	reg := NewSessionRegistry(logger.GetGlobalLogger())
	router := NewBroadcastRouter(reg, logger.GetGlobalLogger())

	slow := NewSession("slow", KindFrontend, "", nil, 1, logger.GetGlobalLogger())
	fast := newTestSession("fast", KindFrontend)
	reg.Register(slow)
	reg.Register(fast)
	reg.Join("slow", irrmodels.FrontendGroup)
	reg.Join("fast", irrmodels.FrontendGroup)

	// Fill the slow session's queue so the next publish must drop for it.
	if !slow.Enqueue(irrmodels.Message{Kind: irrmodels.KindTelemetry}) {
		t.Fatalf("priming enqueue failed")
	}

	if got := router.Publish(irrmodels.FrontendGroup, irrmodels.Message{Kind: irrmodels.KindTelemetry, Humidity: 7}); got != 1 {
		t.Errorf("Publish delivered %d, want 1 (slow session skipped)", got)
	}

	select {
	case got := <-fast.send:
		if got.Humidity != 7 {
			t.Errorf("fast session received %+v", got)
		}
	default:
		t.Errorf("fast session starved by slow one")
	}
}

func TestPublishSkipsClosedSessions(t *testing.T) {
	reg := NewSessionRegistry(logger.GetGlobalLogger())
	router := NewBroadcastRouter(reg, logger.GetGlobalLogger())

	s := newTestSession("s1", KindFrontend)
	reg.Register(s)
	reg.Join("s1", irrmodels.FrontendGroup)
	s.Close()

	if got := router.Publish(irrmodels.FrontendGroup, irrmodels.Message{Kind: irrmodels.KindTelemetry}); got != 0 {
		t.Errorf("Publish delivered %d to a closed session", got)
	}
}
