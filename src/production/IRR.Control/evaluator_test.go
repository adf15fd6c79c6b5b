package control

import (
	"testing"

	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

func TestEvaluate(t *testing.T) {
	cfg := irrmodels.ThresholdConfig{MinHumidity: 20, MaxHumidity: 40}

	tests := []struct {
		name        string
		humidity    int
		currentOn   bool
		wantOn      bool
		wantChanged bool
	}{
		{"below band turns pump on", 10, false, true, true},
		{"below band keeps pump on", 10, true, true, false},
		{"above band turns pump off", 50, true, false, true},
		{"above band keeps pump off", 50, false, false, false},
		{"inside band holds off", 30, false, false, false},
		{"inside band holds on", 30, true, true, false},
		{"min boundary is inside the band", 20, false, false, false},
		{"min boundary holds on", 20, true, true, false},
		{"max boundary is inside the band", 40, true, true, false},
		{"max boundary holds off", 40, false, false, false},
		{"just below min", 19, false, true, true},
		{"just above max", 41, true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotOn, gotChanged := Evaluate(tt.humidity, cfg, tt.currentOn)
			if gotOn != tt.wantOn || gotChanged != tt.wantChanged {
				t.Errorf("Evaluate(%d, %+v, %v) = (%v, %v), want (%v, %v)",
					tt.humidity, cfg, tt.currentOn, gotOn, gotChanged, tt.wantOn, tt.wantChanged)
			}
		})
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	cfg := irrmodels.DefaultThresholdConfig()

	for humidity := 1; humidity <= 100; humidity++ {
		first, _ := Evaluate(humidity, cfg, false)
		second, changed := Evaluate(humidity, cfg, first)
		if second != first {
			t.Fatalf("humidity %d: state flipped from %v to %v on repeated reading", humidity, first, second)
		}
		if changed {
			t.Fatalf("humidity %d: repeated reading reported a change", humidity)
		}
	}
}
