package ui

import (
	"testing"

	"github.com/pthm-cable/ecosim/telemetry"
)

func TestActionsMerge(t *testing.T) {
	tests := []struct {
		name string
		a, b Actions
		want Actions
	}{
		{"empty", Actions{}, Actions{}, Actions{}},
		{"key pause", Actions{TogglePause: true}, Actions{}, Actions{TogglePause: true}},
		{"both pause cancel", Actions{TogglePause: true}, Actions{TogglePause: true}, Actions{}},
		{"step from panel", Actions{}, Actions{StepDay: true}, Actions{StepDay: true}},
		{"speed kept", Actions{SecondsPerDay: 2}, Actions{}, Actions{SecondsPerDay: 2}},
		{"speed overridden", Actions{SecondsPerDay: 2}, Actions{SecondsPerDay: 0.5}, Actions{SecondsPerDay: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Merge(tt.b); got != tt.want {
				t.Errorf("Merge = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHUDDataStatus(t *testing.T) {
	running := HUDData{}
	if s := running.Status(); s != "Running" {
		t.Errorf("status = %q, want Running", s)
	}

	paused := HUDData{Paused: true}
	if s := paused.Status(); s != "PAUSED" {
		t.Errorf("status = %q, want PAUSED", s)
	}

	collapsed := HUDData{Paused: true, Report: telemetry.DayReport{Collapsed: true}}
	if s := collapsed.Status(); s != "Stopped" {
		t.Errorf("status = %q, want Stopped", s)
	}
}

func TestToggleText(t *testing.T) {
	if toggleText(true, "Resume", "Pause") != "Resume" {
		t.Error("expected on text")
	}
	if toggleText(false, "Resume", "Pause") != "Pause" {
		t.Error("expected off text")
	}
}
