package application_test

import (
	"testing"

	"fanbridge/internal/application"
	"fanbridge/internal/domain"
)

func TestReconcile_NilStaysNil(t *testing.T) {
	advisory := domain.ParsedCommand{Device: domain.DeviceFan, Action: domain.ActionOn, Confidence: domain.ConfidenceHigh}

	if got := application.Reconcile(advisory, nil); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestReconcile_AdvisoryNeverPromoted(t *testing.T) {
	// A high-confidence advisory must not produce a command on its own.
	advisory := domain.ParsedCommand{Device: domain.DeviceFan, Action: domain.ActionSpeed, Value: 3, Confidence: domain.ConfidenceHigh}

	if got := application.Reconcile(advisory, nil); got != nil {
		t.Errorf("advisory leaked into final command: %+v", got)
	}
}

func TestReconcile_FiltersNonFan(t *testing.T) {
	advisories := []domain.ParsedCommand{
		{Device: domain.DeviceUnknown, Action: domain.ActionGeneral, Confidence: domain.ConfidenceLow},
		{Device: domain.DeviceLights, Action: domain.ActionOn, Confidence: domain.ConfidenceMedium},
	}
	finals := []*domain.FinalCommand{
		{Device: domain.DeviceLights, Action: domain.ActionOn},
		{Device: domain.DeviceUnknown, Action: domain.ActionOff},
		{Device: "thermostat", Action: domain.ActionOn},
	}

	for _, advisory := range advisories {
		for _, final := range finals {
			if got := application.Reconcile(advisory, final); got != nil {
				t.Errorf("non-fan command passed the gate: %+v", got)
			}
		}
	}
}

func TestReconcile_FiltersMalformedFan(t *testing.T) {
	advisory := domain.ParsedCommand{Device: domain.DeviceUnknown, Action: domain.ActionGeneral}
	malformed := []*domain.FinalCommand{
		{Device: domain.DeviceFan, Action: domain.ActionGeneral},
		{Device: domain.DeviceFan, Action: domain.ActionSpeed, Value: 0},
		{Device: domain.DeviceFan, Action: domain.ActionSpeed, Value: 7},
	}

	for _, final := range malformed {
		if got := application.Reconcile(advisory, final); got != nil {
			t.Errorf("malformed command passed the gate: %+v", got)
		}
	}
}

func TestReconcile_PassesValidFanCommands(t *testing.T) {
	advisory := domain.ParsedCommand{Device: domain.DeviceUnknown, Action: domain.ActionGeneral}
	valid := []*domain.FinalCommand{
		{Device: domain.DeviceFan, Action: domain.ActionOn},
		{Device: domain.DeviceFan, Action: domain.ActionOff},
		{Device: domain.DeviceFan, Action: domain.ActionSpeed, Value: 5},
	}

	for _, final := range valid {
		got := application.Reconcile(advisory, final)
		if got == nil || *got != *final {
			t.Errorf("valid command rejected: %+v -> %+v", final, got)
		}
	}
}
