package domain_test

import (
	"testing"

	"fanbridge/internal/domain"
)

func TestFinalCommand_EncodeWire(t *testing.T) {
	tests := []struct {
		name string
		cmd  domain.FinalCommand
		want string
	}{
		{
			name: "fan on",
			cmd:  domain.FinalCommand{Device: domain.DeviceFan, Action: domain.ActionOn},
			want: `{"device":"fan","action":"on"}` + "\n",
		},
		{
			name: "fan off",
			cmd:  domain.FinalCommand{Device: domain.DeviceFan, Action: domain.ActionOff},
			want: `{"device":"fan","action":"off"}` + "\n",
		},
		{
			name: "fan speed 3",
			cmd:  domain.FinalCommand{Device: domain.DeviceFan, Action: domain.ActionSpeed, Value: 3},
			want: `{"device":"fan","action":"speed","value":3}` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := tt.cmd.EncodeWire()
			if err != nil {
				t.Fatalf("EncodeWire: %v", err)
			}
			if string(line) != tt.want {
				t.Errorf("got %q, want %q", line, tt.want)
			}
		})
	}
}

func TestFinalCommand_EncodeWire_Repeatable(t *testing.T) {
	cmd := domain.FinalCommand{Device: domain.DeviceFan, Action: domain.ActionOff}

	first, err := cmd.EncodeWire()
	if err != nil {
		t.Fatalf("EncodeWire: %v", err)
	}
	second, err := cmd.EncodeWire()
	if err != nil {
		t.Fatalf("EncodeWire: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("repeat encoding differs: %q vs %q", first, second)
	}
}

func TestFinalCommand_EncodeWire_RejectsInvalid(t *testing.T) {
	invalid := []domain.FinalCommand{
		{Device: domain.DeviceLights, Action: domain.ActionOn},
		{Device: domain.DeviceUnknown, Action: domain.ActionOff},
		{Device: domain.DeviceFan, Action: domain.ActionGeneral},
		{Device: domain.DeviceFan, Action: domain.ActionSpeed, Value: 0},
		{Device: domain.DeviceFan, Action: domain.ActionSpeed, Value: 6},
	}

	for _, cmd := range invalid {
		if _, err := cmd.EncodeWire(); err == nil {
			t.Errorf("expected encode error for %+v", cmd)
		}
	}
}

func TestDecodeStatus(t *testing.T) {
	line := []byte(`{"device":"esp32","fanOn":true,"fanSpeed":3,"pwmValue":127}`)

	s, err := domain.DecodeStatus(line)
	if err != nil {
		t.Fatalf("domain.DecodeStatus: %v", err)
	}
	if s.Device != "esp32" || !s.FanOn || s.FanSpeed != 3 || s.PWMValue != 127 {
		t.Errorf("unexpected status: %+v", s)
	}
}

func TestDecodeStatus_Garbage(t *testing.T) {
	for _, line := range []string{"", "boot v1.2", `{"fanOn":true}`, "{broken"} {
		if _, err := domain.DecodeStatus([]byte(line)); err == nil {
			t.Errorf("expected error for %q", line)
		}
	}
}
