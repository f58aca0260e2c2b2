package application_test

import (
	"testing"

	"fanbridge/internal/application"
	"fanbridge/internal/domain"
)

func TestMatcher_FanOnVocabulary(t *testing.T) {
	m := application.NewMatcher()

	phrases := []string{
		"fan on",
		"turn fan on",
		"turn the fan on",
		"turn on the fan",
		"start the fan",
		"start fan",
		"switch on the fan",
		"  Fan On  ",
		"please turn the fan on now",
	}

	for _, phrase := range phrases {
		got := m.Match(phrase)
		if got.Device != domain.DeviceFan || got.Action != domain.ActionOn || got.Confidence != domain.ConfidenceHigh {
			t.Errorf("%q: got {%s %s %s}, want {fan on high}", phrase, got.Device, got.Action, got.Confidence)
		}
	}
}

func TestMatcher_FanOffVocabulary(t *testing.T) {
	m := application.NewMatcher()

	phrases := []string{
		"fan off",
		"turn the fan off",
		"turn off the fan",
		"stop the fan",
		"switch off fan",
	}

	for _, phrase := range phrases {
		got := m.Match(phrase)
		if got.Device != domain.DeviceFan || got.Action != domain.ActionOff || got.Confidence != domain.ConfidenceHigh {
			t.Errorf("%q: got {%s %s %s}, want {fan off high}", phrase, got.Device, got.Action, got.Confidence)
		}
	}
}

func TestMatcher_FanSpeed(t *testing.T) {
	m := application.NewMatcher()

	tests := []struct {
		phrase string
		value  int
	}{
		{"set the fan speed to 4", 4},
		{"set fan to 2", 2},
		{"set the fan 5", 5},
		{"speed 1", 1},
		{"fan speed 3", 3},
		{"fan 4", 4},
	}

	for _, tt := range tests {
		got := m.Match(tt.phrase)
		if got.Device != domain.DeviceFan || got.Action != domain.ActionSpeed || got.Value != tt.value {
			t.Errorf("%q: got {%s %s %d}, want {fan speed %d}", tt.phrase, got.Device, got.Action, got.Value, tt.value)
		}
		if got.Confidence != domain.ConfidenceHigh {
			t.Errorf("%q: confidence %s, want high", tt.phrase, got.Confidence)
		}
	}
}

func TestMatcher_FanSpeedOutOfRange(t *testing.T) {
	m := application.NewMatcher()

	for _, phrase := range []string{"set the fan speed to 9", "speed 0", "fan speed 12"} {
		got := m.Match(phrase)
		if got.Action == domain.ActionSpeed {
			t.Errorf("%q: out-of-range speed must not match, got value %d", phrase, got.Value)
		}
		if got.Device != domain.DeviceUnknown || got.Confidence != domain.ConfidenceLow {
			t.Errorf("%q: got {%s %s}, want fall-through to {unknown low}", phrase, got.Device, got.Confidence)
		}
	}
}

func TestMatcher_SpeedPrefixOnly(t *testing.T) {
	m := application.NewMatcher()

	// "speed" must lead the text to count; a speed mentioned mid-sentence
	// about something else is not a fan command, even with an in-range value.
	for _, phrase := range []string{"wind speed 120", "wind speed 3", "the speed 2 setting"} {
		got := m.Match(phrase)
		if got.Device != domain.DeviceUnknown || got.Action != domain.ActionGeneral {
			t.Errorf("%q: got {%s %s %d}, want {unknown general}", phrase, got.Device, got.Action, got.Value)
		}
	}
}

func TestMatcher_Lights(t *testing.T) {
	m := application.NewMatcher()

	on := m.Match("turn the lights on")
	if on.Device != domain.DeviceLights || on.Action != domain.ActionOn || on.Confidence != domain.ConfidenceMedium {
		t.Errorf("lights on: got {%s %s %s}", on.Device, on.Action, on.Confidence)
	}

	off := m.Match("switch off the light")
	if off.Device != domain.DeviceLights || off.Action != domain.ActionOff || off.Confidence != domain.ConfidenceMedium {
		t.Errorf("lights off: got {%s %s %s}", off.Device, off.Action, off.Confidence)
	}
}

func TestMatcher_NoMatch(t *testing.T) {
	m := application.NewMatcher()

	for _, phrase := range []string{"", "what's the weather", "play some music", "hello there"} {
		got := m.Match(phrase)
		if got.Device != domain.DeviceUnknown || got.Action != domain.ActionGeneral || got.Confidence != domain.ConfidenceLow {
			t.Errorf("%q: got {%s %s %s}, want {unknown general low}", phrase, got.Device, got.Action, got.Confidence)
		}
		if got.OriginalText != phrase {
			t.Errorf("%q: original text not preserved, got %q", phrase, got.OriginalText)
		}
	}
}

func TestMatcher_PrecedenceIsDeterministic(t *testing.T) {
	m := application.NewMatcher()

	// Contradictory text; the first listed family (fan on) must win.
	got := m.Match("fan on fan off")
	if got.Action != domain.ActionOn {
		t.Errorf("got action %s, want on (first rule wins)", got.Action)
	}
}
