package domain

import (
	"encoding/json"
	"fmt"
)

type Device string

const (
	DeviceFan     Device = "fan"
	DeviceLights  Device = "lights"
	DeviceUnknown Device = "unknown"
)

type Action string

const (
	ActionOn      Action = "on"
	ActionOff     Action = "off"
	ActionSpeed   Action = "speed"
	ActionGeneral Action = "general"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// SpeedMin and SpeedMax bound the fan speed accepted anywhere in the
// pipeline. Out-of-range values are never clamped; they mean "no match".
const (
	SpeedMin = 1
	SpeedMax = 5
)

// ParsedCommand is the advisory result of the rule-based matcher. It feeds
// logging and the classifier prompt context, never the device.
type ParsedCommand struct {
	Device       Device
	Action       Action
	Value        int // set only when Action == ActionSpeed
	Confidence   Confidence
	OriginalText string
}

// FinalCommand is the only structure ever transmitted to the device. A
// non-nil FinalCommand always targets the fan and is always well-formed.
type FinalCommand struct {
	Device Device
	Action Action
	Value  int // set only when Action == ActionSpeed
}

func (c FinalCommand) Valid() bool {
	if c.Device != DeviceFan {
		return false
	}
	switch c.Action {
	case ActionOn, ActionOff:
		return c.Value == 0
	case ActionSpeed:
		return c.Value >= SpeedMin && c.Value <= SpeedMax
	default:
		return false
	}
}

func (c FinalCommand) String() string {
	if c.Action == ActionSpeed {
		return fmt.Sprintf("%s %s %d", c.Device, c.Action, c.Value)
	}
	return fmt.Sprintf("%s %s", c.Device, c.Action)
}

type wireCommand struct {
	Device string `json:"device"`
	Action string `json:"action"`
	Value  *int   `json:"value,omitempty"`
}

// EncodeWire serializes the command to the device wire format: one JSON
// object terminated by a newline.
func (c FinalCommand) EncodeWire() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("refusing to encode invalid command %s", c)
	}

	w := wireCommand{Device: string(c.Device), Action: string(c.Action)}
	if c.Action == ActionSpeed {
		v := c.Value
		w.Value = &v
	}

	line, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("marshaling command: %w", err)
	}

	return append(line, '\n'), nil
}
