package domain

import (
	"encoding/json"
	"fmt"
)

// StatusReply is the periodic status line the device emits. It is decoded
// purely for observability; nothing in the command path reads it.
type StatusReply struct {
	Device   string `json:"device"`
	FanOn    bool   `json:"fanOn"`
	FanSpeed int    `json:"fanSpeed"`
	PWMValue int    `json:"pwmValue"`
}

// DecodeStatus parses one inbound line. Lines that are not status JSON
// (boot noise, debug prints) return an error; callers log and move on.
func DecodeStatus(line []byte) (*StatusReply, error) {
	var s StatusReply
	if err := json.Unmarshal(line, &s); err != nil {
		return nil, fmt.Errorf("decoding status line: %w", err)
	}
	if s.Device == "" {
		return nil, fmt.Errorf("status line missing device field")
	}
	return &s, nil
}
