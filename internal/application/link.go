package application

import "fanbridge/internal/domain"

// CommandSender is the narrow write-side of the serial link used by the
// dispatcher.
type CommandSender interface {
	Send(cmd domain.FinalCommand) bool
}

// LinkStatus is the externally visible snapshot of the serial link.
type LinkStatus struct {
	Connected bool   `json:"connected"`
	State     string `json:"state"`
	Port      string `json:"port"`
	BaudRate  int    `json:"baudRate"`
}

// SerialControl is the operator-facing side of the serial link, consumed by
// the HTTP layer for status reporting and manual recovery.
type SerialControl interface {
	Status() LinkStatus
	Retry() error
}
