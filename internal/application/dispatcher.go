package application

import (
	"log/slog"

	"fanbridge/internal/domain"
)

// Dispatcher hands reconciled commands to the serial link. One attempt per
// request: a closed link means sent=false, never a retry loop, so request
// latency stays bounded.
type Dispatcher struct {
	sender CommandSender
	logger *slog.Logger
}

func NewDispatcher(sender CommandSender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, logger: logger}
}

func (d *Dispatcher) Dispatch(cmd *domain.FinalCommand) bool {
	if cmd == nil || cmd.Device != domain.DeviceFan {
		return false
	}

	sent := d.sender.Send(*cmd)
	if !sent {
		d.logger.Warn("command not sent, serial link not open", "command", cmd.String())
	}
	return sent
}
