package application

import "fanbridge/internal/domain"

// Reconcile combines the advisory matcher result with the parsed classifier
// verdict. The advisory side is telemetry only; the verdict passes through a
// final device filter so that nothing but well-formed fan commands can ever
// reach dispatch, whatever the classifier replied.
func Reconcile(advisory domain.ParsedCommand, final *domain.FinalCommand) *domain.FinalCommand {
	if final == nil || !final.Valid() {
		return nil
	}
	if final.Device != domain.DeviceFan {
		return nil
	}
	return final
}
