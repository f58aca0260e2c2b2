package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"fanbridge/internal/domain"
)

// Result is what one pipeline pass produces: the advisory match, the
// authoritative command (nil when the text yields none), and whether it was
// written to the device.
type Result struct {
	Advisory domain.ParsedCommand
	Final    *domain.FinalCommand
	Sent     bool
}

// Pipeline runs text through match → classify → reconcile → dispatch. It is
// the single entry point the HTTP layer and the audio listener share.
type Pipeline struct {
	matcher    *Matcher
	classifier *Classifier
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewPipeline(matcher *Matcher, classifier *Classifier, dispatcher *Dispatcher, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		matcher:    matcher,
		classifier: classifier,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Process interprets text and, when it reconciles to a fan command, sends it.
// A classifier failure is a hard failure of the request: no command is ever
// dispatched on a guess.
func (p *Pipeline) Process(ctx context.Context, text string) (*Result, error) {
	requestID := uuid.NewString()
	logger := p.logger.With("request_id", requestID)

	advisory := p.matcher.Match(text)
	logger.Info("matched intent",
		"text", text,
		"device", advisory.Device,
		"action", advisory.Action,
		"value", advisory.Value,
		"confidence", advisory.Confidence,
	)

	reply, err := p.classifier.Classify(ctx, text, advisorySummary(advisory))
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}

	final := Reconcile(advisory, ParseConstrainedReply(reply))
	if final == nil {
		logger.Warn("reply outside command vocabulary, nothing to send", "reply", reply)
		return &Result{Advisory: advisory}, nil
	}

	sent := p.dispatcher.Dispatch(final)
	logger.Info("dispatched", "command", final.String(), "sent", sent)

	return &Result{Advisory: advisory, Final: final, Sent: sent}, nil
}

func advisorySummary(advisory domain.ParsedCommand) string {
	if advisory.Device == domain.DeviceUnknown {
		return "no rule matched this request"
	}
	if advisory.Action == domain.ActionSpeed {
		return fmt.Sprintf("rules matched %s %s %d (%s confidence)",
			advisory.Device, advisory.Action, advisory.Value, advisory.Confidence)
	}
	return fmt.Sprintf("rules matched %s %s (%s confidence)",
		advisory.Device, advisory.Action, advisory.Confidence)
}
